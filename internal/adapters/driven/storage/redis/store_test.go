package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Dial(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestDial_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Dial(context.Background(), Options{Addr: addr})
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestSessionStore_SetAndGet(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewSessionStore(client, "")
	ctx := context.Background()

	session := &domain.VerificationSession{
		ID:          "call-1",
		Phone:       "+15551234567",
		State:       domain.StateSMSPending,
		OTPAttempts: 2,
	}
	require.NoError(t, store.Set(ctx, session, time.Minute))

	assert.True(t, mr.Exists("siteassist:session:call-1"))
	assert.Equal(t, time.Minute, mr.TTL("siteassist:session:call-1"))

	got, err := store.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestSessionStore_Prefix(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewSessionStore(client, "test:")

	require.NoError(t, store.Set(context.Background(), &domain.VerificationSession{ID: "x"}, 0))

	assert.True(t, mr.Exists("test:session:x"))
	assert.Equal(t, time.Duration(0), mr.TTL("test:session:x"))
}

func TestSessionStore_Expiry(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewSessionStore(client, "")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &domain.VerificationSession{ID: "call-1"}, time.Minute))

	mr.FastForward(30 * time.Second)
	require.NoError(t, store.Expire(ctx, "call-1", time.Minute))

	mr.FastForward(45 * time.Second)
	_, err := store.Get(ctx, "call-1")
	require.NoError(t, err)

	mr.FastForward(15 * time.Second)
	_, err = store.Get(ctx, "call-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_ExpireMissing(t *testing.T) {
	_, client := setupRedis(t)
	store := NewSessionStore(client, "")

	assert.ErrorIs(t, store.Expire(context.Background(), "nope", time.Minute), domain.ErrSessionNotFound)
	assert.ErrorIs(t, store.Expire(context.Background(), "nope", 0), domain.ErrSessionNotFound)
}

func TestSessionStore_ExpireZeroPersists(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewSessionStore(client, "")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &domain.VerificationSession{ID: "call-1"}, time.Minute))
	require.NoError(t, store.Expire(ctx, "call-1", 0))
	assert.Equal(t, time.Duration(0), mr.TTL("siteassist:session:call-1"))

	// Already persistent keys are still found.
	require.NoError(t, store.Expire(ctx, "call-1", 0))
}

func TestSessionStore_Delete(t *testing.T) {
	_, client := setupRedis(t)
	store := NewSessionStore(client, "")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &domain.VerificationSession{ID: "call-1"}, time.Minute))
	require.NoError(t, store.Delete(ctx, "call-1"))

	_, err := store.Get(ctx, "call-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.NoError(t, store.Delete(ctx, "call-1"))
}

func TestSessionStore_CorruptValue(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewSessionStore(client, "")
	require.NoError(t, mr.Set("siteassist:session:bad", "{not json"))

	_, err := store.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_SetInvalid(t *testing.T) {
	_, client := setupRedis(t)
	store := NewSessionStore(client, "")

	assert.ErrorIs(t, store.Set(context.Background(), nil, time.Minute), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Set(context.Background(), &domain.VerificationSession{}, time.Minute), domain.ErrInvalidInput)
}

func TestOTPStore_SaveGetDelete(t *testing.T) {
	mr, client := setupRedis(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store := NewOTPStore(client, "", WithClock(func() time.Time { return now }), WithRetention(time.Minute))
	ctx := context.Background()

	record := &domain.OTPRecord{
		Key:       "+15551234567",
		Code:      "482913",
		IssuedAt:  now,
		ExpiresAt: now.Add(5 * time.Minute),
		Attempts:  1,
	}
	require.NoError(t, store.Save(ctx, record))
	assert.Equal(t, 6*time.Minute, mr.TTL("siteassist:otp:+15551234567"))

	got, err := store.Get(ctx, record.Key)
	require.NoError(t, err)
	assert.Equal(t, "482913", got.Code)
	assert.Equal(t, 1, got.Attempts)
	assert.True(t, record.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, store.Delete(ctx, record.Key))
	_, err = store.Get(ctx, record.Key)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOTPStore_ExpiredRecordIsRetained(t *testing.T) {
	mr, client := setupRedis(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store := NewOTPStore(client, "", WithClock(func() time.Time { return now }))
	ctx := context.Background()

	record := &domain.OTPRecord{Key: "call-1", Code: "111111", IssuedAt: now, ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, store.Save(ctx, record))

	mr.FastForward(2 * time.Minute)
	got, err := store.Get(ctx, "call-1")
	require.NoError(t, err, "expired codes stay readable during retention")
	assert.Equal(t, "111111", got.Code)

	mr.FastForward(DefaultOTPRetention)
	_, err = store.Get(ctx, "call-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOTPStore_SavePastRetentionDeletes(t *testing.T) {
	mr, client := setupRedis(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store := NewOTPStore(client, "", WithClock(func() time.Time { return now }), WithRetention(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.OTPRecord{Key: "k", Code: "1", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, store.Save(ctx, &domain.OTPRecord{Key: "k", Code: "2", ExpiresAt: now.Add(-time.Hour)}))

	assert.False(t, mr.Exists("siteassist:otp:k"))
}

func TestOTPStore_SaveInvalid(t *testing.T) {
	_, client := setupRedis(t)
	store := NewOTPStore(client, "")

	assert.ErrorIs(t, store.Save(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Save(context.Background(), &domain.OTPRecord{}), domain.ErrInvalidInput)
}
