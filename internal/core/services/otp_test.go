package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/siteassist/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/siteassist/internal/core/domain"
)

type otpFixture struct {
	svc     *OTPService
	store   *memory.OTPStore
	sender  *mockSMSSender
	clock   *fakeClock
	metrics *recordingMetrics
}

func setupOTP(t *testing.T) *otpFixture {
	t.Helper()
	f := &otpFixture{
		store:   memory.NewOTPStore(),
		sender:  &mockSMSSender{},
		clock:   newFakeClock(),
		metrics: &recordingMetrics{},
	}
	f.svc = NewOTPService(f.store, f.sender, domain.DefaultSettings().Verification,
		WithOTPClock(f.clock.Now), WithOTPMetrics(f.metrics))
	return f
}

// wrongCode returns a well-formed code that differs from code.
func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestOTPService_Issue(t *testing.T) {
	f := setupOTP(t)

	record, err := f.svc.Issue(context.Background(), "call-1", "+15550100")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), record.Code)
	assert.Equal(t, f.clock.Now().Add(5*time.Minute), record.ExpiresAt)

	sent := f.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "+15550100", sent[0].to)
	assert.Contains(t, sent[0].body, record.Code)

	stored, err := f.store.Get(context.Background(), "call-1")
	require.NoError(t, err)
	assert.Equal(t, record.Code, stored.Code)
}

func TestOTPService_Issue_Errors(t *testing.T) {
	t.Run("empty key", func(t *testing.T) {
		f := setupOTP(t)
		_, err := f.svc.Issue(context.Background(), "", "+15550100")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("delivery failure", func(t *testing.T) {
		f := setupOTP(t)
		f.sender.sendErr = errors.New("carrier rejected")
		_, err := f.svc.Issue(context.Background(), "call-1", "+15550100")
		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})

	t.Run("no sender stores code", func(t *testing.T) {
		store := memory.NewOTPStore()
		svc := NewOTPService(store, nil, domain.DefaultSettings().Verification)
		record, err := svc.Issue(context.Background(), "call-1", "+15550100")
		require.NoError(t, err)
		res, err := svc.Verify(context.Background(), "call-1", record.Code)
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})
}

func TestOTPService_Verify_SingleUse(t *testing.T) {
	ctx := context.Background()
	f := setupOTP(t)
	record, err := f.svc.Issue(ctx, "call-1", "+15550100")
	require.NoError(t, err)

	res, err := f.svc.Verify(ctx, "call-1", record.Code)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, domain.OTPReasonOK, res.Reason)

	res, err = f.svc.Verify(ctx, "call-1", record.Code)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, domain.OTPReasonConsumed, res.Reason)
}

func TestOTPService_Verify_Expired(t *testing.T) {
	ctx := context.Background()
	f := setupOTP(t)
	record, err := f.svc.Issue(ctx, "call-1", "+15550100")
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)

	res, err := f.svc.Verify(ctx, "call-1", record.Code)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, domain.OTPReasonExpired, res.Reason)

	res, err = f.svc.Verify(ctx, "call-1", record.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.OTPReasonExpired, res.Reason, "still reported as expired")
}

func TestOTPService_Verify_AttemptLimit(t *testing.T) {
	ctx := context.Background()
	f := setupOTP(t)
	record, err := f.svc.Issue(ctx, "call-1", "+15550100")
	require.NoError(t, err)
	bad := wrongCode(record.Code)

	res, err := f.svc.Verify(ctx, "call-1", bad)
	require.NoError(t, err)
	assert.Equal(t, domain.OTPReasonInvalidCode, res.Reason)
	assert.Equal(t, 2, res.RemainingAttempts)

	res, err = f.svc.Verify(ctx, "call-1", bad)
	require.NoError(t, err)
	assert.Equal(t, domain.OTPReasonInvalidCode, res.Reason)
	assert.Equal(t, 1, res.RemainingAttempts)

	res, err = f.svc.Verify(ctx, "call-1", bad)
	require.NoError(t, err)
	assert.Equal(t, domain.OTPReasonTooManyAttempts, res.Reason)
	assert.Zero(t, res.RemainingAttempts)

	res, err = f.svc.Verify(ctx, "call-1", record.Code)
	require.NoError(t, err)
	assert.False(t, res.Valid, "correct code after lockout is refused")
	assert.Equal(t, domain.OTPReasonTooManyAttempts, res.Reason)
}

func TestOTPService_Verify_Malformed(t *testing.T) {
	ctx := context.Background()
	f := setupOTP(t)
	record, err := f.svc.Issue(ctx, "call-1", "+15550100")
	require.NoError(t, err)

	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		res, err := f.svc.Verify(ctx, "call-1", code)
		require.NoError(t, err)
		assert.Equal(t, domain.OTPReasonMalformed, res.Reason, code)
	}

	stored, err := f.store.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Zero(t, stored.Attempts, "malformed input uses no attempts")

	res, err := f.svc.Verify(ctx, "call-1", record.Code)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestOTPService_Verify_NotIssued(t *testing.T) {
	f := setupOTP(t)

	res, err := f.svc.Verify(context.Background(), "call-1", "123456")
	require.NoError(t, err)
	assert.Equal(t, domain.OTPReasonNotIssued, res.Reason)
}

func TestOTPService_ReissueReplacesCode(t *testing.T) {
	ctx := context.Background()
	f := setupOTP(t)
	first, err := f.svc.Issue(ctx, "call-1", "+15550100")
	require.NoError(t, err)
	_, err = f.svc.Verify(ctx, "call-1", wrongCode(first.Code))
	require.NoError(t, err)

	second, err := f.svc.Issue(ctx, "call-1", "+15550100")
	require.NoError(t, err)

	stored, err := f.store.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, second.Code, stored.Code)
	assert.Zero(t, stored.Attempts)
}

func TestOTPService_Discard(t *testing.T) {
	ctx := context.Background()
	f := setupOTP(t)
	record, err := f.svc.Issue(ctx, "call-1", "+15550100")
	require.NoError(t, err)

	require.NoError(t, f.svc.Discard(ctx, "call-1"))

	res, err := f.svc.Verify(ctx, "call-1", record.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.OTPReasonNotIssued, res.Reason)
}

func TestOTPService_Metrics(t *testing.T) {
	ctx := context.Background()
	f := setupOTP(t)
	record, err := f.svc.Issue(ctx, "call-1", "+15550100")
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, "call-1", wrongCode(record.Code))
	require.NoError(t, err)
	_, err = f.svc.Verify(ctx, "call-1", record.Code)
	require.NoError(t, err)

	assert.Equal(t, []domain.OTPReason{domain.OTPReasonInvalidCode, domain.OTPReasonOK}, f.metrics.otpChecks)
}
