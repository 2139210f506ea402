// Package redis stores verification sessions and SMS codes in Redis so
// several siteassist processes can share call state. Expiry is handled
// by Redis key TTLs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
)

// Ensure the stores implement the interfaces.
var (
	_ driven.SessionStore = (*SessionStore)(nil)
	_ driven.OTPStore     = (*OTPStore)(nil)
)

const (
	// DefaultPrefix namespaces every key written by this package.
	DefaultPrefix = "siteassist:"

	// DefaultOTPRetention keeps expired codes around long enough to
	// tell the caller their code expired rather than that none exists.
	DefaultOTPRetention = 10 * time.Minute

	dialTimeout = 3 * time.Second
)

// Options configures a Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Dial connects to Redis and checks the connection with PING.
func Dial(ctx context.Context, opts Options) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: connecting to redis at %s: %v", domain.ErrBackendUnavailable, opts.Addr, err)
	}
	return client, nil
}

// SessionStore is a Redis implementation of driven.SessionStore.
// Sessions are JSON values under <prefix>session:<id>.
type SessionStore struct {
	client *goredis.Client
	prefix string
}

// NewSessionStore creates a session store. An empty prefix uses DefaultPrefix.
func NewSessionStore(client *goredis.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &SessionStore{client: client, prefix: prefix}
}

func (s *SessionStore) key(id string) string {
	return s.prefix + "session:" + id
}

// Get returns the session, or domain.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.VerificationSession, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var session domain.VerificationSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshalling session: %w", err)
	}
	return &session, nil
}

// Set stores the session with a time to live. A zero ttl never expires.
func (s *SessionStore) Set(ctx context.Context, session *domain.VerificationSession, ttl time.Duration) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidInput
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshalling session: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Delete removes the session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Expire resets the time to live of an existing session. A zero ttl
// removes the expiry.
func (s *SessionStore) Expire(ctx context.Context, id string, ttl time.Duration) error {
	var (
		ok  bool
		err error
	)
	if ttl <= 0 {
		ok, err = s.client.Persist(ctx, s.key(id)).Result()
		if err == nil && !ok {
			// PERSIST reports false for keys without a TTL too.
			var n int64
			n, err = s.client.Exists(ctx, s.key(id)).Result()
			ok = n > 0
		}
	} else {
		ok, err = s.client.Expire(ctx, s.key(id), ttl).Result()
	}
	if err != nil {
		return fmt.Errorf("updating session expiry: %w", err)
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}

// OTPStore is a Redis implementation of driven.OTPStore. Records live
// until their expiry plus a retention window.
type OTPStore struct {
	client    *goredis.Client
	prefix    string
	retention time.Duration
	clock     func() time.Time
}

// OTPOption configures an OTPStore.
type OTPOption func(*OTPStore)

// WithRetention sets how long records outlive their expiry.
func WithRetention(d time.Duration) OTPOption {
	return func(s *OTPStore) { s.retention = d }
}

// WithClock overrides the time source used to compute key TTLs.
func WithClock(clock func() time.Time) OTPOption {
	return func(s *OTPStore) { s.clock = clock }
}

// NewOTPStore creates an OTP store. An empty prefix uses DefaultPrefix.
func NewOTPStore(client *goredis.Client, prefix string, opts ...OTPOption) *OTPStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	s := &OTPStore{
		client:    client,
		prefix:    prefix,
		retention: DefaultOTPRetention,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OTPStore) key(k string) string {
	return s.prefix + "otp:" + k
}

// Save stores or replaces the record for record.Key.
func (s *OTPStore) Save(ctx context.Context, record *domain.OTPRecord) error {
	if record == nil || record.Key == "" {
		return domain.ErrInvalidInput
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshalling otp: %w", err)
	}

	ttl := record.ExpiresAt.Sub(s.clock()) + s.retention
	if ttl <= 0 {
		// Already past retention; nothing worth keeping.
		return s.Delete(ctx, record.Key)
	}
	if err := s.client.Set(ctx, s.key(record.Key), data, ttl).Err(); err != nil {
		return fmt.Errorf("saving otp: %w", err)
	}
	return nil
}

// Get returns the record, or domain.ErrNotFound.
func (s *OTPStore) Get(ctx context.Context, key string) (*domain.OTPRecord, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading otp: %w", err)
	}

	var record domain.OTPRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshalling otp: %w", err)
	}
	return &record, nil
}

// Delete discards the record.
func (s *OTPStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("deleting otp: %w", err)
	}
	return nil
}
