package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
)

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore. Sessions are stored as
// JSON with a unix-millisecond deadline and dropped lazily once expired.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// Get returns the session, or domain.ErrSessionNotFound.
func (s *sessionStore) Get(ctx context.Context, id string) (*domain.VerificationSession, error) {
	var data string
	var expiresAt int64
	err := s.store.db.QueryRowContext(ctx,
		"SELECT data, expires_at FROM sessions WHERE id = ?", id,
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if s.expired(expiresAt) {
		if _, err := s.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
			return nil, fmt.Errorf("dropping expired session: %w", err)
		}
		return nil, domain.ErrSessionNotFound
	}

	var session domain.VerificationSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("unmarshalling session: %w", err)
	}
	return &session, nil
}

// Set stores the session with a time to live. A zero ttl never expires.
func (s *sessionStore) Set(ctx context.Context, session *domain.VerificationSession, ttl time.Duration) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidInput
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshalling session: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			expires_at = excluded.expires_at
	`, session.ID, string(data), s.deadline(ttl))
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Delete removes the session.
func (s *sessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Expire resets the time to live of an existing session.
func (s *sessionStore) Expire(ctx context.Context, id string, ttl time.Duration) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.store.db.ExecContext(ctx,
		"UPDATE sessions SET expires_at = ? WHERE id = ?", s.deadline(ttl), id); err != nil {
		return fmt.Errorf("updating session expiry: %w", err)
	}
	return nil
}

// PurgeExpired deletes every expired session and returns how many went.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at > 0 AND expires_at <= ?", s.clock().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	return res.RowsAffected()
}

func (s *sessionStore) deadline(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return s.store.clock().Add(ttl).UnixMilli()
}

func (s *sessionStore) expired(expiresAt int64) bool {
	return expiresAt > 0 && s.store.clock().UnixMilli() >= expiresAt
}

// ==================== OTP Store ====================

// otpStore implements driven.OTPStore. Expired records are kept so the
// verifier can report expiry rather than a missing code.
type otpStore struct {
	store *Store
}

var _ driven.OTPStore = (*otpStore)(nil)

// Save stores or replaces the record for record.Key.
func (s *otpStore) Save(ctx context.Context, record *domain.OTPRecord) error {
	if record == nil || record.Key == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO otp_codes (key, code, issued_at, expires_at, attempts, consumed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			code = excluded.code,
			issued_at = excluded.issued_at,
			expires_at = excluded.expires_at,
			attempts = excluded.attempts,
			consumed = excluded.consumed
	`, record.Key, record.Code, record.IssuedAt.UTC(), record.ExpiresAt.UTC(),
		record.Attempts, record.Consumed)
	if err != nil {
		return fmt.Errorf("saving otp: %w", err)
	}
	return nil
}

// Get returns the record, or domain.ErrNotFound.
func (s *otpStore) Get(ctx context.Context, key string) (*domain.OTPRecord, error) {
	var record domain.OTPRecord
	err := s.store.db.QueryRowContext(ctx, `
		SELECT key, code, issued_at, expires_at, attempts, consumed
		FROM otp_codes WHERE key = ?
	`, key).Scan(&record.Key, &record.Code, &record.IssuedAt, &record.ExpiresAt,
		&record.Attempts, &record.Consumed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading otp: %w", err)
	}
	return &record, nil
}

// Delete discards the record.
func (s *otpStore) Delete(ctx context.Context, key string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM otp_codes WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting otp: %w", err)
	}
	return nil
}
