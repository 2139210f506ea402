package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// SessionStore holds verification sessions keyed by call ID.
// Expired sessions behave as if they were deleted.
type SessionStore interface {
	// Get returns the session, or domain.ErrSessionNotFound.
	Get(ctx context.Context, id string) (*domain.VerificationSession, error)

	// Set stores the session with a time to live.
	Set(ctx context.Context, session *domain.VerificationSession, ttl time.Duration) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Expire resets the time to live of an existing session.
	Expire(ctx context.Context, id string, ttl time.Duration) error
}

// OTPStore holds issued SMS codes keyed by phone number or call ID.
type OTPStore interface {
	// Save stores or replaces the record for record.Key.
	Save(ctx context.Context, record *domain.OTPRecord) error

	// Get returns the record, or domain.ErrNotFound.
	Get(ctx context.Context, key string) (*domain.OTPRecord, error)

	// Delete discards the record.
	Delete(ctx context.Context, key string) error
}
