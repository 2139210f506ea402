package driving

import (
	"context"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// VerificationService drives callers through consent, SMS and TOTP checks.
// Rejected codes and unrecognised replies are reported in the returned
// Turn; errors are reserved for missing sessions and backend failures.
type VerificationService interface {
	// Start opens a session for a call and returns the greeting turn,
	// which already asks for consent.
	Start(ctx context.Context, callID, phone string) (domain.Turn, error)

	// HandleUtterance feeds transcribed caller speech to the session.
	HandleUtterance(ctx context.Context, callID, text string) (domain.Turn, error)

	// HandleDigits feeds keypad input to the session.
	HandleDigits(ctx context.Context, callID, digits string) (domain.Turn, error)

	// HandleSensitiveRequest asks for data that needs TOTP, such as a balance.
	HandleSensitiveRequest(ctx context.Context, callID, request string) (domain.Turn, error)

	// EnrollTOTP stores a TOTP secret for the session's caller.
	EnrollTOTP(ctx context.Context, callID, secret string) error

	// Hangup ends the call from any state and discards the session.
	Hangup(ctx context.Context, callID string) (domain.Turn, error)

	// Session returns the current session.
	Session(ctx context.Context, callID string) (*domain.VerificationSession, error)
}
