package driven

import "github.com/custodia-labs/siteassist/internal/core/domain"

// Metrics records outcome counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// ObserveResolution counts a resolved query.
	ObserveResolution(source domain.AnswerSource, found bool)

	// ObserveTransition counts a verification state change.
	ObserveTransition(from, to domain.VerificationState)

	// ObserveOTPCheck counts an SMS code check by outcome.
	ObserveOTPCheck(reason domain.OTPReason)
}
