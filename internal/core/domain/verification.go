package domain

import "time"

// VerificationState is the progress of a caller through verification.
type VerificationState string

// Verification states.
const (
	StateGreeting          VerificationState = "GREETING"
	StateConsentPending    VerificationState = "CONSENT_PENDING"
	StateDeclined          VerificationState = "DECLINED"
	StateCallbackScheduled VerificationState = "CALLBACK_SCHEDULED"
	StateSMSPending        VerificationState = "SMS_PENDING"
	StateSMSVerified       VerificationState = "SMS_VERIFIED"
	StateTOTPPending       VerificationState = "TOTP_PENDING"
	StateTOTPVerified      VerificationState = "TOTP_VERIFIED"
	StateEnded             VerificationState = "ENDED"
)

// IsValid returns true if the state is recognised.
func (s VerificationState) IsValid() bool {
	switch s {
	case StateGreeting, StateConsentPending, StateDeclined, StateCallbackScheduled,
		StateSMSPending, StateSMSVerified, StateTOTPPending, StateTOTPVerified, StateEnded:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s VerificationState) String() string {
	return string(s)
}

// VerificationSession tracks one call. It is created on call start and
// only mutated by the verification service.
type VerificationSession struct {
	// ID is the call or session identifier.
	ID string

	// Phone is the caller's number, used as the SMS destination.
	Phone string

	State VerificationState

	// OTPExpiry mirrors the active SMS code's expiry, if one was issued.
	OTPExpiry *time.Time

	// OTPAttempts counts failed SMS code attempts.
	OTPAttempts int

	// TOTPSecret is the caller's enrolled base32 TOTP secret.
	TOTPSecret string

	// TOTPAttempts counts failed TOTP attempts.
	TOTPAttempts int

	// VerifiedAt is when the caller last passed a verification step.
	VerifiedAt *time.Time

	// CallbackText is what the caller said when asking to be called back.
	CallbackText string

	// PendingRequest is the sensitive request awaiting TOTP.
	PendingRequest string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OTPRecord is an issued SMS code. It is single use.
type OTPRecord struct {
	// Key is the phone number or call ID the code was issued for.
	Key       string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Attempts  int
	Consumed  bool
}

// OTPReason explains an OTP verification outcome.
type OTPReason string

// OTP verification reasons.
const (
	OTPReasonOK              OTPReason = "ok"
	OTPReasonInvalidCode     OTPReason = "invalid code"
	OTPReasonExpired         OTPReason = "expired"
	OTPReasonTooManyAttempts OTPReason = "too many attempts"
	OTPReasonNotIssued       OTPReason = "no active code"
	OTPReasonConsumed        OTPReason = "already used"
	OTPReasonMalformed       OTPReason = "malformed code"
)

// OTPResult is the structured outcome of checking an SMS code.
type OTPResult struct {
	Valid             bool
	Reason            OTPReason
	RemainingAttempts int
}

// ActionKind tags what the conversation layer must do next.
type ActionKind string

// Action kinds.
const (
	ActionSpeak            ActionKind = "speak"
	ActionSendSMS          ActionKind = "send_sms"
	ActionWaitForSMSCode   ActionKind = "wait_for_sms_code"
	ActionWaitForTOTP      ActionKind = "wait_for_totp"
	ActionScheduleCallback ActionKind = "schedule_callback"
	ActionHangup           ActionKind = "hangup"
)

// Action is a structured instruction for the telephony layer.
type Action struct {
	Kind    ActionKind
	Payload string
}

// Turn is the result of feeding one event to the verification service.
type Turn struct {
	SessionID string
	Previous  VerificationState
	State     VerificationState

	// Path lists the states entered during this turn, in order.
	Path []VerificationState

	// Prompt is what the agent says next.
	Prompt string

	Action Action

	// Reason carries the failure reason for rejected codes, if any.
	Reason string
}

// Transitioned reports whether the event changed state.
func (t Turn) Transitioned() bool {
	return t.Previous != t.State
}
