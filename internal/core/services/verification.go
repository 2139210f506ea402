package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/core/ports/driving"
	"github.com/custodia-labs/siteassist/internal/logger"
)

// Ensure VerificationService implements the interface.
var _ driving.VerificationService = (*VerificationService)(nil)

// Agent prompts.
const (
	promptGreeting        = "Hi, this is the support assistant. Before we continue I need to verify your identity with a code sent by text message. Is now a good time?"
	promptConsentRetry    = "Sorry, I didn't catch that. Is now a good time to verify your identity? Please say yes or no."
	promptCodeSent        = "I've sent a 6-digit code to your phone. Please say or enter it when it arrives."
	promptSMSUnavailable  = "I wasn't able to send a code right now. Please try again in a moment."
	promptAskCallback     = "No problem. When would be a better time for us to call you back?"
	promptCallbackRetry   = "Sorry, when should we call you back? For example, tomorrow at 3pm."
	promptCallbackBooked  = "Thanks, we'll call you back %s. Goodbye."
	promptGoodbye         = "No problem. Goodbye."
	promptNoCode          = "I didn't catch a 6-digit code. Please say or enter the code again."
	promptCodeMismatch    = "That code didn't match. You have %d attempts left."
	promptCodeExpired     = "That code has expired. Say \"resend\" and I'll send you a new one."
	promptCodeLocked      = "That's too many incorrect attempts. Say \"resend\" and I'll send you a new code."
	promptCodeUsed        = "That code was already used. Say \"resend\" for a new one."
	promptSMSVerified     = "Thank you, you're verified. How can I help you today?"
	promptVerifiedHelp    = "You're verified. How can I help you today?"
	promptAskTOTP         = "For that I need one more check. Please read the 6-digit code from your authenticator app."
	promptTOTPMismatch    = "That authenticator code didn't match. You have %d attempts left."
	promptTOTPFailed      = "I'm unable to verify your identity. Please contact support to regain access."
	promptTOTPVerified    = "Thanks, you're fully verified. I can help with your %s now."
	promptNotVerified     = "I need to verify your identity before I can help with that."
	promptCallbackPending = "Your callback is booked. Goodbye."
)

// VerificationService walks a caller through consent, SMS OTP and TOTP.
// Sessions live in the injected store, keyed by call ID, so concurrent calls
// never share state.
type VerificationService struct {
	sessions driven.SessionStore
	otp      *OTPService
	totp     driven.TOTPVerifier
	metrics  driven.Metrics
	settings domain.VerificationSettings
	clock    func() time.Time
}

// VerificationOption configures a VerificationService.
type VerificationOption func(*VerificationService)

// WithVerificationClock overrides the time source.
func WithVerificationClock(clock func() time.Time) VerificationOption {
	return func(s *VerificationService) { s.clock = clock }
}

// WithVerificationMetrics records state transitions.
func WithVerificationMetrics(m driven.Metrics) VerificationOption {
	return func(s *VerificationService) { s.metrics = m }
}

// NewVerificationService creates a verification service.
func NewVerificationService(
	sessions driven.SessionStore,
	otp *OTPService,
	totp driven.TOTPVerifier,
	settings domain.VerificationSettings,
	opts ...VerificationOption,
) *VerificationService {
	s := &VerificationService{
		sessions: sessions,
		otp:      otp,
		totp:     totp,
		settings: settings,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// turn accumulates state changes while handling one event.
type turn struct {
	session *domain.VerificationSession
	result  domain.Turn
}

func newTurn(session *domain.VerificationSession) *turn {
	return &turn{
		session: session,
		result: domain.Turn{
			SessionID: session.ID,
			Previous:  session.State,
			State:     session.State,
		},
	}
}

func (t *turn) moveTo(state domain.VerificationState) {
	t.session.State = state
	t.result.State = state
	t.result.Path = append(t.result.Path, state)
}

func (t *turn) say(prompt string, kind domain.ActionKind, payload string) {
	t.result.Prompt = prompt
	t.result.Action = domain.Action{Kind: kind, Payload: payload}
}

// Start opens a session. The greeting doubles as the consent question, so
// the session is already waiting for consent when Start returns.
func (s *VerificationService) Start(ctx context.Context, callID, phone string) (domain.Turn, error) {
	if strings.TrimSpace(callID) == "" {
		return domain.Turn{}, fmt.Errorf("%w: call id is empty", domain.ErrInvalidInput)
	}
	logger.Section("Verification Start")

	now := s.clock()
	session := &domain.VerificationSession{
		ID:        callID,
		Phone:     phone,
		State:     domain.StateGreeting,
		CreatedAt: now,
	}

	t := newTurn(session)
	t.moveTo(domain.StateConsentPending)
	t.say(promptGreeting, domain.ActionSpeak, "")
	return s.commit(ctx, t)
}

// HandleUtterance feeds transcribed speech to the session.
func (s *VerificationService) HandleUtterance(ctx context.Context, callID, text string) (domain.Turn, error) {
	session, err := s.sessions.Get(ctx, callID)
	if err != nil {
		return domain.Turn{}, err
	}
	logger.Debug("Call %s in %s heard %q", callID, session.State, text)

	t := newTurn(session)
	switch session.State {
	case domain.StateGreeting:
		t.moveTo(domain.StateConsentPending)
		t.say(promptGreeting, domain.ActionSpeak, "")
	case domain.StateConsentPending:
		if err := s.handleConsent(ctx, t, text); err != nil {
			return domain.Turn{}, err
		}
	case domain.StateDeclined:
		s.handleDeclined(t, text)
	case domain.StateCallbackScheduled:
		t.say(promptCallbackPending, domain.ActionHangup, "")
	case domain.StateSMSPending:
		if isResendRequest(text) {
			if err := s.sendCode(ctx, t); err != nil {
				return domain.Turn{}, err
			}
			break
		}
		code, ok := DecodeSpokenDigits(text)
		if !ok {
			t.say(promptNoCode, domain.ActionWaitForSMSCode, "")
			t.result.Reason = "no code detected"
			break
		}
		if err := s.checkSMSCode(ctx, t, code); err != nil {
			return domain.Turn{}, err
		}
	case domain.StateSMSVerified:
		if IsSensitiveRequest(text) {
			s.requestTOTP(t, strings.TrimSpace(text))
			break
		}
		t.say(promptVerifiedHelp, domain.ActionSpeak, "")
	case domain.StateTOTPPending:
		code, ok := DecodeSpokenDigits(text)
		if !ok {
			t.say(promptNoCode, domain.ActionWaitForTOTP, "")
			t.result.Reason = "no code detected"
			break
		}
		s.checkTOTP(t, code)
	case domain.StateTOTPVerified:
		t.say(promptVerifiedHelp, domain.ActionSpeak, "")
	case domain.StateEnded:
		return domain.Turn{}, fmt.Errorf("%w: call %s has ended", domain.ErrInvalidTransition, callID)
	}

	return s.commit(ctx, t)
}

// HandleDigits feeds keypad input to the session. Digits are only accepted
// while a code is expected.
func (s *VerificationService) HandleDigits(ctx context.Context, callID, digits string) (domain.Turn, error) {
	session, err := s.sessions.Get(ctx, callID)
	if err != nil {
		return domain.Turn{}, err
	}

	t := newTurn(session)
	code := keypadDigits(digits)

	switch session.State {
	case domain.StateSMSPending:
		if len(code) != codeLength {
			t.say(promptNoCode, domain.ActionWaitForSMSCode, "")
			t.result.Reason = "no code detected"
			break
		}
		if err := s.checkSMSCode(ctx, t, code); err != nil {
			return domain.Turn{}, err
		}
	case domain.StateTOTPPending:
		if len(code) != codeLength {
			t.say(promptNoCode, domain.ActionWaitForTOTP, "")
			t.result.Reason = "no code detected"
			break
		}
		s.checkTOTP(t, code)
	default:
		t.result.Reason = "no code expected"
		return t.result, nil
	}

	return s.commit(ctx, t)
}

// HandleSensitiveRequest asks for information that needs TOTP.
func (s *VerificationService) HandleSensitiveRequest(ctx context.Context, callID, request string) (domain.Turn, error) {
	session, err := s.sessions.Get(ctx, callID)
	if err != nil {
		return domain.Turn{}, err
	}

	t := newTurn(session)
	switch session.State {
	case domain.StateSMSVerified:
		s.requestTOTP(t, strings.TrimSpace(request))
	case domain.StateTOTPPending:
		t.say(promptAskTOTP, domain.ActionWaitForTOTP, "")
	case domain.StateTOTPVerified:
		t.say(fmt.Sprintf(promptTOTPVerified, request), domain.ActionSpeak, "")
	default:
		t.say(promptNotVerified, domain.ActionSpeak, "")
		t.result.Reason = "not verified"
		return t.result, nil
	}

	return s.commit(ctx, t)
}

// EnrollTOTP stores the caller's TOTP secret on the session.
func (s *VerificationService) EnrollTOTP(ctx context.Context, callID, secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return fmt.Errorf("%w: totp secret is empty", domain.ErrInvalidInput)
	}
	session, err := s.sessions.Get(ctx, callID)
	if err != nil {
		return err
	}
	session.TOTPSecret = secret
	session.UpdatedAt = s.clock()
	if err := s.sessions.Set(ctx, session, s.settings.SessionTTL); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Hangup ends the call from any state and discards its session and code.
// Hanging up an unknown call still reports ENDED.
func (s *VerificationService) Hangup(ctx context.Context, callID string) (domain.Turn, error) {
	session, err := s.sessions.Get(ctx, callID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Turn{SessionID: callID, Previous: domain.StateEnded, State: domain.StateEnded,
			Action: domain.Action{Kind: domain.ActionHangup}}, nil
	}
	if err != nil {
		return domain.Turn{}, err
	}

	t := newTurn(session)
	t.moveTo(domain.StateEnded)
	t.say("", domain.ActionHangup, "")
	return s.commit(ctx, t)
}

// Session returns the current session.
func (s *VerificationService) Session(ctx context.Context, callID string) (*domain.VerificationSession, error) {
	return s.sessions.Get(ctx, callID)
}

func (s *VerificationService) handleConsent(ctx context.Context, t *turn, text string) error {
	switch ClassifyConsent(text) {
	case ConsentAffirmative:
		return s.sendCode(ctx, t)
	case ConsentNegative:
		t.moveTo(domain.StateDeclined)
		if when, ok := CallbackTime(text); ok {
			s.scheduleCallback(t, text, when)
			return nil
		}
		t.say(promptAskCallback, domain.ActionSpeak, "")
	default:
		t.say(promptConsentRetry, domain.ActionSpeak, "")
		t.result.Reason = "ambiguous reply"
	}
	return nil
}

func (s *VerificationService) handleDeclined(t *turn, text string) {
	if when, ok := CallbackTime(text); ok {
		s.scheduleCallback(t, text, when)
		return
	}
	if ClassifyConsent(text) == ConsentNegative {
		t.moveTo(domain.StateEnded)
		t.say(promptGoodbye, domain.ActionHangup, "")
		return
	}
	t.say(promptCallbackRetry, domain.ActionSpeak, "")
	t.result.Reason = "no callback time"
}

func (s *VerificationService) scheduleCallback(t *turn, text, when string) {
	t.session.CallbackText = strings.TrimSpace(text)
	t.moveTo(domain.StateCallbackScheduled)
	t.say(fmt.Sprintf(promptCallbackBooked, when), domain.ActionScheduleCallback, t.session.CallbackText)
}

// sendCode issues a fresh SMS code and waits for it. A delivery failure
// leaves the state unchanged.
func (s *VerificationService) sendCode(ctx context.Context, t *turn) error {
	record, err := s.otp.Issue(ctx, t.session.ID, t.session.Phone)
	if errors.Is(err, domain.ErrBackendUnavailable) {
		logger.Warn("Sending code for call %s failed: %v", t.session.ID, err)
		t.say(promptSMSUnavailable, domain.ActionSpeak, "")
		t.result.Reason = "sms unavailable"
		return nil
	}
	if err != nil {
		return err
	}

	expiry := record.ExpiresAt
	t.session.OTPExpiry = &expiry
	t.session.OTPAttempts = 0
	if t.session.State != domain.StateSMSPending {
		t.moveTo(domain.StateSMSPending)
	}
	t.say(promptCodeSent, domain.ActionWaitForSMSCode, "")
	return nil
}

func (s *VerificationService) checkSMSCode(ctx context.Context, t *turn, code string) error {
	res, err := s.otp.Verify(ctx, t.session.ID, code)
	if err != nil {
		return err
	}
	t.result.Reason = string(res.Reason)

	switch res.Reason {
	case domain.OTPReasonOK:
		now := s.clock()
		t.session.VerifiedAt = &now
		t.session.OTPExpiry = nil
		t.moveTo(domain.StateSMSVerified)
		t.say(promptSMSVerified, domain.ActionSpeak, "")
	case domain.OTPReasonInvalidCode:
		t.session.OTPAttempts++
		t.say(fmt.Sprintf(promptCodeMismatch, res.RemainingAttempts), domain.ActionWaitForSMSCode, "")
	case domain.OTPReasonTooManyAttempts:
		t.session.OTPAttempts = s.settings.OTPMaxAttempts
		t.say(promptCodeLocked, domain.ActionSpeak, "")
	case domain.OTPReasonExpired:
		t.say(promptCodeExpired, domain.ActionSpeak, "")
	case domain.OTPReasonConsumed:
		t.say(promptCodeUsed, domain.ActionSpeak, "")
	default:
		t.say(promptNoCode, domain.ActionWaitForSMSCode, "")
	}
	return nil
}

func (s *VerificationService) requestTOTP(t *turn, request string) {
	t.session.PendingRequest = request
	t.session.TOTPAttempts = 0
	t.moveTo(domain.StateTOTPPending)
	t.say(promptAskTOTP, domain.ActionWaitForTOTP, "")
}

// checkTOTP verifies an authenticator code. Once attempts are exhausted
// every further code gets the hard failure message and the state stays put.
func (s *VerificationService) checkTOTP(t *turn, code string) {
	if t.session.TOTPAttempts >= s.settings.TOTPMaxAttempts {
		t.say(promptTOTPFailed, domain.ActionSpeak, "")
		t.result.Reason = string(domain.OTPReasonTooManyAttempts)
		return
	}

	if s.totp != nil && s.totp.Verify(t.session.TOTPSecret, code, s.clock()) {
		now := s.clock()
		t.session.VerifiedAt = &now
		t.moveTo(domain.StateTOTPVerified)
		t.say(fmt.Sprintf(promptTOTPVerified, t.session.PendingRequest), domain.ActionSpeak, "")
		t.result.Reason = string(domain.OTPReasonOK)
		return
	}

	t.session.TOTPAttempts++
	remaining := s.settings.TOTPMaxAttempts - t.session.TOTPAttempts
	if remaining <= 0 {
		t.say(promptTOTPFailed, domain.ActionSpeak, "")
		t.result.Reason = string(domain.OTPReasonTooManyAttempts)
		return
	}
	t.say(fmt.Sprintf(promptTOTPMismatch, remaining), domain.ActionWaitForTOTP, "")
	t.result.Reason = string(domain.OTPReasonInvalidCode)
}

// commit persists the session, or discards it once the call has ended,
// and records transitions.
func (s *VerificationService) commit(ctx context.Context, t *turn) (domain.Turn, error) {
	session := t.session
	session.UpdatedAt = s.clock()

	if session.State == domain.StateEnded {
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			return domain.Turn{}, fmt.Errorf("deleting session: %w", err)
		}
		if err := s.otp.Discard(ctx, session.ID); err != nil {
			logger.Warn("Discarding code for call %s: %v", session.ID, err)
		}
	} else if err := s.sessions.Set(ctx, session, s.settings.SessionTTL); err != nil {
		return domain.Turn{}, fmt.Errorf("saving session: %w", err)
	}

	from := t.result.Previous
	for _, to := range t.result.Path {
		logger.Debug("Call %s: %s -> %s", session.ID, from, to)
		if s.metrics != nil {
			s.metrics.ObserveTransition(from, to)
		}
		from = to
	}
	return t.result, nil
}
