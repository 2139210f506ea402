package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/logger"
)

// OTPService issues and checks single-use SMS codes.
type OTPService struct {
	store       driven.OTPStore
	sender      driven.SMSSender
	metrics     driven.Metrics
	length      int
	ttl         time.Duration
	maxAttempts int
	clock       func() time.Time
	random      io.Reader
}

// OTPOption configures an OTPService.
type OTPOption func(*OTPService)

// WithOTPClock overrides the time source.
func WithOTPClock(clock func() time.Time) OTPOption {
	return func(s *OTPService) { s.clock = clock }
}

// WithOTPRandom overrides the randomness source.
func WithOTPRandom(r io.Reader) OTPOption {
	return func(s *OTPService) { s.random = r }
}

// WithOTPMetrics records check outcomes.
func WithOTPMetrics(m driven.Metrics) OTPOption {
	return func(s *OTPService) { s.metrics = m }
}

// NewOTPService creates an OTP service. sender may be nil, in which case
// codes are stored but not delivered.
func NewOTPService(
	store driven.OTPStore,
	sender driven.SMSSender,
	settings domain.VerificationSettings,
	opts ...OTPOption,
) *OTPService {
	s := &OTPService{
		store:       store,
		sender:      sender,
		length:      settings.OTPLength,
		ttl:         settings.OTPTTL,
		maxAttempts: settings.OTPMaxAttempts,
		clock:       time.Now,
		random:      rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue generates a new code for key, replacing any previous one, and
// texts it to phone. Expired records stay in the store until replaced or
// evicted by the store's own retention.
func (s *OTPService) Issue(ctx context.Context, key, phone string) (*domain.OTPRecord, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: otp key is empty", domain.ErrInvalidInput)
	}

	code, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("generating code: %w", err)
	}

	now := s.clock()
	record := &domain.OTPRecord{
		Key:       key,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("saving code: %w", err)
	}

	if s.sender == nil || phone == "" {
		logger.Warn("No SMS delivery for %s, code stored only", key)
		return record, nil
	}
	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.ttl.Minutes()))
	if err := s.sender.SendSMS(ctx, phone, body); err != nil {
		return nil, fmt.Errorf("%w: sending code: %v", domain.ErrBackendUnavailable, err)
	}
	logger.Debug("Issued code for %s, expires %s", key, record.ExpiresAt.Format(time.RFC3339))
	return record, nil
}

// generate returns a uniformly random numeric code.
func (s *OTPService) generate() (string, error) {
	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(s.length)), nil)
	n, err := rand.Int(s.random, upper)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", s.length, n), nil
}

// Verify checks code against the active record for key. Outcomes are
// reported in the result; errors mean the store failed.
//
// Checks run in order: malformed input, no record, expired, already used,
// attempts exhausted, then the comparison itself. A wrong code uses up an
// attempt; malformed input does not.
func (s *OTPService) Verify(ctx context.Context, key, code string) (domain.OTPResult, error) {
	res, err := s.verify(ctx, key, code)
	if err == nil && s.metrics != nil {
		s.metrics.ObserveOTPCheck(res.Reason)
	}
	return res, err
}

func (s *OTPService) verify(ctx context.Context, key, code string) (domain.OTPResult, error) {
	if len(code) != s.length || !isDigits(code) {
		return domain.OTPResult{Reason: domain.OTPReasonMalformed}, nil
	}

	record, err := s.store.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.OTPResult{Reason: domain.OTPReasonNotIssued}, nil
	}
	if err != nil {
		return domain.OTPResult{}, fmt.Errorf("getting code: %w", err)
	}

	remaining := s.maxAttempts - record.Attempts
	switch {
	case !s.clock().Before(record.ExpiresAt):
		return domain.OTPResult{Reason: domain.OTPReasonExpired}, nil
	case record.Consumed:
		return domain.OTPResult{Reason: domain.OTPReasonConsumed}, nil
	case remaining <= 0:
		return domain.OTPResult{Reason: domain.OTPReasonTooManyAttempts}, nil
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(record.Code)) == 1 {
		record.Consumed = true
		if err := s.store.Save(ctx, record); err != nil {
			return domain.OTPResult{}, fmt.Errorf("consuming code: %w", err)
		}
		return domain.OTPResult{Valid: true, Reason: domain.OTPReasonOK, RemainingAttempts: remaining}, nil
	}

	record.Attempts++
	remaining--
	if err := s.store.Save(ctx, record); err != nil {
		return domain.OTPResult{}, fmt.Errorf("recording attempt: %w", err)
	}
	if remaining <= 0 {
		return domain.OTPResult{Reason: domain.OTPReasonTooManyAttempts}, nil
	}
	return domain.OTPResult{Reason: domain.OTPReasonInvalidCode, RemainingAttempts: remaining}, nil
}

// Discard removes any code issued for key.
func (s *OTPService) Discard(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("discarding code: %w", err)
	}
	return nil
}
