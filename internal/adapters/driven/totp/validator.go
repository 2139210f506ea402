// Package totp provides the RFC 6238 authenticator check used after SMS
// verification, backed by github.com/pquerna/otp.
package totp

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/logger"
)

// Ensure Validator implements the interface.
var _ driven.TOTPVerifier = (*Validator)(nil)

// Validator checks 6-digit SHA-1 codes.
type Validator struct {
	issuer string
	period uint
	skew   uint
}

// NewValidator creates a validator from verification settings. A zero
// period falls back to domain.DefaultTOTPPeriod; the skew is used as given.
func NewValidator(settings domain.VerificationSettings) *Validator {
	period := settings.TOTPPeriod
	if period <= 0 {
		period = domain.DefaultTOTPPeriod
	}
	issuer := settings.TOTPIssuer
	if issuer == "" {
		issuer = domain.DefaultTOTPIssuer
	}
	return &Validator{
		issuer: issuer,
		period: uint(period / time.Second),
		skew:   settings.TOTPSkew,
	}
}

func (v *Validator) opts() pqtotp.ValidateOpts {
	return pqtotp.ValidateOpts{
		Period:    v.period,
		Skew:      v.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Verify reports whether code is valid for secret at time t, allowing
// the configured number of steps of drift either side.
func (v *Validator) Verify(secret, code string, t time.Time) bool {
	secret = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(secret), " ", ""))
	code = strings.TrimSpace(code)
	if secret == "" || code == "" {
		return false
	}

	ok, err := pqtotp.ValidateCustom(code, secret, t, v.opts())
	if err != nil {
		logger.Debug("totp check rejected: %v", err)
		return false
	}
	return ok
}

// GenerateSecret creates a new base32 secret and its otpauth URL for
// enrolling an authenticator app.
func (v *Validator) GenerateSecret(account string) (secret, url string, err error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", "", fmt.Errorf("%w: account name is required", domain.ErrInvalidInput)
	}

	key, err := pqtotp.Generate(pqtotp.GenerateOpts{
		Issuer:      v.issuer,
		AccountName: account,
		Period:      v.period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", fmt.Errorf("generating totp secret: %w", err)
	}
	return key.Secret(), key.URL(), nil
}

// Code returns the code for secret at time t. Used by the verification
// simulator to play the caller's authenticator.
func (v *Validator) Code(secret string, t time.Time) (string, error) {
	code, err := pqtotp.GenerateCodeCustom(secret, t, v.opts())
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return code, nil
}
