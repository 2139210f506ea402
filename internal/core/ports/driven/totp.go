package driven

import "time"

// TOTPVerifier checks time-based one-time passwords.
type TOTPVerifier interface {
	// Verify reports whether code is valid for secret at time t.
	// A missing secret or code is never valid.
	Verify(secret, code string, t time.Time) bool

	// GenerateSecret creates a new base32 secret and its otpauth URL.
	GenerateSecret(account string) (secret, url string, err error)
}
