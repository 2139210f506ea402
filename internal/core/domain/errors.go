package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown content type or provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector search returns no candidates without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrBackendUnavailable indicates a persistence or embedding backend
	// is missing or misconfigured.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrCorruptCache indicates cached embeddings failed validation,
	// for example vectors of mixed dimensionality.
	ErrCorruptCache = errors.New("corrupt embedding cache")

	// Verification Errors.

	// ErrSessionNotFound indicates no verification session exists for a call.
	ErrSessionNotFound = errors.New("verification session not found")

	// ErrInvalidTransition indicates an event that the current state cannot accept.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrExpiredCredential indicates an OTP or TOTP past its validity window.
	ErrExpiredCredential = errors.New("credential expired")

	// ErrAttemptsExhausted indicates too many failed verification attempts.
	ErrAttemptsExhausted = errors.New("too many attempts")
)
