// Package domain defines the core business entities for siteassist.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Intent: a canned question/topic with trigger keywords and responses
//   - Document and Chunk: ingested knowledge and its retrieval units
//   - EmbeddingCache: intent vectors keyed by corpus hash and model
//   - Resolution: the single answer produced for a query
//   - VerificationSession, OTPRecord, Turn: caller verification state
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
