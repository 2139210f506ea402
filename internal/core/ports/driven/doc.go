// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - IntentStore: Persists the normalised intent set
//   - DocumentStore: Document and chunk persistence
//   - SessionStore: Verification sessions with expiry
//   - OTPStore: Issued SMS codes
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vectors. Without it, vector search returns nothing.
//   - EmbeddingCacheStore: Persists intent vectors. Without it, vectors are regenerated on start.
//   - IntentSource: Authored intent collections. Without it, the stored set is used as-is.
//   - SMSSender: Delivers codes. Without it, codes are issued but not sent.
//   - Metrics: Outcome counters.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
