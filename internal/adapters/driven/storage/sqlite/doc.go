// Package sqlite provides a SQLite-backed implementation of the driven
// storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A single database serves:
//
//   - DocumentStore: knowledge documents and their chunks
//   - IntentStore: the normalised intent set
//   - EmbeddingCacheStore: intent vectors keyed by corpus hash and model
//   - SessionStore and OTPStore: verification state that survives restarts
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.siteassist/data/siteassist.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
