// Package sqlite provides a durable SQLite-backed vector collection store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. Collections and chunk
// vectors live in a single database file; vectors are stored as little-endian
// float32 blobs and scored in process with a brute-force scan, which is
// entirely adequate at rulebook scale.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.lorebook/data/vectors.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
