// Package storage provides storage backends for journal entries.
//
// # Backends
//
//   - SQLite: durable single-file storage with WAL mode and indexes on
//     frequently queried fields
//   - Memory: in-memory storage for the default configuration and tests
//
// The SQLite backend supports two drivers selected by configuration:
// "sqlite" (modernc.org/sqlite, pure Go) and "sqlite3" (mattn/go-sqlite3,
// cgo). The pure-Go driver is the default so the journal works in
// CGO_ENABLED=0 builds.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:        "data/transcript.db",
//	    Driver:      "sqlite",
//	    WALMode:     true,
//	    BusyTimeout: 5 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.Store(ctx, entry)
//
//	entries, err := store.Query(ctx, &transcript.Query{
//	    Provider: "openai",
//	    Status:   transcript.StatusError,
//	    Limit:    100,
//	})
//
// # Thread Safety
//
// Both backends are safe for concurrent use. With WAL mode enabled, the
// SQLite backend serves reads concurrently with writes.
//
// # Schema
//
// The SQLite backend initializes its schema on first open and records a
// schema version in the schema_version table for future migrations.
// Timestamps are stored as Unix milliseconds so the two drivers round-trip
// them identically.
package storage
