package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the transcript schema.
//
// Timestamps are stored as Unix milliseconds so both SQL drivers compare
// and round-trip them identically; TIMESTAMP affinity is driver-dependent.
const Schema = `
-- Journal entries table. Outcome metadata only; no prompt or response text.
CREATE TABLE IF NOT EXISTS transcript (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,

    start_time INTEGER NOT NULL,
    recorded_time INTEGER NOT NULL,

    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    streaming INTEGER NOT NULL,

    status TEXT NOT NULL,
    attempts INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,

    total_tokens INTEGER NOT NULL,
    finish_reason TEXT,
    error_kind TEXT
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_transcript_start_time ON transcript(start_time);
CREATE INDEX IF NOT EXISTS idx_transcript_request_id ON transcript(request_id);
CREATE INDEX IF NOT EXISTS idx_transcript_provider ON transcript(provider);
CREATE INDEX IF NOT EXISTS idx_transcript_model ON transcript(model);
CREATE INDEX IF NOT EXISTS idx_transcript_status ON transcript(status);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
