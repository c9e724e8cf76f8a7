package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // driver "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // driver "sqlite" (pure Go)

	"scribe-hq/vellum/pkg/transcript"
)

// Driver names accepted by SQLiteConfig.Driver.
const (
	// DriverModernc is the pure-Go driver, usable without cgo.
	DriverModernc = "sqlite"

	// DriverMattn is the cgo driver. Builds everywhere but returns a
	// runtime error when the binary was compiled with CGO_ENABLED=0.
	DriverMattn = "sqlite3"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path. Parent directories are created.
	Path string

	// Driver selects the SQL driver: "sqlite" (pure Go, default) or
	// "sqlite3" (cgo).
	Driver string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 2
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/transcript.db",
		Driver:       DriverModernc,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend. It creates the
// database file (and parent directories), initializes the schema, and
// enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "transcript.storage.sqlite")

	driver, err := driverName(config.Driver)
	if err != nil {
		return nil, transcript.NewStorageError("sqlite", "open", err)
	}

	if dir := filepath.Dir(config.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, transcript.NewStorageError("sqlite", "mkdir", err)
		}
	}

	db, err := sql.Open(driver, config.Path)
	if err != nil {
		return nil, transcript.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("transcript storage initialized",
		"path", config.Path,
		"driver", driver,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// driverName maps the configured driver option onto a registered driver.
func driverName(name string) (string, error) {
	switch name {
	case "", DriverModernc:
		return DriverModernc, nil
	case DriverMattn:
		return DriverMattn, nil
	}
	return "", fmt.Errorf("unknown sqlite driver %q (valid: %q, %q)", name, DriverModernc, DriverMattn)
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return transcript.NewStorageError("sqlite", "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if busyTimeoutMs > 0 {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
			return transcript.NewStorageError("sqlite", "set_busy_timeout", err)
		}
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return transcript.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return transcript.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return transcript.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return transcript.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	s.logger.Debug("schema version verified", "version", version)

	return nil
}

// Store persists a journal entry to the database.
func (s *SQLiteStorage) Store(ctx context.Context, entry *transcript.Entry) error {
	query := `
		INSERT INTO transcript (
			id, request_id,
			start_time, recorded_time,
			provider, model, streaming,
			status, attempts, duration_ms,
			total_tokens, finish_reason, error_kind
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.RequestID,
		entry.StartTime.UnixMilli(), entry.RecordedTime.UnixMilli(),
		entry.Provider, entry.Model, entry.Streaming,
		entry.Status, entry.Attempts, entry.Duration.Milliseconds(),
		entry.TotalTokens, nullable(entry.FinishReason), nullable(entry.ErrorKind),
	)
	if err != nil {
		return transcript.NewStorageError("sqlite", "store", err)
	}

	return nil
}

// nullable converts an empty string to NULL for optional text columns.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// Query retrieves journal entries matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, query *transcript.Query) ([]*transcript.Entry, error) {
	sqlQuery, args := s.buildSelect(query)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, transcript.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	entries := []*transcript.Entry{}
	for rows.Next() {
		entry, err := scanRow(rows)
		if err != nil {
			return nil, transcript.NewStorageError("sqlite", "scan", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, transcript.NewStorageError("sqlite", "query", err)
	}

	return entries, nil
}

// QueryStream returns a channel of journal entries for memory-efficient
// iteration. The channels are closed when the query completes or errors.
func (s *SQLiteStorage) QueryStream(ctx context.Context, query *transcript.Query) (<-chan *transcript.Entry, <-chan error, error) {
	entriesCh := make(chan *transcript.Entry, 100)
	errCh := make(chan error, 1)

	sqlQuery, args := s.buildSelect(query)

	go func() {
		defer close(entriesCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- transcript.NewStorageError("sqlite", "query_stream", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			entry, err := scanRow(rows)
			if err != nil {
				errCh <- transcript.NewStorageError("sqlite", "scan", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case entriesCh <- entry:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- transcript.NewStorageError("sqlite", "query_stream", err)
		}
	}()

	return entriesCh, errCh, nil
}

// Count returns the number of journal entries matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *transcript.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM transcript"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, transcript.NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// Delete removes journal entries matching the query filters.
// Returns the number of entries deleted.
func (s *SQLiteStorage) Delete(ctx context.Context, query *transcript.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM transcript"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, transcript.NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, transcript.NewStorageError("sqlite", "delete", err)
	}

	return count, nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return transcript.NewStorageError("sqlite", "close", err)
	}

	s.logger.Info("transcript storage closed")
	return nil
}

// buildSelect builds the full SELECT statement for a query, including
// sorting and pagination.
func (s *SQLiteStorage) buildSelect(query *transcript.Query) (string, []any) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT * FROM transcript"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	sqlQuery += " ORDER BY " + sortColumn(query.SortBy) + " " + sortDirection(query.SortOrder)

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)

	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	return sqlQuery, args
}

// sortColumn maps a query sort field onto a column name. Sort fields are
// interpolated into SQL, so unknown values must not pass through.
func sortColumn(sortBy string) string {
	switch sortBy {
	case "recorded_time":
		return "recorded_time"
	case "total_tokens":
		return "total_tokens"
	case "duration":
		return "duration_ms"
	default:
		return "start_time"
	}
}

// sortDirection maps a query sort order onto a SQL direction keyword.
func sortDirection(sortOrder string) string {
	if sortOrder == "asc" {
		return "ASC"
	}
	return "DESC"
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the clause (without the "WHERE" keyword) and its arguments.
func buildWhereClause(query *transcript.Query) (string, []any) {
	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, query.StartTime.UnixMilli())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "start_time <= ?")
		args = append(args, query.EndTime.UnixMilli())
	}

	if query.RequestID != "" {
		conditions = append(conditions, "request_id = ?")
		args = append(args, query.RequestID)
	}
	if query.Provider != "" {
		conditions = append(conditions, "provider = ?")
		args = append(args, query.Provider)
	}
	if query.Model != "" {
		conditions = append(conditions, "model = ?")
		args = append(args, query.Model)
	}
	if query.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, query.Status)
	}
	if query.ErrorKind != "" {
		conditions = append(conditions, "error_kind = ?")
		args = append(args, query.ErrorKind)
	}

	if query.MinTokens != nil {
		conditions = append(conditions, "total_tokens >= ?")
		args = append(args, *query.MinTokens)
	}
	if query.MaxTokens != nil {
		conditions = append(conditions, "total_tokens <= ?")
		args = append(args, *query.MaxTokens)
	}

	whereClause := ""
	for i, condition := range conditions {
		if i > 0 {
			whereClause += " AND "
		}
		whereClause += condition
	}

	return whereClause, args
}

// scanRow scans a database row into an Entry.
func scanRow(rows *sql.Rows) (*transcript.Entry, error) {
	var entry transcript.Entry
	var startMs, recordedMs, durationMs int64
	var finishReason, errorKind sql.NullString

	err := rows.Scan(
		&entry.ID, &entry.RequestID,
		&startMs, &recordedMs,
		&entry.Provider, &entry.Model, &entry.Streaming,
		&entry.Status, &entry.Attempts, &durationMs,
		&entry.TotalTokens, &finishReason, &errorKind,
	)
	if err != nil {
		return nil, err
	}

	entry.StartTime = time.UnixMilli(startMs).UTC()
	entry.RecordedTime = time.UnixMilli(recordedMs).UTC()
	entry.Duration = time.Duration(durationMs) * time.Millisecond
	entry.FinishReason = finishReason.String
	entry.ErrorKind = errorKind.String

	return &entry, nil
}
