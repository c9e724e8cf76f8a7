package transcript

import (
	"context"
	"io"
	"time"
)

// Entry statuses.
const (
	// StatusOK marks a call that completed normally.
	StatusOK = "ok"

	// StatusError marks a call that failed without producing a result.
	StatusError = "error"

	// StatusAborted marks a streaming call that stopped early with partial
	// output (cancellation or a mid-stream failure).
	StatusAborted = "aborted"
)

// Entry is one journal record describing the outcome of a completion call.
//
// Entries carry outcome metadata only. Prompt and response text is never
// stored; the journal exists for diagnostics, not content capture.
type Entry struct {
	// ID uniquely identifies this entry (UUID).
	ID string `json:"id"`

	// RequestID is the client-assigned call identifier, shared with log
	// lines and trace spans for the same call.
	RequestID string `json:"request_id"`

	// StartTime is when the call began.
	StartTime time.Time `json:"start_time"`

	// RecordedTime is when the entry was built for writing.
	RecordedTime time.Time `json:"recorded_time"`

	// Provider is the backend that served (or was asked to serve) the call.
	Provider string `json:"provider"`

	// Model is the requested model identifier.
	Model string `json:"model"`

	// Streaming records whether the call used the streaming surface.
	Streaming bool `json:"streaming"`

	// Status is one of StatusOK, StatusError, StatusAborted.
	Status string `json:"status"`

	// Attempts is the number of HTTP attempts made, retries included.
	Attempts int `json:"attempts"`

	// Duration is the wall-clock duration of the call across all attempts.
	Duration time.Duration `json:"duration"`

	// TotalTokens is the provider-reported token count (0 when unknown;
	// aborted streams never see a usage frame).
	TotalTokens int `json:"total_tokens"`

	// FinishReason is why generation stopped (empty on failure or abort).
	FinishReason string `json:"finish_reason,omitempty"`

	// ErrorKind is the error classification label when Status is not ok
	// (auth, rate_limit, server, timeout, network, content_policy, unknown).
	ErrorKind string `json:"error_kind,omitempty"`
}

// Query describes filters for retrieving journal entries.
// Zero-valued fields are ignored; pointer fields are nil when unset.
type Query struct {
	// StartTime filters entries whose call began at or after this time.
	StartTime *time.Time

	// EndTime filters entries whose call began at or before this time.
	EndTime *time.Time

	// RequestID filters by exact request identifier.
	RequestID string

	// Provider filters by backend name.
	Provider string

	// Model filters by model identifier.
	Model string

	// Status filters by entry status (ok, error, aborted).
	Status string

	// ErrorKind filters by error classification label.
	ErrorKind string

	// MinTokens filters entries with at least this many total tokens.
	MinTokens *int

	// MaxTokens filters entries with at most this many total tokens.
	MaxTokens *int

	// Limit is the maximum number of entries to return (0 = backend default).
	Limit int

	// Offset skips this many entries for pagination.
	Offset int

	// SortBy is the sort field: start_time, recorded_time, total_tokens,
	// or duration. Empty sorts by start_time.
	SortBy string

	// SortOrder is "asc" or "desc". Empty sorts descending (newest first).
	SortOrder string
}

// Storage is the persistence interface for journal entries.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a single entry.
	Store(ctx context.Context, entry *Entry) error

	// Query retrieves entries matching the query filters.
	Query(ctx context.Context, query *Query) ([]*Entry, error)

	// QueryStream returns a channel of entries for memory-efficient
	// iteration over large result sets. Both channels are closed when the
	// query completes or fails.
	QueryStream(ctx context.Context, query *Query) (<-chan *Entry, <-chan error, error)

	// Count returns the number of entries matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes entries matching the query filters and returns the
	// number removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}

// Exporter writes journal entries to an output stream in some format.
type Exporter interface {
	// Export writes the entries to w.
	Export(ctx context.Context, entries []*Entry, w io.Writer) error
}
