package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"scribe-hq/vellum/pkg/providers"
	"scribe-hq/vellum/pkg/transcript"
)

// Config contains configuration for the journal recorder.
type Config struct {
	// Enabled enables journal recording.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 256
	AsyncBuffer int

	// WriteTimeout is the timeout for writing an entry to storage. It also
	// bounds how long Record blocks when the buffer is full.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  256,
		WriteTimeout: 5 * time.Second,
	}
}

// Call describes one finished completion call for journaling. The router
// fills it from the request it dispatched and the outcome it observed.
type Call struct {
	// RequestID is the client-assigned call identifier.
	RequestID string

	// Provider is the backend the call was routed to.
	Provider string

	// Model is the requested model identifier.
	Model string

	// Streaming records whether the call used the streaming surface.
	Streaming bool

	// Start is when the call began.
	Start time.Time

	// Duration is the wall-clock duration across all attempts.
	Duration time.Duration

	// Attempts is the number of HTTP attempts made, retries included.
	Attempts int

	// Result is the call outcome. Nil when the call failed before
	// producing one; non-nil with Err set for aborted streams.
	Result *providers.CompletionResult

	// Err is the call error, nil on success.
	Err error
}

// Recorder builds journal entries from call outcomes and writes them to
// storage asynchronously, so completion calls never block on the journal.
type Recorder struct {
	storage   transcript.Storage
	config    *Config
	entryChan chan *transcript.Entry
	wg        sync.WaitGroup
	done      chan struct{}
	logger    *slog.Logger
}

// NewRecorder creates a new journal recorder with the provided storage
// backend and configuration, and starts its background writer.
func NewRecorder(storage transcript.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}

	r := &Recorder{
		storage:   storage,
		config:    config,
		entryChan: make(chan *transcript.Entry, config.AsyncBuffer),
		done:      make(chan struct{}),
		logger:    slog.Default().With("component", "transcript.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Debug("transcript recorder initialized",
		"enabled", config.Enabled,
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record builds a journal entry from the call outcome and enqueues it for
// async writing. It returns immediately while the buffer has room; with a
// full buffer it blocks up to WriteTimeout, then drops the entry.
func (r *Recorder) Record(ctx context.Context, call Call) error {
	if !r.config.Enabled {
		return nil
	}

	entry := newEntry(call)

	// Checked first: a closed recorder still has buffer capacity, and the
	// combined select below would otherwise accept entries nobody drains.
	select {
	case <-r.done:
		return transcript.NewRecorderError(entry.ID, context.Canceled)
	default:
	}

	select {
	case r.entryChan <- entry:
		r.logger.Debug("journal entry enqueued",
			"entry_id", entry.ID,
			"request_id", entry.RequestID,
			"status", entry.Status,
		)
	case <-time.After(r.config.WriteTimeout):
		r.logger.Error("journal channel full, dropping entry",
			"entry_id", entry.ID,
			"request_id", entry.RequestID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return transcript.NewRecorderError(entry.ID, context.DeadlineExceeded)
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping entry",
			"entry_id", entry.ID,
			"request_id", entry.RequestID,
		)
		return transcript.NewRecorderError(entry.ID, context.Canceled)
	}

	return nil
}

// Close gracefully shuts down the recorder by draining the async channel
// and waiting for pending writes to complete.
func (r *Recorder) Close() error {
	close(r.done)
	r.wg.Wait()

	r.logger.Debug("transcript recorder shut down")
	return nil
}

// worker drains the entry channel and writes entries to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case entry := <-r.entryChan:
			r.writeEntry(entry)

		case <-r.done:
			// Drain remaining entries before exit
			for {
				select {
				case entry := <-r.entryChan:
					r.writeEntry(entry)
				default:
					return
				}
			}
		}
	}
}

// writeEntry writes a single journal entry to storage.
func (r *Recorder) writeEntry(entry *transcript.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.storage.Store(ctx, entry); err != nil {
		r.logger.Error("failed to store journal entry",
			"entry_id", entry.ID,
			"request_id", entry.RequestID,
			"error", err,
		)
		return
	}

	elapsed := time.Since(start)

	r.logger.Debug("journal entry recorded",
		"entry_id", entry.ID,
		"request_id", entry.RequestID,
		"status", entry.Status,
		"write_ms", elapsed.Milliseconds(),
	)

	if elapsed > r.config.WriteTimeout/2 {
		r.logger.Warn("slow journal write",
			"entry_id", entry.ID,
			"write_ms", elapsed.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}

// newEntry builds a journal entry from a call outcome. Only outcome
// metadata is captured; prompt and response text never enter the entry.
func newEntry(call Call) *transcript.Entry {
	entry := &transcript.Entry{
		ID:           uuid.New().String(),
		RequestID:    call.RequestID,
		StartTime:    call.Start,
		RecordedTime: time.Now(),
		Provider:     call.Provider,
		Model:        call.Model,
		Streaming:    call.Streaming,
		Status:       transcript.StatusOK,
		Attempts:     call.Attempts,
		Duration:     call.Duration,
	}

	if call.Result != nil {
		entry.TotalTokens = call.Result.TotalTokens
		entry.FinishReason = call.Result.FinishReason
	}

	if call.Err != nil {
		entry.Status = transcript.StatusError
		if call.Streaming && call.Result != nil {
			// Partial stream output was returned alongside the error
			entry.Status = transcript.StatusAborted
		}
		entry.ErrorKind = errorKind(call.Err)
	}

	return entry
}

// errorKind extracts the classification label from a call error.
func errorKind(err error) string {
	var apiErr *providers.APIError
	if errors.As(err, &apiErr) {
		return string(apiErr.Kind)
	}
	return string(providers.KindUnknown)
}
