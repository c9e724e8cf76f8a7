// Package transcript provides an optional request journal for completion
// calls. Each finished call produces one entry describing its outcome:
// provider, model, status, attempt count, duration, token count, and the
// error classification when the call failed.
//
// The journal records outcome metadata only. Prompt and response text is
// never stored, in any backend.
//
// # Architecture
//
// The journal consists of three layers:
//
//  1. Recorder - builds entries from call outcomes and writes them
//     asynchronously so completion calls never block on storage
//  2. Storage backend - persists entries (SQLite or in-memory)
//  3. Retention - prunes old entries on a cron schedule
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:   "data/transcript.db",
//	    Driver: "sqlite",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	rec := recorder.NewRecorder(store, &recorder.Config{
//	    Enabled:     true,
//	    AsyncBuffer: 256,
//	})
//	defer rec.Close()
//
//	// After each completion call (async, non-blocking):
//	rec.Record(ctx, recorder.Call{
//	    RequestID: result.RequestID,
//	    Provider:  "openai",
//	    Model:     "gpt-4o-mini",
//	    Start:     start,
//	    Duration:  time.Since(start),
//	    Attempts:  2,
//	    Result:    result,
//	})
//
// # Querying
//
//	entries, err := store.Query(ctx, &transcript.Query{
//	    Provider: "deepseek",
//	    Status:   transcript.StatusError,
//	    Limit:    50,
//	})
//
// Queries filter by time range, request id, provider, model, status, error
// kind, and token thresholds, with sorting and pagination. QueryStream
// delivers entries over a channel for large result sets.
//
// # Retention
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    Days:          30,
//	    PruneSchedule: "0 3 * * *",
//	})
//	pruner.Start(ctx)
//	defer pruner.Stop()
//
// # Thread Safety
//
// The recorder and both storage backends are safe for concurrent use.
package transcript
