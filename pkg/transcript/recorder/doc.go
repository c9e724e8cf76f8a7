// Package recorder builds journal entries from completion call outcomes
// and writes them to storage asynchronously.
//
// The recorder owns a buffered channel and a single background writer.
// Record returns as soon as the entry is enqueued; a full buffer blocks
// the caller for at most WriteTimeout before the entry is dropped with an
// error. Close drains the channel so no accepted entry is lost on
// shutdown.
//
// Entries capture outcome metadata only: identifiers, provider, model,
// status, attempt count, duration, token count, and the error
// classification. Prompt and response text never enter an entry.
//
//	rec := recorder.NewRecorder(store, &recorder.Config{
//	    Enabled:     true,
//	    AsyncBuffer: 256,
//	})
//	defer rec.Close()
//
//	rec.Record(ctx, recorder.Call{
//	    RequestID: result.RequestID,
//	    Provider:  "openai",
//	    Model:     "gpt-4o-mini",
//	    Start:     start,
//	    Duration:  time.Since(start),
//	    Attempts:  1,
//	    Result:    result,
//	})
package recorder
