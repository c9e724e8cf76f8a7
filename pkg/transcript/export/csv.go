package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"scribe-hq/vellum/pkg/transcript"
)

// CSVExporter exports journal entries to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes journal entries to the provided writer in CSV format.
func (e *CSVExporter) Export(ctx context.Context, entries []*transcript.Entry, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return transcript.NewExportError("csv", len(entries), err)
		}
	}

	for _, entry := range entries {
		if err := writer.Write(entryToRow(entry)); err != nil {
			return transcript.NewExportError("csv", len(entries), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return transcript.NewExportError("csv", len(entries), err)
	}

	return nil
}

// ExportStream exports journal entries from a channel in CSV format,
// flushing periodically so long exports show progress.
func (e *CSVExporter) ExportStream(ctx context.Context, entriesCh <-chan *transcript.Entry, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return transcript.NewExportError("csv", 0, err)
		}
	}

	entryCount := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case entry, ok := <-entriesCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return transcript.NewExportError("csv", entryCount, err)
				}
				return nil
			}

			if err := writer.Write(entryToRow(entry)); err != nil {
				return transcript.NewExportError("csv", entryCount, err)
			}

			entryCount++
			if entryCount%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return transcript.NewExportError("csv", entryCount, err)
				}
			}
		}
	}
}

// headerRow returns the CSV header row.
func headerRow() []string {
	return []string{
		"id", "request_id",
		"start_time", "recorded_time",
		"provider", "model", "streaming",
		"status", "attempts", "duration_ms",
		"total_tokens", "finish_reason", "error_kind",
	}
}

// entryToRow converts a journal entry to a CSV row.
func entryToRow(entry *transcript.Entry) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	return []string{
		entry.ID,
		entry.RequestID,
		formatTime(entry.StartTime),
		formatTime(entry.RecordedTime),
		entry.Provider,
		entry.Model,
		strconv.FormatBool(entry.Streaming),
		entry.Status,
		strconv.Itoa(entry.Attempts),
		strconv.FormatInt(entry.Duration.Milliseconds(), 10),
		strconv.Itoa(entry.TotalTokens),
		entry.FinishReason,
		entry.ErrorKind,
	}
}
