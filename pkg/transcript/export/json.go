package export

import (
	"context"
	"encoding/json"
	"io"

	"scribe-hq/vellum/pkg/transcript"
)

// JSONExporter exports journal entries to JSON format.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// Export writes journal entries to the provided writer as a JSON array.
func (e *JSONExporter) Export(ctx context.Context, entries []*transcript.Entry, w io.Writer) error {
	if len(entries) == 0 {
		_, err := w.Write([]byte("[]"))
		return err
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(entries, "", "  ")
	} else {
		data, err = json.Marshal(entries)
	}
	if err != nil {
		return transcript.NewExportError("json", len(entries), err)
	}

	if _, err := w.Write(data); err != nil {
		return transcript.NewExportError("json", len(entries), err)
	}

	return nil
}

// ExportStream exports journal entries from a channel as a JSON array.
// Entries are written as they arrive, so very large exports never hold
// the full result set in memory.
func (e *JSONExporter) ExportStream(ctx context.Context, entriesCh <-chan *transcript.Entry, w io.Writer) error {
	if _, err := w.Write([]byte("[")); err != nil {
		return transcript.NewExportError("json", 0, err)
	}

	first := true
	entryCount := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case entry, ok := <-entriesCh:
			if !ok {
				if _, err := w.Write([]byte("]")); err != nil {
					return transcript.NewExportError("json", entryCount, err)
				}
				return nil
			}

			if !first {
				if _, err := w.Write([]byte(",")); err != nil {
					return transcript.NewExportError("json", entryCount, err)
				}
				if e.Pretty {
					if _, err := w.Write([]byte("\n")); err != nil {
						return transcript.NewExportError("json", entryCount, err)
					}
				}
			}
			first = false

			data, err := e.serializeEntry(entry)
			if err != nil {
				return transcript.NewExportError("json", entryCount, err)
			}
			if _, err := w.Write(data); err != nil {
				return transcript.NewExportError("json", entryCount, err)
			}

			entryCount++
		}
	}
}

// serializeEntry serializes a single journal entry to JSON.
func (e *JSONExporter) serializeEntry(entry *transcript.Entry) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(entry, "  ", "  ")
	}
	return json.Marshal(entry)
}
