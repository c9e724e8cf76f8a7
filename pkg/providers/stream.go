package providers

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
)

// StreamFraming identifies how a backend frames its streamed response bytes.
type StreamFraming string

const (
	// FramingSSE is Server-Sent Events: "data: <json>" lines separated by
	// blank lines, closed by a literal "[DONE]" payload.
	FramingSSE StreamFraming = "sse"

	// FramingNDJSON is newline-delimited JSON: one raw JSON object per
	// line, closed by an object whose extractor reports done.
	FramingNDJSON StreamFraming = "ndjson"
)

// streamTerminator is the literal SSE payload that closes an
// OpenAI-style stream.
const streamTerminator = "[DONE]"

// DeltaExtractor pulls the incremental text out of one stream payload.
// Backends disagree about where the text lives (OpenAI-compatible APIs use
// choices[0].delta.content, Ollama uses .response), so each adapter
// supplies its own extractor. It returns the text delta (possibly empty),
// whether this payload ends the stream, and a parse error for malformed
// payloads.
type DeltaExtractor func(payload []byte) (delta string, done bool, err error)

// StreamDecoder incrementally decodes a streamed response body into
// StreamFrames. Bytes are buffered until a complete line is available, so
// arbitrary network chunk boundaries, including splits inside a multi-byte
// character or mid-line, never corrupt the output: the concatenation of
// all emitted deltas equals the full response text.
type StreamDecoder struct {
	framing StreamFraming
	extract DeltaExtractor
	logger  *slog.Logger
}

// NewStreamDecoder creates a decoder for one streamed response.
func NewStreamDecoder(framing StreamFraming, extract DeltaExtractor, logger *slog.Logger) *StreamDecoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamDecoder{
		framing: framing,
		extract: extract,
		logger:  logger,
	}
}

// Decode consumes r until the stream terminator is seen or the stream
// ends, invoking onFrame synchronously for every extracted delta and once
// more with Finished set on normal completion. It returns the accumulated
// text; on error the text gathered so far is returned alongside the error
// rather than discarded.
//
// Unparseable payloads are logged and skipped, never fatal.
func (d *StreamDecoder) Decode(ctx context.Context, r io.Reader, onFrame StreamHandler) (string, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var accumulated strings.Builder

	emit := func(delta string, finished bool) {
		accumulated.WriteString(delta)
		if onFrame != nil {
			onFrame(StreamFrame{
				Delta:       delta,
				Accumulated: accumulated.String(),
				Finished:    finished,
			})
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return accumulated.String(), err
		}

		line, readErr := br.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")

		if len(line) > 0 {
			if payload, ok := d.payload(line); ok {
				if d.framing == FramingSSE && string(payload) == streamTerminator {
					emit("", true)
					return accumulated.String(), nil
				}
				delta, done, err := d.extract(payload)
				switch {
				case err != nil:
					d.logger.Warn("skipping unparseable stream payload",
						"framing", string(d.framing),
						"error", err)
				case done:
					emit(delta, true)
					return accumulated.String(), nil
				case delta != "":
					emit(delta, false)
				}
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				emit("", true)
				return accumulated.String(), nil
			}
			return accumulated.String(), readErr
		}
	}
}

// payload extracts the JSON payload from one non-blank line, reporting
// whether the line carries one at all.
func (d *StreamDecoder) payload(line []byte) ([]byte, bool) {
	if d.framing == FramingNDJSON {
		return line, true
	}
	// SSE comment lines start with ':'
	if line[0] == ':' {
		return nil, false
	}
	if !bytes.HasPrefix(line, []byte("data:")) {
		return nil, false
	}
	payload := line[len("data:"):]
	if len(payload) > 0 && payload[0] == ' ' {
		payload = payload[1:]
	}
	if len(payload) == 0 {
		return nil, false
	}
	return payload, true
}
