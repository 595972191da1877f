package upstream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// streamReader decodes the SSE stream produced by a serving endpoint in
// streaming mode. Each "data:" line carries one JSON chunk; the literal
// "[DONE]" marker ends the stream.
type streamReader struct {
	scanner *bufio.Scanner
}

func newStreamReader(r io.Reader) *streamReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &streamReader{scanner: scanner}
}

// Next returns the next event from the stream. It returns io.EOF at the
// end of the stream and a *StreamError for malformed chunks.
func (r *streamReader) Next(ctx context.Context) (*Event, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, &StreamError{Message: "stream read failed", Cause: err}
			}
			return nil, io.EOF
		}

		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil, io.EOF
		}

		var chunk streamResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, &StreamError{Message: "malformed stream chunk", Cause: err}
		}

		ev := &Event{ID: chunk.ID, Created: chunk.Created, Usage: chunk.Usage}
		if len(chunk.Choices) > 0 {
			choice := chunk.Choices[0]
			ev.Role = choice.Delta.Role
			ev.Delta = choice.Delta.Content
			ev.FinishReason = choice.FinishReason
		}
		return ev, nil
	}
}
