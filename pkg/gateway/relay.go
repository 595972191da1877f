package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"openbricks/gateway/pkg/gateway/types"
	"openbricks/gateway/pkg/upstream"
)

// relayState tracks where a relay is in its lifecycle.
type relayState int

const (
	// relayOpen means no chunk has been written yet. Failures here can
	// still be reported as a structured stream error.
	relayOpen relayState = iota

	// relayRelaying means at least one content chunk has been written.
	// The response status and framing are committed.
	relayRelaying

	// relayTerminated means the terminal chunk and [DONE] marker have
	// been written. Nothing further may be emitted.
	relayTerminated
)

// chunkFormat selects the outbound chunk shape.
type chunkFormat int

const (
	chatChunks chunkFormat = iota
	completionChunks
)

// StreamRelay converts an upstream event stream into client SSE chunks.
// Each upstream content event produces exactly one chunk with a null
// finish reason; every stream ends with exactly one terminal chunk
// carrying the resolved finish reason, followed by the [DONE] marker.
// The first event always produces a chunk, even with an empty delta, so
// the client receives the role before any content. Later events that
// carry neither content nor a finish reason, such as keepalive or
// usage-only frames, are absorbed without emitting a chunk.
type StreamRelay struct {
	w      http.ResponseWriter
	model  string
	format chunkFormat
	prefix string

	state   relayState
	id      string
	created int64
	role    string
	finish  string
	usage   *types.Usage
	chunks  int
}

// NewStreamRelay returns a relay emitting chat completion chunks.
func NewStreamRelay(w http.ResponseWriter, model string) *StreamRelay {
	return newRelay(w, model, chatChunks, "chatcmpl-")
}

// NewCompletionStreamRelay returns a relay emitting legacy completion
// chunks.
func NewCompletionStreamRelay(w http.ResponseWriter, model string) *StreamRelay {
	return newRelay(w, model, completionChunks, "cmpl-")
}

func newRelay(w http.ResponseWriter, model string, format chunkFormat, prefix string) *StreamRelay {
	return &StreamRelay{
		w:       w,
		model:   model,
		format:  format,
		prefix:  prefix,
		id:      prefix + uuid.New().String(),
		created: time.Now().Unix(),
	}
}

// ChunksSent reports how many content chunks have been written.
func (r *StreamRelay) ChunksSent() int {
	return r.chunks
}

// FinishReason reports the resolved finish reason after termination, or
// "" while the stream is still open.
func (r *StreamRelay) FinishReason() string {
	if r.state != relayTerminated {
		return ""
	}
	return mapFinishReason(r.finish)
}

// Run consumes events until the stream ends, then terminates the client
// stream. It returns the error that ended the stream early, if any; the
// client stream is always left terminated unless the failure happened
// before the first chunk, in which case the error is reported to the
// caller for structured handling.
func (r *StreamRelay) Run(ctx context.Context, events <-chan *upstream.Event) error {
	for {
		select {
		case <-ctx.Done():
			// Client went away. Stop consuming; nothing more can be
			// delivered.
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				// Upstream ended without an explicit finish. Treat the
				// generation as complete.
				r.terminate()
				return nil
			}

			if ev.Err != nil {
				if r.state == relayOpen {
					return ev.Err
				}
				slog.Warn("upstream stream failed mid-relay",
					"chunks_sent", r.chunks,
					"error", sanitize(ev.Err.Error()),
				)
				r.terminate()
				return nil
			}

			if err := r.handleEvent(ev); err != nil {
				// Client write failed. The connection is gone.
				return err
			}

			if r.state == relayTerminated {
				return nil
			}
		}
	}
}

// handleEvent writes the chunks implied by one upstream event. An event
// carrying both a delta and a finish reason produces the content chunk
// first, then the terminal chunk.
func (r *StreamRelay) handleEvent(ev *upstream.Event) error {
	if ev.ID != "" && r.state == relayOpen {
		r.id = r.prefix + ev.ID
	}
	if ev.Created != 0 && r.state == relayOpen {
		r.created = ev.Created
	}
	if ev.Role != "" {
		r.role = ev.Role
	}
	if ev.Usage != nil {
		r.usage = &types.Usage{
			PromptTokens:     ev.Usage.PromptTokens,
			CompletionTokens: ev.Usage.CompletionTokens,
			TotalTokens:      ev.Usage.TotalTokens,
		}
	}

	if ev.Delta != "" || (ev.FinishReason == "" && r.state == relayOpen) {
		delta := types.ChunkDelta{Content: ev.Delta}
		if r.state == relayOpen {
			delta.Role = roleOrAssistant(r.role)
		}
		if err := r.writeChunk(delta, nil); err != nil {
			return err
		}
		r.state = relayRelaying
		r.chunks++
	}

	if ev.FinishReason != "" {
		r.finish = ev.FinishReason
		r.terminate()
	}
	return nil
}

// terminate writes the terminal chunk and the [DONE] marker. Idempotent.
func (r *StreamRelay) terminate() {
	if r.state == relayTerminated {
		return
	}

	finish := mapFinishReason(r.finish)
	if err := r.writeChunk(types.ChunkDelta{}, &finish); err != nil {
		slog.Debug("terminal chunk write failed", "error", err)
	}
	WriteSSEDone(r.w)
	r.state = relayTerminated
}

// writeChunk emits one SSE chunk in the relay's format. A non-nil
// finish marks the terminal chunk, which also carries any usage the
// upstream reported.
func (r *StreamRelay) writeChunk(delta types.ChunkDelta, finish *string) error {
	if r.format == completionChunks {
		chunk := &types.CompletionChunk{
			ID:      r.id,
			Object:  "text_completion",
			Created: r.created,
			Model:   r.model,
			Choices: []types.CompletionChunkChoice{{
				Index:        0,
				Text:         delta.Content,
				Logprobs:     nullLogprobs,
				FinishReason: finish,
			}},
		}
		if finish != nil {
			chunk.Usage = r.usage
		}
		return WriteSSEChunk(r.w, chunk)
	}

	chunk := &types.ChatCompletionChunk{
		ID:      r.id,
		Object:  "chat.completion.chunk",
		Created: r.created,
		Model:   r.model,
		Choices: []types.ChunkChoice{{
			Index:        0,
			Delta:        delta,
			FinishReason: finish,
		}},
	}
	if finish != nil {
		chunk.Usage = r.usage
	}
	return WriteSSEChunk(r.w, chunk)
}
