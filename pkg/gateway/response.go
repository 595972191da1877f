package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"openbricks/gateway/pkg/gateway/types"
	"openbricks/gateway/pkg/upstream"
)

// nullLogprobs is the constant logprobs value in legacy completion
// choices.
var nullLogprobs = json.RawMessage("null")

// mapFinishReason normalizes an upstream finish reason to the client
// vocabulary. Unrecognized or empty values become "stop".
func mapFinishReason(reason string) string {
	switch reason {
	case "stop", "length":
		return reason
	default:
		return "stop"
	}
}

// responseID returns the upstream identifier with the given prefix, or a
// freshly generated one when the upstream supplied none.
func responseID(prefix, upstreamID string) string {
	if upstreamID != "" {
		return prefix + upstreamID
	}
	return prefix + uuid.New().String()
}

// responseCreated returns the upstream creation timestamp, or the
// current time when the upstream supplied none.
func responseCreated(upstreamCreated int64) int64 {
	if upstreamCreated != 0 {
		return upstreamCreated
	}
	return time.Now().Unix()
}

// copyUsage converts upstream usage verbatim. A nil upstream usage stays
// nil so the field is omitted rather than estimated.
func copyUsage(u *upstream.Usage) *types.Usage {
	if u == nil {
		return nil
	}
	return &types.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// FormatChatCompletion converts an upstream response into a chat
// completion body. The model field echoes the client's requested model.
func FormatChatCompletion(resp *upstream.Response, model string) *types.ChatCompletionResponse {
	choices := make([]types.ChatCompletionChoice, 0, len(resp.Choices))
	for i, c := range resp.Choices {
		choices = append(choices, types.ChatCompletionChoice{
			Index: i,
			Message: types.ResponseMessage{
				Role:    roleOrAssistant(c.Message.Role),
				Content: c.Message.Content,
			},
			FinishReason: mapFinishReason(c.FinishReason),
		})
	}

	return &types.ChatCompletionResponse{
		ID:      responseID("chatcmpl-", resp.ID),
		Object:  "chat.completion",
		Created: responseCreated(resp.Created),
		Model:   model,
		Choices: choices,
		Usage:   copyUsage(resp.Usage),
	}
}

// FormatCompletion converts an upstream response into a legacy
// completion body. Message content becomes the text field and logprobs
// is always null.
func FormatCompletion(resp *upstream.Response, model string) *types.CompletionResponse {
	choices := make([]types.CompletionChoice, 0, len(resp.Choices))
	for i, c := range resp.Choices {
		choices = append(choices, types.CompletionChoice{
			Index:        i,
			Text:         c.Message.Content,
			Logprobs:     nullLogprobs,
			FinishReason: mapFinishReason(c.FinishReason),
		})
	}

	return &types.CompletionResponse{
		ID:      responseID("cmpl-", resp.ID),
		Object:  "text_completion",
		Created: responseCreated(resp.Created),
		Model:   model,
		Choices: choices,
		Usage:   copyUsage(resp.Usage),
	}
}

func roleOrAssistant(role string) string {
	if role == "" {
		return "assistant"
	}
	return role
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError writes an error body with the given status code.
func WriteError(w http.ResponseWriter, status int, resp *types.ErrorResponse) {
	WriteJSON(w, status, resp)
}

// SetSSEHeaders prepares the response for server-sent events.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// WriteSSEChunk writes one data event and flushes it to the client.
func WriteSSEChunk(w http.ResponseWriter, chunk interface{}) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("failed to encode stream chunk: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// WriteSSEDone writes the stream terminator.
func WriteSSEDone(w http.ResponseWriter) {
	fmt.Fprint(w, "data: [DONE]\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// WriteSSEError writes an error body as a data event. Used when a stream
// fails before any content chunk has been sent.
func WriteSSEError(w http.ResponseWriter, resp *types.ErrorResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to encode stream error", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
