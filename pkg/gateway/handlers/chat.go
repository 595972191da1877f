package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"openbricks/gateway/pkg/gateway"
	"openbricks/gateway/pkg/gateway/types"
	"openbricks/gateway/pkg/upstream"
)

// ChatCompletions serves POST /v1/chat/completions in both buffered and
// streaming modes.
func (h *Handlers) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/v1/chat/completions"
	start := time.Now()

	var req types.ChatCompletionRequest
	if err := gateway.DecodeJSON(r, &req); err != nil {
		status, errType := h.writeMappedError(w, err)
		h.observe(r, endpoint, req.Model, status, start, false, nil, "", errType)
		return
	}

	payload, err := h.translator.TranslateChat(&req)
	if err != nil {
		status, errType := h.writeMappedError(w, err)
		h.observe(r, endpoint, req.Model, status, start, false, nil, "", errType)
		return
	}

	if req.Stream {
		h.stream(w, r, endpoint, req.Model, payload, start, gateway.NewStreamRelay)
		return
	}

	resp, err := h.invoker.Invoke(r.Context(), req.Model, payload)
	if err != nil {
		status, errType := h.writeMappedError(w, err)
		if h.metrics != nil {
			h.metrics.ObserveUpstreamError(req.Model, errType)
		}
		h.observe(r, endpoint, req.Model, status, start, false, nil, "", errType)
		return
	}

	out := gateway.FormatChatCompletion(resp, req.Model)
	gateway.WriteJSON(w, http.StatusOK, out)

	finish := ""
	if len(out.Choices) > 0 {
		finish = out.Choices[0].FinishReason
	}
	h.observe(r, endpoint, req.Model, http.StatusOK, start, false, resp.Usage, finish, "")
}

// stream relays a streaming exchange using the given relay constructor.
func (h *Handlers) stream(w http.ResponseWriter, r *http.Request, endpoint, model string, payload *upstream.Payload, start time.Time, newRelay func(http.ResponseWriter, string) *gateway.StreamRelay) {
	events, err := h.invoker.InvokeStream(r.Context(), model, payload)
	if err != nil {
		// Stream never opened; the client still gets a structured error.
		status, errType := h.writeMappedError(w, err)
		if h.metrics != nil {
			h.metrics.ObserveUpstreamError(model, errType)
		}
		h.observe(r, endpoint, model, status, start, true, nil, "", errType)
		return
	}

	gateway.SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	relay := newRelay(w, model)
	runErr := relay.Run(r.Context(), events)

	if runErr != nil && relay.ChunksSent() == 0 {
		// Failed before any chunk. Status is committed, so report the
		// error inside the stream.
		resp, _ := gateway.MapError(runErr)
		gateway.WriteSSEError(w, resp)
		gateway.WriteSSEDone(w)
		if h.metrics != nil {
			h.metrics.ObserveUpstreamError(model, resp.Error.Type)
		}
		h.observe(r, endpoint, model, http.StatusOK, start, true, nil, "", resp.Error.Type)
		return
	}

	if runErr != nil {
		slog.Debug("stream relay ended early", "error", runErr)
	}

	if h.metrics != nil {
		h.metrics.ObserveStreamChunks(model, relay.ChunksSent())
	}
	h.observe(r, endpoint, model, http.StatusOK, start, true, nil, relay.FinishReason(), "")
}
