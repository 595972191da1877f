package handlers

import (
	"net/http"
	"time"

	"openbricks/gateway/pkg/gateway"
	"openbricks/gateway/pkg/gateway/types"
)

// Completions serves POST /v1/completions, the legacy text completion
// surface, by wrapping the prompt into a single-message chat exchange.
func (h *Handlers) Completions(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/v1/completions"
	start := time.Now()

	var req types.CompletionRequest
	if err := gateway.DecodeJSON(r, &req); err != nil {
		status, errType := h.writeMappedError(w, err)
		h.observe(r, endpoint, req.Model, status, start, false, nil, "", errType)
		return
	}

	payload, err := h.translator.TranslateCompletion(&req)
	if err != nil {
		status, errType := h.writeMappedError(w, err)
		h.observe(r, endpoint, req.Model, status, start, false, nil, "", errType)
		return
	}

	if req.Stream {
		h.stream(w, r, endpoint, req.Model, payload, start, gateway.NewCompletionStreamRelay)
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

	out := gateway.FormatCompletion(resp, req.Model)
	gateway.WriteJSON(w, http.StatusOK, out)

	finish := ""
	if len(out.Choices) > 0 {
		finish = out.Choices[0].FinishReason
	}
	h.observe(r, endpoint, req.Model, http.StatusOK, start, false, resp.Usage, finish, "")
}
