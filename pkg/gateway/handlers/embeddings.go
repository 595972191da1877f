package handlers

import (
	"net/http"
	"time"

	"openbricks/gateway/pkg/gateway"
	"openbricks/gateway/pkg/gateway/types"
)

// embeddingDimensions is the width of the placeholder vector.
const embeddingDimensions = 1536

// Embeddings serves POST /v1/embeddings. Serving endpoints exposed
// through this gateway do not provide embedding models, so the handler
// returns a placeholder zero vector rather than forwarding upstream.
func (h *Handlers) Embeddings(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/v1/embeddings"
	start := time.Now()

	var req types.EmbeddingsRequest
	if err := gateway.DecodeJSON(r, &req); err != nil {
		status, errType := h.writeMappedError(w, err)
		h.observe(r, endpoint, req.Model, status, start, false, nil, "", errType)
		return
	}
	if err := req.Validate(); err != nil {
		status, errType := h.writeMappedError(w, &gateway.RequestError{Message: err.Error()})
		h.observe(r, endpoint, req.Model, status, start, false, nil, "", errType)
		return
	}

	gateway.WriteJSON(w, http.StatusOK, &types.EmbeddingsResponse{
		Object: "list",
		Data: []types.EmbeddingData{{
			Object:    "embedding",
			Index:     0,
			Embedding: make([]float64, embeddingDimensions),
		}},
		Model: req.Model,
	})
	h.observe(r, endpoint, req.Model, http.StatusOK, start, false, nil, "", "")
}
