package handlers

import (
	"net/http"

	"openbricks/gateway/pkg/gateway"
	"openbricks/gateway/pkg/gateway/types"
)

// Models serves GET /v1/models, listing the configured models in their
// configuration order. An empty registry yields an empty list, not an
// error.
func (h *Handlers) Models(w http.ResponseWriter, r *http.Request) {
	gateway.WriteJSON(w, http.StatusOK, &types.ModelList{
		Object: "list",
		Data:   h.registry.List(),
	})
}
