package handlers

import (
	"net/http"

	"openbricks/gateway/pkg/gateway"
)

// Health serves GET /healthcheck, a static liveness probe.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	gateway.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
