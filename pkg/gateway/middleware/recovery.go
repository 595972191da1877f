package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"openbricks/gateway/pkg/gateway/types"
)

// Recovery converts handler panics into a 500 error body.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("handler panicked",
					"panic", rec,
					"path", r.URL.Path,
					"request_id", RequestIDFromContext(r.Context()),
					"stack", string(debug.Stack()),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":{"message":"internal server error","type":"` +
					types.ErrorTypeAPI + `"}}`))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
