// Package handlers implements the OpenAI-compatible HTTP endpoints.
package handlers

import (
	"context"
	"net/http"
	"time"

	"openbricks/gateway/pkg/audit"
	"openbricks/gateway/pkg/gateway"
	"openbricks/gateway/pkg/gateway/middleware"
	"openbricks/gateway/pkg/registry"
	"openbricks/gateway/pkg/telemetry/metrics"
	"openbricks/gateway/pkg/upstream"
)

// Invoker is the upstream capability the handlers need. Satisfied by
// *upstream.Client; tests substitute stubs.
type Invoker interface {
	Invoke(ctx context.Context, model string, p *upstream.Payload) (*upstream.Response, error)
	InvokeStream(ctx context.Context, model string, p *upstream.Payload) (<-chan *upstream.Event, error)
}

// Handlers bundles the endpoint implementations and their collaborators.
type Handlers struct {
	registry   *registry.Registry
	translator *gateway.Translator
	invoker    Invoker
	metrics    *metrics.Metrics
	recorder   *audit.Recorder
}

// New wires the endpoint set. metrics and recorder may be nil.
func New(reg *registry.Registry, invoker Invoker, m *metrics.Metrics, rec *audit.Recorder) *Handlers {
	return &Handlers{
		registry:   reg,
		translator: gateway.NewTranslator(reg),
		invoker:    invoker,
		metrics:    m,
		recorder:   rec,
	}
}

// observe records metrics and an audit entry for one completed request.
func (h *Handlers) observe(r *http.Request, endpoint, model string, status int, start time.Time, streamed bool, usage *upstream.Usage, finish, errType string) {
	duration := time.Since(start)

	if h.metrics != nil {
		h.metrics.ObserveRequest(endpoint, model, status, duration)
		if usage != nil {
			h.metrics.ObserveTokens(model, usage.PromptTokens, usage.CompletionTokens)
		}
	}

	rec := &audit.Record{
		RequestID:    middleware.RequestIDFromContext(r.Context()),
		Endpoint:     endpoint,
		Model:        model,
		Status:       status,
		Streamed:     streamed,
		DurationMS:   duration.Milliseconds(),
		FinishReason: finish,
		ErrorType:    errType,
	}
	if usage != nil {
		rec.PromptTokens = usage.PromptTokens
		rec.CompletionTokens = usage.CompletionTokens
	}

	// Persist with a fresh context so a cancelled request still gets
	// audited.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.recorder.Record(ctx, rec)
}

// writeMappedError translates err and writes the error body.
func (h *Handlers) writeMappedError(w http.ResponseWriter, err error) (status int, errType string) {
	resp, status := gateway.MapError(err)
	gateway.WriteError(w, status, resp)
	return status, resp.Error.Type
}
