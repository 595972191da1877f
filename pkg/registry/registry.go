// Package registry holds the static allow-list of model identifiers the
// gateway exposes. The registry is built once at startup from configuration
// and never mutated afterward, so concurrent readers need no locking.
package registry

import "time"

// OwnedBy is the owner label reported for every model descriptor.
// OpenAI clients display it but attach no semantics to the value.
const OwnedBy = "organization_owner"

// ModelDescriptor describes one exposed model in the OpenAI /v1/models
// wire shape.
type ModelDescriptor struct {
	// ID is the model identifier (e.g., "databricks-meta-llama-3-1-405b-instruct").
	ID string `json:"id"`

	// Object is always "model".
	Object string `json:"object"`

	// Created is the Unix timestamp the descriptor was registered,
	// which for a static registry is process start time.
	Created int64 `json:"created"`

	// OwnedBy is the owner label.
	OwnedBy string `json:"owned_by"`
}

// Registry is the closed set of model identifiers the gateway serves.
// An empty registry is valid: every chat/completion request then fails
// model validation.
type Registry struct {
	ids     []string
	members map[string]struct{}
	created int64
}

// New builds a registry from an ordered list of model identifiers.
// Duplicates are dropped, keeping the first occurrence so /v1/models
// reflects configuration order.
func New(ids []string) *Registry {
	r := &Registry{
		members: make(map[string]struct{}, len(ids)),
		created: time.Now().Unix(),
	}
	for _, id := range ids {
		if _, seen := r.members[id]; seen || id == "" {
			continue
		}
		r.members[id] = struct{}{}
		r.ids = append(r.ids, id)
	}
	return r
}

// Contains reports whether the model identifier is exposed by the gateway.
func (r *Registry) Contains(id string) bool {
	_, ok := r.members[id]
	return ok
}

// List returns descriptors for every exposed model, in configuration order.
func (r *Registry) List() []ModelDescriptor {
	descriptors := make([]ModelDescriptor, len(r.ids))
	for i, id := range r.ids {
		descriptors[i] = ModelDescriptor{
			ID:      id,
			Object:  "model",
			Created: r.created,
			OwnedBy: OwnedBy,
		}
	}
	return descriptors
}

// Len returns the number of exposed models.
func (r *Registry) Len() int {
	return len(r.ids)
}
