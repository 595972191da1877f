package gateway

import (
	"fmt"
	"strings"

	"openbricks/gateway/pkg/gateway/types"
	"openbricks/gateway/pkg/registry"
	"openbricks/gateway/pkg/upstream"
)

// Translator builds upstream invocation payloads from validated client
// requests. Model membership is checked against the registry before any
// payload is built, so an unknown model never reaches the upstream.
type Translator struct {
	registry *registry.Registry
}

// NewTranslator returns a translator over the given registry.
func NewTranslator(reg *registry.Registry) *Translator {
	return &Translator{registry: reg}
}

// checkModel rejects models not present in the registry.
func (t *Translator) checkModel(model string) error {
	if !t.registry.Contains(model) {
		return &RequestError{
			Message: fmt.Sprintf("The model %q does not exist or you do not have access to it.", model),
			Param:   "model",
			Code:    "model_not_found",
		}
	}
	return nil
}

// TranslateChat converts a chat completion request into an upstream
// payload. Multimodal content arrays are flattened to plain text.
func (t *Translator) TranslateChat(req *types.ChatCompletionRequest) (*upstream.Payload, error) {
	if err := req.Validate(); err != nil {
		return nil, &RequestError{Message: err.Error()}
	}
	if err := t.checkModel(req.Model); err != nil {
		return nil, err
	}

	messages := make([]upstream.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = upstream.Message{
			Role:    m.Role,
			Content: m.ContentText(),
		}
	}

	return &upstream.Payload{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
		Stream:      req.Stream,
	}, nil
}

// TranslateCompletion converts a legacy completion request into an
// upstream chat payload. The prompt becomes a single user message;
// multiple prompt entries are joined with a newline.
func (t *Translator) TranslateCompletion(req *types.CompletionRequest) (*upstream.Payload, error) {
	if err := req.Validate(); err != nil {
		return nil, &RequestError{Message: err.Error()}
	}
	if err := t.checkModel(req.Model); err != nil {
		return nil, err
	}

	prompt := strings.Join(req.Prompt, "\n")

	return &upstream.Payload{
		Model: req.Model,
		Messages: []upstream.Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
		Stream:      req.Stream,
	}, nil
}

// CheckModel exposes the registry membership check for endpoints that do
// not build payloads, such as the embeddings stub.
func (t *Translator) CheckModel(model string) error {
	return t.checkModel(model)
}
