// Package types defines the OpenAI-compatible wire shapes served by the
// gateway, along with their validation rules.
package types

import (
	"encoding/json"
	"fmt"
)

// Message is a chat message as received from clients. Content accepts
// either a plain string or an array of content parts; ContentText
// flattens it either way.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
	Name    string      `json:"name,omitempty"`
}

// ContentText returns the textual content of the message. String content
// is returned as is. Array content is flattened by joining the text of
// each part with a newline; non-text parts contribute nothing.
func (m *Message) ContentText() string {
	switch content := m.Content.(type) {
	case string:
		return content

	case []interface{}:
		var text string
		for _, part := range content {
			obj, ok := part.(map[string]interface{})
			if !ok {
				continue
			}
			if obj["type"] != "text" {
				continue
			}
			s, ok := obj["text"].(string)
			if !ok {
				continue
			}
			if text != "" {
				text += "\n"
			}
			text += s
		}
		return text

	default:
		return ""
	}
}

// ChatCompletionRequest is the body of POST /v1/chat/completions.
// Sampling parameters are pointers so that absent values stay absent on
// the upstream wire and the serving endpoint applies its own defaults.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	N           *int      `json:"n,omitempty"`
	Stop        Stop      `json:"stop,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
	User        string    `json:"user,omitempty"`
}

// Validate checks structural requirements. Model membership is checked
// separately against the registry.
func (r *ChatCompletionRequest) Validate() error {
	if r.Model == "" {
		return fmt.Errorf("model is required")
	}
	if len(r.Messages) == 0 {
		return fmt.Errorf("messages is required and must be non-empty")
	}
	for i, m := range r.Messages {
		if m.Role == "" {
			return fmt.Errorf("messages[%d].role is required", i)
		}
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if r.TopP != nil && (*r.TopP < 0 || *r.TopP > 1) {
		return fmt.Errorf("top_p must be between 0 and 1")
	}
	if r.MaxTokens != nil && *r.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be a positive integer")
	}
	return nil
}

// CompletionRequest is the body of POST /v1/completions. Prompt accepts
// a string or an array of strings.
type CompletionRequest struct {
	Model       string   `json:"model"`
	Prompt      Prompt   `json:"prompt"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Stop        Stop     `json:"stop,omitempty"`
	Stream      bool     `json:"stream,omitempty"`
	Echo        bool     `json:"echo,omitempty"`
	User        string   `json:"user,omitempty"`
}

// Validate checks structural requirements.
func (r *CompletionRequest) Validate() error {
	if r.Model == "" {
		return fmt.Errorf("model is required")
	}
	if r.Prompt.Empty() {
		return fmt.Errorf("prompt is required and must be non-empty")
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if r.MaxTokens != nil && *r.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be a positive integer")
	}
	return nil
}

// Prompt accepts both the string and string-array forms of the legacy
// completions prompt field.
type Prompt []string

func (p *Prompt) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*p = Prompt{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("prompt must be a string or an array of strings")
	}
	*p = Prompt(many)
	return nil
}

// Empty reports whether the prompt carries no text at all. A bare ""
// or an array of empty strings counts as empty.
func (p Prompt) Empty() bool {
	for _, s := range p {
		if s != "" {
			return false
		}
	}
	return true
}

// Stop accepts both the string and string-array forms of the stop field.
type Stop []string

func (s *Stop) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = Stop{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("stop must be a string or an array of strings")
	}
	*s = Stop(many)
	return nil
}

// EmbeddingsRequest is the body of POST /v1/embeddings. Input is kept
// raw; the stub implementation does not inspect it beyond presence.
type EmbeddingsRequest struct {
	Model string      `json:"model"`
	Input interface{} `json:"input"`
	User  string      `json:"user,omitempty"`
}

// Validate checks structural requirements.
func (r *EmbeddingsRequest) Validate() error {
	if r.Model == "" {
		return fmt.Errorf("model is required")
	}
	if r.Input == nil {
		return fmt.Errorf("input is required")
	}
	return nil
}
