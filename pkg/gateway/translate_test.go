package gateway

import (
	"errors"
	"testing"

	"openbricks/gateway/pkg/gateway/types"
	"openbricks/gateway/pkg/registry"
)

func testTranslator() *Translator {
	return NewTranslator(registry.New([]string{"databricks-llama", "databricks-mixtral"}))
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestTranslateChat(t *testing.T) {
	tr := testTranslator()

	payload, err := tr.TranslateChat(&types.ChatCompletionRequest{
		Model: "databricks-llama",
		Messages: []types.Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hello"},
		},
		Temperature: floatPtr(0.5),
		MaxTokens:   intPtr(64),
	})
	if err != nil {
		t.Fatalf("TranslateChat failed: %v", err)
	}

	if payload.Model != "databricks-llama" {
		t.Errorf("Model = %q", payload.Model)
	}
	if len(payload.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(payload.Messages))
	}
	if payload.Messages[1].Content != "hello" {
		t.Errorf("Messages[1].Content = %q", payload.Messages[1].Content)
	}
	if payload.Temperature == nil || *payload.Temperature != 0.5 {
		t.Errorf("Temperature = %v", payload.Temperature)
	}
	if payload.TopP != nil {
		t.Error("TopP must stay unset when the client omits it")
	}
}

func TestTranslateChatNoSynthesizedDefaults(t *testing.T) {
	tr := testTranslator()

	payload, err := tr.TranslateChat(&types.ChatCompletionRequest{
		Model:    "databricks-llama",
		Messages: []types.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("TranslateChat failed: %v", err)
	}

	if payload.MaxTokens != nil || payload.Temperature != nil || payload.TopP != nil {
		t.Errorf("sampling parameters must stay unset: %+v", payload)
	}
	if payload.Stop != nil {
		t.Errorf("Stop must stay unset, got %v", payload.Stop)
	}
}

func TestTranslateChatUnknownModel(t *testing.T) {
	tr := testTranslator()

	_, err := tr.TranslateChat(&types.ChatCompletionRequest{
		Model:    "no-such-model",
		Messages: []types.Message{{Role: "user", Content: "hi"}},
	})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %v", err)
	}
	if reqErr.Code != "model_not_found" {
		t.Errorf("Code = %q, want model_not_found", reqErr.Code)
	}
	if reqErr.Param != "model" {
		t.Errorf("Param = %q, want model", reqErr.Param)
	}
}

func TestTranslateChatFlattensContentParts(t *testing.T) {
	tr := testTranslator()

	payload, err := tr.TranslateChat(&types.ChatCompletionRequest{
		Model: "databricks-llama",
		Messages: []types.Message{{
			Role: "user",
			Content: []interface{}{
				map[string]interface{}{"type": "text", "text": "describe this"},
				map[string]interface{}{"type": "image_url", "image_url": map[string]interface{}{"url": "https://example.com/a.png"}},
				map[string]interface{}{"type": "text", "text": "in one sentence"},
			},
		}},
	})
	if err != nil {
		t.Fatalf("TranslateChat failed: %v", err)
	}

	want := "describe this\nin one sentence"
	if payload.Messages[0].Content != want {
		t.Errorf("Content = %q, want %q", payload.Messages[0].Content, want)
	}
}

func TestTranslateChatValidation(t *testing.T) {
	tr := testTranslator()

	cases := []struct {
		name string
		req  *types.ChatCompletionRequest
	}{
		{"missing model", &types.ChatCompletionRequest{
			Messages: []types.Message{{Role: "user", Content: "hi"}},
		}},
		{"empty messages", &types.ChatCompletionRequest{
			Model: "databricks-llama",
		}},
		{"missing role", &types.ChatCompletionRequest{
			Model:    "databricks-llama",
			Messages: []types.Message{{Content: "hi"}},
		}},
		{"temperature out of range", &types.ChatCompletionRequest{
			Model:       "databricks-llama",
			Messages:    []types.Message{{Role: "user", Content: "hi"}},
			Temperature: floatPtr(3.5),
		}},
		{"non-positive max_tokens", &types.ChatCompletionRequest{
			Model:     "databricks-llama",
			Messages:  []types.Message{{Role: "user", Content: "hi"}},
			MaxTokens: intPtr(0),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tr.TranslateChat(tc.req)
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Errorf("expected *RequestError, got %v", err)
			}
		})
	}
}

func TestTranslateCompletion(t *testing.T) {
	tr := testTranslator()

	payload, err := tr.TranslateCompletion(&types.CompletionRequest{
		Model:  "databricks-mixtral",
		Prompt: types.Prompt{"Once upon a time"},
	})
	if err != nil {
		t.Fatalf("TranslateCompletion failed: %v", err)
	}

	if len(payload.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(payload.Messages))
	}
	if payload.Messages[0].Role != "user" {
		t.Errorf("Role = %q, want user", payload.Messages[0].Role)
	}
	if payload.Messages[0].Content != "Once upon a time" {
		t.Errorf("Content = %q", payload.Messages[0].Content)
	}
}

func TestTranslateCompletionJoinsPromptArray(t *testing.T) {
	tr := testTranslator()

	payload, err := tr.TranslateCompletion(&types.CompletionRequest{
		Model:  "databricks-llama",
		Prompt: types.Prompt{"first", "second"},
	})
	if err != nil {
		t.Fatalf("TranslateCompletion failed: %v", err)
	}

	if payload.Messages[0].Content != "first\nsecond" {
		t.Errorf("Content = %q", payload.Messages[0].Content)
	}
}

func TestTranslateCompletionValidation(t *testing.T) {
	tr := testTranslator()

	cases := []struct {
		name string
		req  *types.CompletionRequest
	}{
		{"missing model", &types.CompletionRequest{
			Prompt: types.Prompt{"hi"},
		}},
		{"missing prompt", &types.CompletionRequest{
			Model: "databricks-llama",
		}},
		{"empty string prompt", &types.CompletionRequest{
			Model:  "databricks-llama",
			Prompt: types.Prompt{""},
		}},
		{"array of empty prompts", &types.CompletionRequest{
			Model:  "databricks-llama",
			Prompt: types.Prompt{"", ""},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tr.TranslateCompletion(tc.req)
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Errorf("expected *RequestError, got %v", err)
			}
		})
	}
}
