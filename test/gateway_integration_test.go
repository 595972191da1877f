// Package test contains end-to-end tests exercising the full HTTP
// surface against a stub Databricks serving endpoint.
package test

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"openbricks/gateway/pkg/config"
	"openbricks/gateway/pkg/gateway/handlers"
	"openbricks/gateway/pkg/registry"
	"openbricks/gateway/pkg/server"
	"openbricks/gateway/pkg/upstream"
)

// newDatabricksStub serves the invocations contract for any model id.
func newDatabricksStub(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/invocations") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer integration-token" {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		body, _ := io.ReadAll(r.Body)
		var payload upstream.Payload
		if err := json.Unmarshal(body, &payload); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}

		if payload.Stream {
			w.Header().Set("Content-Type", "text/event-stream")
			flusher := w.(http.Flusher)
			for _, chunk := range []string{
				`{"id":"s-1","choices":[{"delta":{"role":"assistant","content":"stream"}}]}`,
				`{"id":"s-1","choices":[{"delta":{"content":"ing"}}]}`,
				`{"id":"s-1","choices":[{"delta":{},"finish_reason":"stop"}]}`,
			} {
				fmt.Fprintf(w, "data: %s\n\n", chunk)
				flusher.Flush()
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}

		last := payload.Messages[len(payload.Messages)-1]
		json.NewEncoder(w).Encode(upstream.Response{
			ID: "i-1",
			Choices: []upstream.Choice{{
				Message:      upstream.Message{Role: "assistant", Content: "echo: " + last.Content},
				FinishReason: "stop",
			}},
			Usage: &upstream.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		})
	}))
}

// newGateway assembles a full server handler against the stub.
func newGateway(t *testing.T, upstreamURL string) http.Handler {
	t.Helper()

	client, err := upstream.NewClient(upstream.Config{
		BaseURL:             upstreamURL,
		Token:               "integration-token",
		Timeout:             10 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     time.Minute,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(client.Close)

	reg := registry.New([]string{"databricks-llama"})
	h := handlers.New(reg, client, nil, nil)

	cfg := config.Default().Server
	srv := server.New(cfg, h, nil)
	return srv.Handler()
}

func TestEndToEndChatCompletion(t *testing.T) {
	stub := newDatabricksStub(t)
	defer stub.Close()
	handler := newGateway(t, stub.URL)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		strings.NewReader(`{"model":"databricks-llama","messages":[{"role":"user","content":"hi"}]}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Object != "chat.completion" || resp.Model != "databricks-llama" {
		t.Errorf("object = %q, model = %q", resp.Object, resp.Model)
	}
	if resp.Choices[0].Message.Content != "echo: hi" {
		t.Errorf("content = %q", resp.Choices[0].Message.Content)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("total tokens = %d, want 15", resp.Usage.TotalTokens)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response must carry a request id")
	}
}

func TestEndToEndStreaming(t *testing.T) {
	stub := newDatabricksStub(t)
	defer stub.Close()
	handler := newGateway(t, stub.URL)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		strings.NewReader(`{"model":"databricks-llama","messages":[{"role":"user","content":"go"}],"stream":true}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q", ct)
	}

	var content strings.Builder
	var finishes int
	var sawDone bool
	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			sawDone = true
			continue
		}
		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
				FinishReason *string `json:"finish_reason"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			t.Fatalf("bad chunk %q: %v", data, err)
		}
		content.WriteString(chunk.Choices[0].Delta.Content)
		if chunk.Choices[0].FinishReason != nil {
			finishes++
		}
	}

	if content.String() != "streaming" {
		t.Errorf("assembled content = %q, want streaming", content.String())
	}
	if finishes != 1 {
		t.Errorf("finish chunks = %d, want exactly 1", finishes)
	}
	if !sawDone {
		t.Error("stream must end with [DONE]")
	}
}

func TestEndToEndUnknownModelRejectedLocally(t *testing.T) {
	var upstreamCalls int
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
	}))
	defer stub.Close()
	handler := newGateway(t, stub.URL)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		strings.NewReader(`{"model":"unknown","messages":[{"role":"user","content":"hi"}]}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_request_error") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if upstreamCalls != 0 {
		t.Errorf("upstream called %d times for an unknown model", upstreamCalls)
	}
}

func TestEndToEndAuthFailurePassthrough(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusForbidden)
	}))
	defer stub.Close()
	handler := newGateway(t, stub.URL)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		strings.NewReader(`{"model":"databricks-llama","messages":[{"role":"user","content":"hi"}]}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 passthrough", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "authentication_error") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestEndToEndModelsAndHealth(t *testing.T) {
	stub := newDatabricksStub(t)
	defer stub.Close()
	handler := newGateway(t, stub.URL)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "databricks-llama") {
		t.Errorf("models: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("health: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
