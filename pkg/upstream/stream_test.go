package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStreamReader(t *testing.T) {
	input := strings.Join([]string{
		`data: {"id":"up-1","choices":[{"delta":{"role":"assistant","content":"Hel"}}]}`,
		``,
		`data: {"id":"up-1","choices":[{"delta":{"content":"lo"}}]}`,
		``,
		`data: {"id":"up-1","choices":[{"delta":{},"finish_reason":"stop"}],"usage":{"prompt_tokens":2,"completion_tokens":1,"total_tokens":3}}`,
		``,
		`data: [DONE]`,
		``,
	}, "\n")

	reader := newStreamReader(strings.NewReader(input))
	ctx := context.Background()

	ev, err := reader.Next(ctx)
	if err != nil {
		t.Fatalf("first Next failed: %v", err)
	}
	if ev.Role != "assistant" || ev.Delta != "Hel" {
		t.Errorf("first event = %+v", ev)
	}

	ev, err = reader.Next(ctx)
	if err != nil {
		t.Fatalf("second Next failed: %v", err)
	}
	if ev.Delta != "lo" || ev.FinishReason != "" {
		t.Errorf("second event = %+v", ev)
	}

	ev, err = reader.Next(ctx)
	if err != nil {
		t.Fatalf("third Next failed: %v", err)
	}
	if ev.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want stop", ev.FinishReason)
	}
	if ev.Usage == nil || ev.Usage.TotalTokens != 3 {
		t.Errorf("usage not carried on final event: %+v", ev.Usage)
	}

	if _, err := reader.Next(ctx); err != io.EOF {
		t.Errorf("expected io.EOF after [DONE], got %v", err)
	}
}

func TestStreamReaderTruncatedStream(t *testing.T) {
	input := `data: {"choices":[{"delta":{"content":"partial"}}]}` + "\n"

	reader := newStreamReader(strings.NewReader(input))
	ctx := context.Background()

	ev, err := reader.Next(ctx)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if ev.Delta != "partial" {
		t.Errorf("Delta = %q", ev.Delta)
	}

	// Stream ends without [DONE]; reader reports plain EOF.
	if _, err := reader.Next(ctx); err != io.EOF {
		t.Errorf("expected io.EOF on truncation, got %v", err)
	}
}

func TestStreamReaderMalformedChunk(t *testing.T) {
	reader := newStreamReader(strings.NewReader("data: {broken\n"))

	_, err := reader.Next(context.Background())
	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected *StreamError, got %v", err)
	}
}

func TestInvokeStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{
			`{"id":"up-9","choices":[{"delta":{"role":"assistant","content":"a"}}]}`,
			`{"id":"up-9","choices":[{"delta":{"content":"b"}}]}`,
			`{"id":"up-9","choices":[{"delta":{},"finish_reason":"length"}]}`,
		} {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	events, err := client.InvokeStream(context.Background(), "m", &Payload{Stream: true})
	if err != nil {
		t.Fatalf("InvokeStream failed: %v", err)
	}

	var deltas []string
	var finish string
	for ev := range events {
		if ev.Err != nil {
			t.Fatalf("unexpected stream error: %v", ev.Err)
		}
		if ev.Delta != "" {
			deltas = append(deltas, ev.Delta)
		}
		if ev.FinishReason != "" {
			finish = ev.FinishReason
		}
	}

	if got := strings.Join(deltas, ""); got != "ab" {
		t.Errorf("assembled content = %q, want ab", got)
	}
	if finish != "length" {
		t.Errorf("finish reason = %q, want length", finish)
	}
}

func TestInvokeStreamCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, `data: {"choices":[{"delta":{"content":"x"}}]}`+"\n\n")
		flusher.Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := client.InvokeStream(ctx, "m", &Payload{Stream: true})
	if err != nil {
		t.Fatalf("InvokeStream failed: %v", err)
	}

	ev := <-events
	if ev == nil || ev.Delta != "x" {
		t.Fatalf("first event = %+v", ev)
	}

	cancel()

	// Channel must close once the context is cancelled.
	for range events {
	}
}
