// Package upstream implements the Databricks serving-endpoint client.
// Each configured model is invoked at POST {base}/{model}/invocations
// with bearer-token authentication, in both buffered and streaming modes.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// streamBufferSize is the capacity of the event channel returned by
// InvokeStream. A modest buffer smooths bursts without letting the
// upstream read run far ahead of the client.
const streamBufferSize = 100

// Client invokes Databricks serving endpoints.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, &ConfigError{Field: "base_url", Message: "base URL is required"}
	}
	if cfg.Token == "" {
		return nil, &ConfigError{Field: "token", Message: "token is required"}
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		cfg:  cfg,
		http: newHTTPClient(cfg),
	}, nil
}

// endpointURL returns the invocation URL for a model.
func (c *Client) endpointURL(model string) string {
	return fmt.Sprintf("%s/%s/invocations", c.cfg.BaseURL, url.PathEscape(model))
}

// Invoke sends a buffered invocation and decodes the response.
func (c *Client) Invoke(ctx context.Context, model string, p *Payload) (*Response, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.endpointURL(model), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &InvocationError{Message: "failed to read response body", Cause: err}
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ParseError{RawResponse: string(raw), Cause: err}
	}
	return &out, nil
}

// InvokeStream sends a streaming invocation and returns a channel of
// events. The channel is closed when the stream ends, fails, or ctx is
// cancelled. A failure mid-stream is delivered as a final event with Err
// set.
func (c *Client) InvokeStream(ctx context.Context, model string, p *Payload) (<-chan *Event, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.endpointURL(model), body)
	if err != nil {
		return nil, err
	}

	events := make(chan *Event, streamBufferSize)

	go func() {
		defer close(events)
		defer resp.Body.Close()

		reader := newStreamReader(resp.Body)
		for {
			ev, err := reader.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				select {
				case events <- &Event{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}

			if ev.FinishReason != "" {
				return
			}
		}
	}()

	return events, nil
}

// Close releases idle pooled connections.
func (c *Client) Close() {
	if transport, ok := c.http.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	slog.Debug("upstream client closed")
}
