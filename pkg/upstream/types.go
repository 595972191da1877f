package upstream

// Wire shapes for the Databricks serving-endpoint invocation API.
// Requests are POSTed to {base_url}/{model}/invocations in the native
// Databricks chat schema; responses come back in an OpenAI-adjacent shape.

// Message is a single chat message in the upstream schema. Content is
// always a plain string; the gateway flattens multimodal arrays before
// building the payload.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Payload is the Databricks invocation request body. Sampling parameters
// are pointers so that values absent from the client request are omitted
// entirely and the serving endpoint applies its own defaults.
type Payload struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// Usage is the token accounting reported by the serving endpoint.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a completed (non-streamed) invocation response.
type Response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice is one completion alternative in a Response.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Event is one incremental unit of a streamed invocation, already decoded
// from the upstream SSE framing. The channel returned by InvokeStream
// yields Events in arrival order and closes at end of stream.
//
// Exactly one of the following holds per Event:
//   - Delta carries an incremental content fragment (FinishReason empty)
//   - FinishReason carries the upstream termination signal
//   - Err carries a stream failure; no further Events follow
type Event struct {
	// ID is the upstream response identifier, when supplied.
	ID string

	// Created is the upstream creation timestamp, when supplied.
	Created int64

	// Role is the priming role from the first chunk, usually "assistant".
	Role string

	// Delta is the incremental content fragment.
	Delta string

	// FinishReason is the upstream termination signal, set on the event
	// that ends generation.
	FinishReason string

	// Usage is token accounting, included by some endpoints on the final
	// chunk.
	Usage *Usage

	// Err is set when the stream fails mid-flight.
	Err error
}

// streamResponse is the raw SSE chunk shape emitted by the serving
// endpoint when stream=true.
type streamResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []streamChoice `json:"choices"`
	Usage   *Usage         `json:"usage,omitempty"`
}

type streamChoice struct {
	Index        int         `json:"index"`
	Delta        streamDelta `json:"delta"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

type streamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}
