// Package gateway implements the protocol translation between the
// OpenAI-compatible client surface and the Databricks invocation API:
// request translation, response formatting, stream relay, and error
// mapping.
package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxRequestBody caps the size of accepted request bodies.
const maxRequestBody = 10 * 1024 * 1024

// RequestError is a client-side request failure. It maps to a 400
// response with type invalid_request_error.
type RequestError struct {
	Message string
	Param   string
	Code    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// DecodeJSON reads and decodes a JSON request body into dst, enforcing
// the body size cap. Malformed JSON and structural validation failures
// surface as *RequestError.
func DecodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		return &RequestError{Message: "failed to read request body"}
	}
	if len(body) > maxRequestBody {
		return &RequestError{Message: "request body too large", Code: "request_too_large"}
	}
	if len(body) == 0 {
		return &RequestError{Message: "request body is required"}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &RequestError{Message: fmt.Sprintf("invalid JSON in request body: %v", err)}
	}
	return nil
}
