package gateway

import (
	"errors"
	"net/http"
	"regexp"

	"openbricks/gateway/pkg/gateway/types"
	"openbricks/gateway/pkg/upstream"
)

// bearerPattern matches bearer tokens so they can be stripped from
// messages that echo upstream error bodies or headers.
var bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/-]+=*`)

// sanitize removes credential material from an error message before it
// reaches a client or a log line.
func sanitize(msg string) string {
	return bearerPattern.ReplaceAllString(msg, "Bearer [REDACTED]")
}

// MapError converts any request-handling error into a client-facing
// error body and HTTP status. The mapping is total; errors with no
// specific translation become a 502 api_error.
func MapError(err error) (*types.ErrorResponse, int) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return types.NewInvalidRequestError(reqErr.Message, reqErr.Param, reqErr.Code), http.StatusBadRequest
	}

	var authErr *upstream.AuthError
	if errors.As(err, &authErr) {
		status := authErr.StatusCode
		if status != http.StatusUnauthorized && status != http.StatusForbidden {
			status = http.StatusBadGateway
		}
		return types.NewErrorResponse(types.ErrorTypeAuthentication,
			"upstream rejected the gateway credentials"), status
	}

	var rlErr *upstream.RateLimitError
	if errors.As(err, &rlErr) {
		return types.NewErrorResponse(types.ErrorTypeRateLimit,
			"upstream rate limit exceeded, retry later"), http.StatusTooManyRequests
	}

	var toErr *upstream.TimeoutError
	if errors.As(err, &toErr) {
		return types.NewErrorResponse(types.ErrorTypeAPI,
			"upstream request timed out"), http.StatusBadGateway
	}

	var parseErr *upstream.ParseError
	if errors.As(err, &parseErr) {
		return types.NewErrorResponse(types.ErrorTypeAPI,
			"upstream returned an unparseable response"), http.StatusBadGateway
	}

	// Invocation failures, including upstream 4xx bodies, all surface
	// as a generic 502. Upstream error text never reaches the client.
	var invErr *upstream.InvocationError
	if errors.As(err, &invErr) {
		return types.NewErrorResponse(types.ErrorTypeAPI,
			"upstream invocation failed"), http.StatusBadGateway
	}

	var streamErr *upstream.StreamError
	if errors.As(err, &streamErr) {
		return types.NewErrorResponse(types.ErrorTypeAPI,
			"upstream stream failed"), http.StatusBadGateway
	}

	return types.NewErrorResponse(types.ErrorTypeAPI, "internal gateway error"), http.StatusBadGateway
}
