package types

// Error type strings used in client-facing error bodies.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeAuthentication = "authentication_error"
	ErrorTypeRateLimit      = "rate_limit_error"
	ErrorTypeAPI            = "api_error"
)

// ErrorDetail is the inner error object of an error response.
type ErrorDetail struct {
	Message string  `json:"message"`
	Type    string  `json:"type"`
	Param   *string `json:"param,omitempty"`
	Code    *string `json:"code,omitempty"`
}

// ErrorResponse is the top-level error body returned for every failed
// request, on every endpoint.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// NewErrorResponse builds an error body with the given type and message.
func NewErrorResponse(errType, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errType,
		},
	}
}

// NewInvalidRequestError builds a validation error body, optionally
// naming the offending parameter and a machine-readable code.
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	resp := NewErrorResponse(ErrorTypeInvalidRequest, message)
	if param != "" {
		resp.Error.Param = &param
	}
	if code != "" {
		resp.Error.Code = &code
	}
	return resp
}
