// Package apierror provides the error envelope returned to API clients.
// Handlers never write raw DB errors or stack traces; they go through here.
package apierror

// APIError is the canonical body for all 4xx/5xx HTTP responses.
type APIError struct {
	Error string `json:"error"`
	// Field names the offending input on validation failures
	Field string `json:"field,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Error: msg}
}

// NewField builds a validation envelope pointing at one input field.
func NewField(field, msg string) *APIError {
	return &APIError{Error: msg, Field: field}
}

// ValidationError wraps multiple field errors from struct-tag validation.
type ValidationError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Error: "Validation failed", Fields: fields}
}
