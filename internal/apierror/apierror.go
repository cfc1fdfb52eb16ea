// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package so that internal
// details (stack traces, SQL errors) never reach them.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps one or more field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation error", Fields: fields}
}

// StockError is returned when a withdrawal exceeds the quantity on hand,
// so the client can show the item and both quantities.
type StockError struct {
	Detail    string `json:"detail"`
	Item      string `json:"item"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}
