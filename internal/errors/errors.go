package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// Machine-readable codes carried in the error_code extension
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeOperatorNotFound = "OPERATOR_NOT_FOUND"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
)

// problemTypes maps an error code onto its RFC 7807 type URI
var problemTypes = map[string]string{
	CodeValidationFailed: TypeValidation,
	CodeNotFound:         TypeNotFound,
	CodeOperatorNotFound: TypeOperatorNotFound,
	CodeRateLimited:      TypeRateLimit,
	CodeUnavailable:      TypeServiceDown,
}

// APIError is an error the HTTP layer can answer with directly
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError describes one rejected request parameter
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates an APIError
func New(statusCode int, errorCode, message string) *APIError {
	return NewWithDetails(statusCode, errorCode, message, nil)
}

// NewWithDetails creates an APIError carrying extra detail for the client
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

var (
	ErrNotFound          = New(http.StatusNotFound, CodeNotFound, "Resource not found")
	ErrOperatorNotFound  = New(http.StatusNotFound, CodeOperatorNotFound, "Operadora não encontrada")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded")
)

// NewValidationErrors rejects one or more parameters with a 400
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", errs)
}
