package api

import (
	"net/http"
)

// Error represents an API error response.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Status  int               `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodePreconditionFailed = "PRECONDITION_FAILED"
	ErrCodeUnavailable        = "UNAVAILABLE"
)

// Standard errors
var (
	ErrInternalServer = &Error{
		Code:    ErrCodeInternalError,
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	}

	ErrUnavailable = &Error{
		Code:    ErrCodeUnavailable,
		Message: "Storage temporarily unavailable",
		Status:  http.StatusServiceUnavailable,
	}
)
