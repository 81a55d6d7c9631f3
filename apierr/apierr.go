// Package apierr defines the client-facing error kinds and their HTTP status codes.
package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies a failure for the caller.
type Kind string

const (
	KindValidation Kind = "validation_failed"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindInternal   Kind = "internal_error"
)

// Error carries a user-facing message together with its kind and optional cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Internal wraps an unexpected error; the message is a generic prefix such as "upload failed".
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: string(KindInternal), Message: message, Err: err}
}

// Status maps a kind to its HTTP status. Conflicts are client errors reported as 400
// so existing clients keep branching on success/message alone.
func Status(kind Kind) int {
	switch kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Result is the envelope every mutating endpoint answers with.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// OK builds a success envelope.
func OK(message string) Result {
	return Result{Success: true, Message: message}
}

// Respond writes err as a failure envelope. Errors that are not *Error are treated
// as internal with fallback as the generic message.
func Respond(c *gin.Context, err error, fallback string) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = Internal(fallback, err)
	}
	if apiErr.Kind == KindInternal {
		_ = c.Error(err)
	}
	code := apiErr.Code
	if code == "" {
		code = string(apiErr.Kind)
	}
	c.JSON(Status(apiErr.Kind), Result{Success: false, Message: apiErr.Error(), Code: code})
}
