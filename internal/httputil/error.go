package httputil

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Error carries the HTTP status a handler wants to answer with.
type Error struct {
	Status  int
	Message string
	Errors  []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewError(status int, message string, errs ...string) *Error {
	return &Error{Status: status, Message: message, Errors: errs}
}

func BadRequest(message string) *Error   { return NewError(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error { return NewError(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error    { return NewError(http.StatusForbidden, message) }
func NotFound(message string) *Error     { return NewError(http.StatusNotFound, message) }
func Conflict(message string) *Error     { return NewError(http.StatusConflict, message) }

// Internal wraps err so the caller's message reaches the client while the
// cause is only logged.
func Internal(message string, err error) error {
	return &internalError{message: message, err: err}
}

type internalError struct {
	message string
	err     error
}

func (e *internalError) Error() string {
	if e.err == nil {
		return e.message
	}
	return e.message + ": " + e.err.Error()
}

func (e *internalError) Unwrap() error { return e.err }

// HandlerFunc is an http.HandlerFunc that reports failure by returning an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

func (fn HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := fn(w, r)
	if err == nil {
		return
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		WriteError(w, apiErr.Status, apiErr.Message, apiErr.Errors...)
		return
	}

	message := "internal server error"
	var ie *internalError
	if errors.As(err, &ie) {
		message = ie.message
	}
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	WriteError(w, http.StatusInternalServerError, message)
}

// Handle adapts an error-returning handler to http.HandlerFunc.
func Handle(fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return HandlerFunc(fn).ServeHTTP
}
