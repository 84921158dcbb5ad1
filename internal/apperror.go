package internal

import (
	"errors"
	"net/http"
)

// ErrKind partitions failures the way handlers map them to responses.
type ErrKind string

const (
	KindValidation  ErrKind = "validation"
	KindNotFound    ErrKind = "not_found"
	KindUpstream    ErrKind = "upstream"
	KindPersistence ErrKind = "persistence"
)

// AppError is the only error shape that crosses the API boundary. Message
// is short and human-readable; wrapped causes stay in the logs.
type AppError struct {
	Kind    ErrKind `json:"-"`
	Status  int     `json:"code"`
	Message string  `json:"message"`
	Err     error   `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(status int, msg string) *AppError {
	return &AppError{Status: status, Message: msg}
}

func NewValidationError(msg string, err error) *AppError {
	return &AppError{Kind: KindValidation, Status: http.StatusBadRequest, Message: msg, Err: err}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Status: http.StatusNotFound, Message: msg}
}

func NewUpstreamError(msg string, err error) *AppError {
	return &AppError{Kind: KindUpstream, Status: http.StatusInternalServerError, Message: msg, Err: err}
}

func NewPersistenceError(msg string, err error) *AppError {
	return &AppError{Kind: KindPersistence, Status: http.StatusInternalServerError, Message: msg, Err: err}
}

// AsAppError unwraps err down to an AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusOf maps any error to an HTTP status; unknown errors are 500.
func StatusOf(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
