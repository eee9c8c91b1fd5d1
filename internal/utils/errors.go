package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the stable machine-readable error classification surfaced to
// API clients alongside the HTTP status code.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation_error"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindUpstream     ErrorKind = "upstream_error"
	KindBusinessRule ErrorKind = "business_rule_violation"
	KindNotVerified  ErrorKind = "not_verified"
)

// AppError is the typed application error. Services return it, the HTTP
// error handler maps it once at the boundary.
type AppError struct {
	Kind    ErrorKind `json:"kind"`
	Code    int       `json:"-"`
	Message string    `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// AsAppError unwraps err into an AppError, if it is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Code: http.StatusBadRequest, Message: message}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Code: http.StatusNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Code: http.StatusConflict, Message: message}
}

func NewUpstreamError(message string) *AppError {
	return &AppError{Kind: KindUpstream, Code: http.StatusBadGateway, Message: message}
}

func NewBusinessRuleError(message string) *AppError {
	return &AppError{Kind: KindBusinessRule, Code: http.StatusBadRequest, Message: message}
}

func NewNotVerifiedError(message string) *AppError {
	return &AppError{Kind: KindNotVerified, Code: http.StatusNotFound, Message: message}
}
