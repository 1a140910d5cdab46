package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// AppError is a failure with a client-facing message and a kind that maps onto an HTTP status.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
	// Fields carries per-field validation messages for BadRequest errors.
	Fields map[string]string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func ErrBadRequest(message string) *AppError {
	return &AppError{Kind: KindBadRequest, Message: message}
}

// ErrValidation wraps the field map produced by ValidateStruct.
func ErrValidation(fields map[string]string) *AppError {
	return &AppError{Kind: KindBadRequest, Message: "Validation failed", Fields: fields}
}

func ErrUnauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func ErrForbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func ErrNotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func ErrConflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// ErrInternal keeps cause for logs; the client only ever sees message.
func ErrInternal(message string, cause error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: cause}
}

// KindOf returns the kind of err, KindInternal for anything that is not an AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
