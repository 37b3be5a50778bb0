// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for dualview.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrResourceExhausted = fmt.Errorf("resource exhausted")
	ErrNotSupported      = fmt.Errorf("operation not supported")
	ErrDisposed          = fmt.Errorf("resource already disposed")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeResourceExhausted
	ErrCodeTimeout
	ErrCodeNotSupported
	ErrCodeAlreadyExists
	ErrCodeNotFound
	ErrCodeInternal
	// ErrCodeConfiguration marks a layout mismatch between aliased views.
	ErrCodeConfiguration
	// ErrCodeUnsafeAccess marks direct view access while tasks hold the buffer.
	ErrCodeUnsafeAccess
	// ErrCodeExternalCollaborator marks a renderer or scheduler rejecting input.
	ErrCodeExternalCollaborator
	// ErrCodeTaskFailed marks a scheduled task that panicked.
	ErrCodeTaskFailed
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeNotSupported:
		return "not_supported"
	case ErrCodeAlreadyExists:
		return "already_exists"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeConfiguration:
		return "configuration"
	case ErrCodeUnsafeAccess:
		return "unsafe_access"
	case ErrCodeExternalCollaborator:
		return "external_collaborator"
	case ErrCodeTaskFailed:
		return "task_failed"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is; matching is by code only.
var (
	ErrConfiguration        = &Error{Code: ErrCodeConfiguration, Message: "configuration error"}
	ErrUnsafeAccess         = &Error{Code: ErrCodeUnsafeAccess, Message: "unsafe access: scheduled tasks still hold the buffer"}
	ErrExternalCollaborator = &Error{Code: ErrCodeExternalCollaborator, Message: "external collaborator rejected input"}
	ErrTaskFailed           = &Error{Code: ErrCodeTaskFailed, Message: "scheduled task failed"}
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if len(e.Context) != 0 {
		msg = fmt.Sprintf("%s (context: %+v)", msg, e.Context)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}
