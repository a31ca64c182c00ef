package store

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound               ErrorCode = "NOT_FOUND"
	CodeUnauthenticated        ErrorCode = "UNAUTHENTICATED"
	CodePermissionDenied       ErrorCode = "PERMISSION_DENIED"
	CodeAlreadyExists          ErrorCode = "ALREADY_EXISTS"
	CodeInvalidStateTransition ErrorCode = "INVALID_STATE_TRANSITION"
	CodeSchemaValidation       ErrorCode = "SCHEMA_VALIDATION_ERROR"
	CodeBackendUnavailable     ErrorCode = "BACKEND_UNAVAILABLE"
)

type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewNotFound(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewUnauthenticated marks a failed credential check. Distinct from
// PermissionDenied: the caller never proved who they are.
func NewUnauthenticated(format string, args ...interface{}) *Error {
	return &Error{Code: CodeUnauthenticated, Message: fmt.Sprintf(format, args...)}
}

func NewPermissionDenied(format string, args ...interface{}) *Error {
	return &Error{Code: CodePermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func NewAlreadyExists(format string, args ...interface{}) *Error {
	return &Error{Code: CodeAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidStateTransition(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInvalidStateTransition, Message: fmt.Sprintf(format, args...)}
}

func NewSchemaValidation(format string, args ...interface{}) *Error {
	return &Error{Code: CodeSchemaValidation, Message: fmt.Sprintf(format, args...)}
}

func NewBackendUnavailable(format string, args ...interface{}) *Error {
	return &Error{Code: CodeBackendUnavailable, Message: fmt.Sprintf(format, args...)}
}

// CodeOf unwraps err looking for a store error code. Unknown errors map to
// BACKEND_UNAVAILABLE since everything below the service layer is a backend.
func CodeOf(err error) ErrorCode {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Code
	}
	return CodeBackendUnavailable
}

func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

func IsAlreadyExists(err error) bool {
	return CodeOf(err) == CodeAlreadyExists
}

func IsPermissionDenied(err error) bool {
	return CodeOf(err) == CodePermissionDenied
}

func IsUnauthenticated(err error) bool {
	return CodeOf(err) == CodeUnauthenticated
}
