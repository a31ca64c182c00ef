package lhttp

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/mltrack/mltrack/internal/store"
)

type HttpError struct {
	Code    int
	Message string
	Err     error
}

func FromError(err error) *HttpError {
	if err == nil {
		return nil
	}

	var serr *store.Error
	if errors.As(err, &serr) {
		return &HttpError{
			Code:    statusFromCode(serr.Code),
			Message: serr.Message,
		}
	}

	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchBucket:
			fallthrough
		case s3.ErrCodeNoSuchKey:
			return &HttpError{
				Code:    http.StatusNotFound,
				Message: aerr.Error(),
			}
		}
	}

	// Own type
	if herr, ok := err.(*HttpError); ok {
		return herr
	}

	return &HttpError{Err: err}
}

func statusFromCode(code store.ErrorCode) int {
	switch code {
	case store.CodeNotFound:
		return http.StatusNotFound
	case store.CodeUnauthenticated:
		return http.StatusUnauthorized
	case store.CodePermissionDenied:
		return http.StatusForbidden
	case store.CodeAlreadyExists:
		return http.StatusConflict
	case store.CodeInvalidStateTransition:
		return http.StatusBadRequest
	case store.CodeSchemaValidation:
		return http.StatusBadRequest
	case store.CodeBackendUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("got code %d and message \"%s\"", e.Code, e.Message)
}

func (e *HttpError) Clone() *HttpError {
	return &HttpError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
	}
}

func (e *HttpError) WithPayload(payload string) *HttpError {
	e.Message = payload
	return e
}

func (e *HttpError) SetPayload(payload string) {
	e.Message = payload
}

func NewNotFound(message string) *HttpError {
	return &HttpError{Code: http.StatusNotFound, Message: message}
}

func NewBadGateway(message string) *HttpError {
	return &HttpError{Code: http.StatusBadGateway, Message: message}
}

func NewConflict(message string) *HttpError {
	return &HttpError{Code: http.StatusConflict, Message: message}
}

func NewBadRequest(message string) *HttpError {
	return &HttpError{Code: http.StatusBadRequest, Message: message}
}

func NewInternalError(message string) *HttpError {
	return &HttpError{Code: http.StatusInternalServerError, Message: message}
}

func NewUnauthorized(message string) *HttpError {
	return &HttpError{Code: http.StatusUnauthorized, Message: message}
}

func NewForbidden() *HttpError {
	return &HttpError{Code: http.StatusForbidden, Message: "Forbidden"}
}
