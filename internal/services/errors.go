package services

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAuth       ErrorKind = "auth"
	KindNotFound   ErrorKind = "not_found"
	KindUpstream   ErrorKind = "upstream"
	KindInternal   ErrorKind = "internal"
)

// AppError is the only error shape handlers translate into responses.
// Message is safe to show to callers; Err is for server-side logs.
type AppError struct {
	Kind    ErrorKind
	Message string
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

var (
	ErrConfigNotFound       = &AppError{Kind: KindNotFound, Message: "Chat configuration not found"}
	ErrChatUnavailable      = &AppError{Kind: KindNotFound, Message: "Chat configuration not found or disabled"}
	ErrOrganizationRequired = &AppError{Kind: KindAuth, Message: "Organization not found"}
	ErrSlugExhausted        = errors.New("could not find a free public slug")
)

func NewValidationError(message string, details interface{}) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Details: details}
}

func NewUpstreamError(message string, err error) *AppError {
	e := &AppError{Kind: KindUpstream, Message: message, Err: err}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func NewInternalError(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "Internal server error", Err: err}
}
