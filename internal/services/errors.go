package services

import (
	"errors"
	"net/http"
)

// Kind classifies a failure crossing the service boundary.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindProcessing   Kind = "processing"
	KindStorage      Kind = "storage"
	KindPersistence  Kind = "persistence"
	KindProvider     Kind = "provider"
	KindDiscovery    Kind = "discovery"
)

// Error is the only error type returned by Orchestrator methods. Message is
// safe to show to the caller; Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus gives the status class a transport should report.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindProcessing:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusForbidden
	case KindProvider, KindDiscovery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// errDenied is the single message used for every ownership failure so a
// caller cannot probe for rows owned by someone else.
const errDenied = "resource not found or access denied"

func unauthorized(err error) *Error {
	return newError(KindUnauthorized, errDenied, err)
}

// KindOf returns the Kind of err, or KindPersistence when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// AsError converts any error into an *Error, keeping an existing one.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(KindPersistence, "internal error", err)
}
