// Package apperr defines the error taxonomy of the login flow. Every error
// carries a stable machine-readable code and the HTTP status it maps to;
// the wrapped cause is for logs only.
package apperr

import (
	"errors"
	"net/http"
)

type Error struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on Code so wrapped copies compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrBadRequest       = &Error{Code: "bad_request", Status: http.StatusBadRequest, Message: "Missing Google ID token"}
	ErrInvalidToken     = &Error{Code: "invalid_token", Status: http.StatusUnauthorized, Message: "Invalid token"}
	ErrStoreUnavailable = &Error{Code: "store_unavailable", Status: http.StatusInternalServerError, Message: "account store unavailable"}
	ErrConfiguration    = &Error{Code: "configuration_error", Status: http.StatusInternalServerError, Message: "server misconfigured"}
	ErrInternal         = &Error{Code: "internal_error", Status: http.StatusInternalServerError, Message: "unexpected error"}
)

// Wrap returns a copy of base carrying err as its cause. A nil err gives
// a nil error, never a typed nil *Error.
func Wrap(err error, base *Error) error {
	if err == nil {
		return nil
	}
	if base == nil {
		base = ErrInternal
	}
	wrapped := *base
	wrapped.Err = err
	return &wrapped
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// Status maps err to an HTTP status, defaulting to 500.
func Status(err error) int {
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func Code(err error) string {
	if e, ok := As(err); ok && e.Code != "" {
		return e.Code
	}
	return ErrInternal.Code
}

// Message returns the client-safe message; wrapped causes are never exposed.
func Message(err error) string {
	if e, ok := As(err); ok && e.Message != "" {
		return e.Message
	}
	return ErrInternal.Message
}
