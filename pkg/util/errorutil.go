package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Kind classifies an auth error for branching: fatal kinds tear the
// session down, Transient preserves it.
type Kind string

const (
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindNotFound           Kind = "NOT_FOUND"
	KindTransient          Kind = "TRANSIENT"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Kind       Kind
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error requires session teardown.
func (e *DomainError) Fatal() bool {
	return e.Kind == KindUnauthorized || e.Kind == KindNotFound
}

// NewDomainError constructs a DomainError.
func NewDomainError(kind Kind, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Kind: kind, Message: message, HTTPStatus: status, Details: details}
}

func NewInvalidInput(message string, details map[string]any) error {
	return NewDomainError(KindInvalidInput, message, http.StatusBadRequest, details)
}

func NewInvalidCredentials() error {
	return NewDomainError(KindInvalidCredentials, "invalid email or password", http.StatusUnauthorized, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(KindUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Kind:       KindNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewTransient(message string, err error) error {
	return &DomainError{
		Kind:       KindTransient,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewProfileUnavailable signals an all-or-nothing sign-in failure: the
// credentials were accepted but no usable profile exists, so the newly
// issued session has been torn down. The cause's kind is preserved so
// logs can distinguish a missing profile from an invalid session.
func NewProfileUnavailable(cause error) error {
	kind := KindOf(cause)
	if kind != KindNotFound && kind != KindUnauthorized {
		kind = KindUnauthorized
	}
	return &DomainError{
		Kind:       kind,
		Message:    "profile unavailable for this account",
		HTTPStatus: http.StatusUnauthorized,
		Err:        cause,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Kind:       KindInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// KindOf extracts the kind from an error, defaulting to Internal.
func KindOf(err error) Kind {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

// IsFatal reports whether the error forces sign-out.
func IsFatal(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Fatal()
	}
	return false
}

// IsTransient reports whether the error is retryable without session loss.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}

// ToDomainError converts generic errors to DomainError. Row-miss errors
// from the store become NotFound; everything unrecognized is Internal so
// provider-specific failures never leak raw to callers.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Kind:       KindInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
