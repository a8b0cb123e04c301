package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		kind  Kind
		fatal bool
	}{
		{"invalid input", NewInvalidInput("missing email", nil), KindInvalidInput, false},
		{"invalid credentials", NewInvalidCredentials(), KindInvalidCredentials, false},
		{"unauthorized", NewUnauthorized("expired"), KindUnauthorized, true},
		{"not found", NewNotFound("profile", nil), KindNotFound, true},
		{"transient", NewTransient("timeout", errors.New("i/o timeout")), KindTransient, false},
		{"internal", NewInternalError(errors.New("boom")), KindInternal, false},
		{"plain error", errors.New("boom"), KindInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewTransient("network", nil)))
	assert.False(t, IsTransient(NewUnauthorized("expired")))
	assert.False(t, IsTransient(errors.New("plain")))
}

func TestProfileUnavailablePreservesCauseKind(t *testing.T) {
	notFound := NewProfileUnavailable(NewNotFound("profile", nil))
	assert.Equal(t, KindNotFound, KindOf(notFound))
	assert.True(t, IsFatal(notFound))

	unauthorized := NewProfileUnavailable(NewUnauthorized("expired"))
	assert.Equal(t, KindUnauthorized, KindOf(unauthorized))

	// Anything else normalizes to Unauthorized so the caller still
	// sees an auth failure, not a backend detail.
	other := NewProfileUnavailable(errors.New("boom"))
	assert.Equal(t, KindUnauthorized, KindOf(other))
}

func TestToDomainErrorMapsRowMisses(t *testing.T) {
	de := ToDomainError(pgx.ErrNoRows)
	require.NotNil(t, de)
	assert.Equal(t, KindNotFound, de.Kind)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
}

func TestToDomainErrorPassesThrough(t *testing.T) {
	original := NewTransient("timeout", nil)
	de := ToDomainError(original)
	assert.Equal(t, KindTransient, de.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, de.HTTPStatus)
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewTransient("wrapper", cause)
	assert.True(t, errors.Is(err, cause))
}
