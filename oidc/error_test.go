package oidc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/authkit/oidcflow/oidc/flow"
	"github.com/stretchr/testify/assert"
)

func TestIsValidationError(t *testing.T) {
	t.Parallel()
	validation := []error{
		ErrInvalidState,
		ErrInvalidNonce,
		ErrInvalidAudience,
		ErrInvalidAuthorizedParty,
		ErrExpiredToken,
		ErrExpiredRequest,
		ErrMissingIdToken,
		ErrLoginFailed,
	}
	for _, err := range validation {
		assert.True(t, IsValidationError(err), err.Error())
		wrapped := fmt.Errorf("op: %w", err)
		assert.True(t, IsValidationError(wrapped), wrapped.Error())
	}

	assert.False(t, IsValidationError(nil))
	assert.False(t, IsValidationError(ErrInvalidParameter))
	assert.False(t, IsValidationError(flow.ErrTimeout))
	assert.False(t, IsValidationError(errors.New("boom")))
}

func TestIsTransportError(t *testing.T) {
	t.Parallel()
	transport := []error{
		flow.ErrTimeout,
		flow.ErrWindowClosed,
		flow.ErrPopupBlocked,
	}
	for _, err := range transport {
		assert.True(t, IsTransportError(err), err.Error())
		wrapped := fmt.Errorf("op: %w", err)
		assert.True(t, IsTransportError(wrapped), wrapped.Error())
	}

	assert.False(t, IsTransportError(nil))
	assert.False(t, IsTransportError(ErrInvalidState))
	assert.False(t, IsTransportError(errors.New("boom")))
}
