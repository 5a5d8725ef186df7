package oidc

import (
	"errors"

	"github.com/authkit/oidcflow/oidc/flow"
)

var (
	// configuration errors: returned synchronously by the call that misused
	// the API.
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrNilParameter         = errors.New("nil parameter")
	ErrInvalidCACert        = errors.New("invalid CA certificate")
	ErrUnknownProvider      = errors.New("unknown provider")
	ErrUnknownEventKind     = errors.New("unknown event kind")
	ErrLoginVariantDisabled = errors.New("login variant is disabled")
	ErrIdGeneratorFailed    = errors.New("id generation failed")
	ErrNoNavigator          = errors.New("no navigator configured")

	// validation errors: delivered as the error result of the flow that
	// produced the response and passed to lifecycle listeners.
	ErrInvalidState           = errors.New("invalid state")
	ErrInvalidNonce           = errors.New("invalid nonce")
	ErrInvalidAudience        = errors.New("invalid audience")
	ErrInvalidAuthorizedParty = errors.New("invalid authorized party")
	ErrExpiredToken           = errors.New("token is expired")
	ErrExpiredRequest         = errors.New("authentication request is expired")
	ErrMissingIdToken         = errors.New("id_token is missing")
	ErrLoginFailed            = errors.New("login failed")

	// ErrOperationInFlight is returned when a redirect flow already owns a
	// category and a second flow of the same category is requested before
	// the redirect round trip completes.
	ErrOperationInFlight = errors.New("operation already in flight")

	ErrNotFound = errors.New("not found")
)

// IsValidationError reports whether err was raised while checking a provider
// response against the expected correlation values and claims.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidState,
		ErrInvalidNonce,
		ErrInvalidAudience,
		ErrInvalidAuthorizedParty,
		ErrExpiredToken,
		ErrExpiredRequest,
		ErrMissingIdToken,
		ErrLoginFailed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsTransportError reports whether err came from the transport that carried
// the flow (timeout, closed window, blocked popup).  Callers can use it to
// decide whether an interactive retry makes sense.
func IsTransportError(err error) bool {
	for _, target := range []error{
		flow.ErrTimeout,
		flow.ErrWindowClosed,
		flow.ErrPopupBlocked,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
