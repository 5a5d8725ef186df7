package oidc

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"
)

// ValidateResponse checks a raw provider response against the correlation
// values generated for the attempt and the claims the configuration
// expects.  Checks run in order: provider error payload, state, nonce,
// audience, authorized party, expiration, subject.  Every failure is a
// typed validation error; nothing here panics or throws.
//
// State comparison is constant-time and fails closed: a mismatch signals a
// potential cross-site request forgery.  The nonce, audience, and
// authorized-party checks are individually disable-able via the
// configuration for providers that omit the claim.
//
// When isRefresh is true a response without an id token (or without a
// subject claim) is tolerated if it carries an access token; code-flow
// providers may not re-issue an id token on renewal.
//
// Supported options: WithClock, which supplies the clock the expiration
// check reads.
func ValidateResponse(c *Config, resp *Response, expectedState string, expectedNonce string, isRefresh bool, opt ...Option) error {
	const op = "oidc.ValidateResponse"
	if c == nil {
		return fmt.Errorf("%s: configuration is nil: %w", op, ErrNilParameter)
	}
	if resp == nil {
		return fmt.Errorf("%s: response is nil: %w", op, ErrNilParameter)
	}
	opts := getValidateOpts(opt...)
	if err := resp.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if subtle.ConstantTimeCompare([]byte(resp.State), []byte(expectedState)) != 1 {
		return fmt.Errorf("%s: response state and expected state are not equal: %w", op, ErrInvalidState)
	}

	if resp.IdToken == "" {
		if isRefresh && resp.AccessToken != "" {
			return nil
		}
		if strings.Contains(c.ResponseType, "id_token") {
			return fmt.Errorf("%s: %w", op, ErrMissingIdToken)
		}
		return nil
	}

	claims, err := resp.IdToken.standardClaims()
	if err != nil {
		return fmt.Errorf("%s: unable to read id_token claims: %w", op, ErrLoginFailed)
	}
	if !c.SkipNonceCheck && claims.Nonce != expectedNonce {
		return fmt.Errorf("%s: id_token nonce and expected nonce are not equal: %w", op, ErrInvalidNonce)
	}
	if !c.SkipAudienceCheck && !claims.Audience.Contains(c.ClientID) {
		return fmt.Errorf("%s: id_token audience does not include the client id: %w", op, ErrInvalidAudience)
	}
	if !c.SkipAuthorizedPartyCheck && claims.AuthorizedParty != "" && claims.AuthorizedParty != c.ClientID {
		return fmt.Errorf("%s: id_token authorized party is not the client id: %w", op, ErrInvalidAuthorizedParty)
	}
	if claims.Expiry != 0 && time.Unix(claims.Expiry, 0).Before(opts.withClock.Now()) {
		return fmt.Errorf("%s: id_token is expired: %w", op, ErrExpiredToken)
	}
	if claims.Subject == "" && !(isRefresh && resp.AccessToken != "") {
		return fmt.Errorf("%s: id_token has no subject: %w", op, ErrLoginFailed)
	}
	return nil
}

// validateOptions is the set of available options for ValidateResponse.
type validateOptions struct {
	withClock Clock
}

func getValidateOpts(opt ...Option) validateOptions {
	opts := validateOptions{withClock: SystemClock()}
	ApplyOpts(&opts, opt...)
	return opts
}
