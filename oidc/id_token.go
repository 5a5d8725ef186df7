package oidc

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/square/go-jose.v2/jwt"
)

// IdToken is an oidc id_token
type IdToken string

// RedactedIdToken is the redacted string or json for an oidc id_token
const RedactedIdToken = "[REDACTED: id_token]"

// String will redact the token
func (t IdToken) String() string {
	return RedactedIdToken
}

// MarshalJSON will redact the token
func (t IdToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedIdToken)
}

// Claims retrieves the IdToken claims.
func (t IdToken) Claims(claims interface{}) error {
	const op = "IdToken.Claims"
	if len(t) == 0 {
		return fmt.Errorf("%s: id_token is empty: %w", op, ErrInvalidParameter)
	}
	if claims == nil {
		return fmt.Errorf("%s: claims interface is nil: %w", op, ErrNilParameter)
	}
	parsed, err := jwt.ParseSigned(string(t))
	if err != nil {
		return fmt.Errorf("%s: unable to parse id_token: %w", op, err)
	}
	if err := parsed.UnsafeClaimsWithoutVerification(claims); err != nil {
		return fmt.Errorf("%s: unable to unmarshal id_token claims: %w", op, err)
	}
	return nil
}

// idTokenClaims are the claims the validator inspects.  Signature
// verification is the provider's responsibility at issuance; validation
// here checks the claims against the controller's expectations.
type idTokenClaims struct {
	Subject         string       `json:"sub"`
	Audience        jwt.Audience `json:"aud"`
	AuthorizedParty string       `json:"azp"`
	Nonce           string       `json:"nonce"`
	Expiry          int64        `json:"exp"`
}

// standardClaims parses the claims the validator and the session profile
// care about.
func (t IdToken) standardClaims() (*idTokenClaims, error) {
	const op = "IdToken.standardClaims"
	var claims idTokenClaims
	if err := t.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &claims, nil
}

// Expiry returns the token's exp claim as a time.Time, or the zero time
// when the token is empty or carries no exp claim.
func (t IdToken) Expiry() (time.Time, error) {
	const op = "IdToken.Expiry"
	claims, err := t.standardClaims()
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if claims.Expiry == 0 {
		return time.Time{}, nil
	}
	return time.Unix(claims.Expiry, 0), nil
}
