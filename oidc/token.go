package oidc

import "time"

const expirySkew = 10 * time.Second

// Token is the validated result of a successful authorization flow.  It is
// what lifecycle listeners receive as event data.
type Token struct {
	IdToken           IdToken
	AccessToken       AccessToken
	RefreshToken      RefreshToken
	AuthorizationCode string
	Expiry            time.Time
}

// Expired reports whether the token's expiry has passed, with a small skew
// so callers don't present a token that dies in flight.  A zero Expiry
// never expires.
func (t *Token) Expired() bool {
	if t.Expiry.IsZero() {
		return false
	}
	return t.Expiry.Round(0).Before(time.Now().Add(expirySkew))
}

// Valid reports whether the token carries a usable credential.
func (t *Token) Valid() bool {
	if t == nil {
		return false
	}
	if t.AccessToken == "" && t.IdToken == "" && t.AuthorizationCode == "" {
		return false
	}
	return !t.Expired()
}
