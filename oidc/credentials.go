package oidc

import "encoding/json"

// AccessToken is the bearer credential the flows obtain for calls to
// secured endpoints.  Its String and JSON forms are redacted so a token
// never leaks through logs or serialized snapshots; read the raw value via
// a string conversion.
type AccessToken string

// RedactedAccessToken is the redacted form of an access token.
const RedactedAccessToken = "[REDACTED: access_token]"

func (t AccessToken) String() string {
	return RedactedAccessToken
}

func (t AccessToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedAccessToken)
}

// RefreshToken is the longer-lived renewal credential some providers issue
// alongside the access token.  Redacted the same way.
type RefreshToken string

// RedactedRefreshToken is the redacted form of a refresh token.
const RedactedRefreshToken = "[REDACTED: refresh_token]"

func (t RefreshToken) String() string {
	return RedactedRefreshToken
}

func (t RefreshToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedRefreshToken)
}
