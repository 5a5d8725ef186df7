package oidc

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Response is the raw set of parameters an identity provider returned from
// an authorization round trip, before any validation.
type Response struct {
	State             string
	AuthorizationCode string
	IdToken           IdToken
	AccessToken       AccessToken
	RefreshToken      RefreshToken
	TokenType         string

	// ExpiresIn is the access token lifetime the provider declared, zero
	// when absent.
	ExpiresIn time.Duration

	// Error fields mirror the oauth2 error response.  See:
	// https://openid.net/specs/openid-connect-core-1_0.html#AuthError
	Error            string
	ErrorDescription string
	ErrorURI         string
}

// ParseResponse reads a Response out of raw provider parameters.
func ParseResponse(v url.Values) *Response {
	r := &Response{
		State:             v.Get("state"),
		AuthorizationCode: v.Get("code"),
		IdToken:           IdToken(v.Get("id_token")),
		AccessToken:       AccessToken(v.Get("access_token")),
		RefreshToken:      RefreshToken(v.Get("refresh_token")),
		TokenType:         v.Get("token_type"),
		Error:             v.Get("error"),
		ErrorDescription:  v.Get("error_description"),
		ErrorURI:          v.Get("error_uri"),
	}
	if s := v.Get("expires_in"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			r.ExpiresIn = time.Duration(n) * time.Second
		}
	}
	return r
}

// ParseResponseURL reads a Response out of a redirect landing URL.
// Providers return parameters in the query (code flow) or the fragment
// (implicit flow); both are merged, with fragment values winning.
func ParseResponseURL(u *url.URL) (*Response, error) {
	const op = "oidc.ParseResponseURL"
	if u == nil {
		return nil, fmt.Errorf("%s: url is nil: %w", op, ErrNilParameter)
	}
	merged := url.Values{}
	for k, vs := range u.Query() {
		merged[k] = vs
	}
	if u.Fragment != "" {
		frag, err := url.ParseQuery(u.Fragment)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to parse url fragment: %w", op, ErrInvalidParameter)
		}
		for k, vs := range frag {
			merged[k] = vs
		}
	}
	return ParseResponse(merged), nil
}

// HasParams reports whether the response carries any authorization
// parameters at all; a landing URL without them is not a flow
// continuation.
func (r *Response) HasParams() bool {
	return r.State != "" || r.AuthorizationCode != "" || r.IdToken != "" || r.AccessToken != "" || r.Error != ""
}

// Err returns a typed error when the provider answered with an oauth2
// error response, and nil otherwise.
func (r *Response) Err() error {
	const op = "Response.Err"
	if r.Error == "" {
		return nil
	}
	if r.ErrorDescription != "" {
		return fmt.Errorf("%s: provider returned %q (%s): %w", op, r.Error, r.ErrorDescription, ErrLoginFailed)
	}
	return fmt.Errorf("%s: provider returned %q: %w", op, r.Error, ErrLoginFailed)
}
