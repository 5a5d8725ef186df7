package oidc

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/oauth2"
)

// DefaultRequestExpiry bounds how long an authorization attempt may take
// before its correlation values are considered stale.
const DefaultRequestExpiry = 5 * time.Minute

// Request represents one authorization attempt.  It holds the single-use
// correlation values that bind the attempt to the provider's eventual
// response: State is carried through the round trip to defeat cross-site
// request forgery, Nonce is embedded in the issued id_token to defeat
// replay.  State and Nonce are never equal.
type Request struct {
	state      string
	nonce      string
	expiration time.Time
}

// NewRequest creates a Request with freshly generated state and nonce
// values, expiring after expireIn.
func NewRequest(expireIn time.Duration) (*Request, error) {
	const op = "oidc.NewRequest"
	if expireIn <= 0 {
		return nil, fmt.Errorf("%s: expireIn not greater than zero: %w", op, ErrInvalidParameter)
	}
	state, err := NewID("st")
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate a request's state: %w", op, err)
	}
	nonce, err := NewID("n")
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate a request's nonce: %w", op, err)
	}
	return &Request{
		state:      state,
		nonce:      nonce,
		expiration: time.Now().Add(expireIn),
	}, nil
}

// State returns the request's state correlation value.
func (r *Request) State() string { return r.state }

// Nonce returns the request's nonce correlation value.
func (r *Request) Nonce() string { return r.nonce }

// IsExpired returns true if the request has expired.
func (r *Request) IsExpired() bool {
	return r.expiration.Before(time.Now())
}

// AuthURL builds the provider authorization URL for the request, embedding
// the state, nonce, client id, scopes, response type, redirect target, and
// any configured extra parameters.  Per-call extras override configured
// ones.
func AuthURL(ctx context.Context, c *Config, strategy EndpointStrategy, r *Request, extra map[string]string) (string, error) {
	const op = "oidc.AuthURL"
	if c == nil {
		return "", fmt.Errorf("%s: configuration is nil: %w", op, ErrNilParameter)
	}
	if strategy == nil {
		return "", fmt.Errorf("%s: endpoint strategy is nil: %w", op, ErrNilParameter)
	}
	if r == nil {
		return "", fmt.Errorf("%s: request is nil: %w", op, ErrNilParameter)
	}
	if r.State() == r.Nonce() {
		return "", fmt.Errorf("%s: request state and nonce cannot be equal: %w", op, ErrInvalidParameter)
	}
	endpoint, err := strategy.AuthorizeEndpoint(ctx, c)
	if err != nil {
		return "", fmt.Errorf("%s: unable to resolve authorize endpoint: %w", op, err)
	}

	// "openid" is required for oidc flows
	scopes := append([]string{"openid"}, c.Scopes...)

	oauth2Config := oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: string(c.ClientSecret),
		RedirectURL:  c.RedirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL: endpoint,
		},
		Scopes: scopes,
	}
	authCodeOpts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("nonce", r.Nonce()),
	}
	if c.ResponseType != "code" {
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam("response_type", c.ResponseType))
	}

	merged := make(map[string]string, len(c.ExtraParams)+len(extra))
	for k, v := range c.ExtraParams {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam(k, merged[k]))
	}
	return oauth2Config.AuthCodeURL(r.State(), authCodeOpts...), nil
}
