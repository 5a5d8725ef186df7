package oidc

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	coreoidc "github.com/coreos/go-oidc/v3/oidc"
)

// EndpointStrategy resolves the provider URLs a flow needs.  One
// implementation exists per ProviderKind; the generic strategy falls back
// to {ProviderURL}/authorize and {ProviderURL}/logout.
type EndpointStrategy interface {
	// AuthorizeEndpoint returns the provider's authorization endpoint.
	AuthorizeEndpoint(ctx context.Context, c *Config) (string, error)

	// DeauthorizeURL returns the full provider logout URL, including the
	// client id and post-logout redirect parameters.  idTokenHint may be
	// empty.
	DeauthorizeURL(ctx context.Context, c *Config, idTokenHint IdToken) (string, error)
}

// StrategyFor returns the endpoint strategy for the given provider kind.
func StrategyFor(kind ProviderKind) (EndpointStrategy, error) {
	const op = "oidc.StrategyFor"
	switch kind {
	case ProviderGeneric:
		return &pathStrategy{authorizePath: "/authorize", deauthorizePath: "/logout"}, nil
	case ProviderAuth0:
		return &pathStrategy{authorizePath: "/authorize", deauthorizePath: "/v2/logout", logoutReturnParam: "returnTo"}, nil
	case ProviderOkta:
		return &pathStrategy{authorizePath: "/oauth2/v1/authorize", deauthorizePath: "/oauth2/v1/logout"}, nil
	case ProviderKeycloak:
		return &pathStrategy{authorizePath: "/protocol/openid-connect/auth", deauthorizePath: "/protocol/openid-connect/logout"}, nil
	case ProviderAzure:
		return &pathStrategy{authorizePath: "/oauth2/v2.0/authorize", deauthorizePath: "/oauth2/v2.0/logout"}, nil
	case ProviderDiscovery:
		return &discoveryStrategy{}, nil
	default:
		return nil, fmt.Errorf("%s: provider kind %q: %w", op, kind, ErrUnknownProvider)
	}
}

// pathStrategy appends fixed paths to the configured provider URL.
type pathStrategy struct {
	authorizePath   string
	deauthorizePath string

	// logoutReturnParam overrides the post_logout_redirect_uri parameter
	// name for providers that use their own (auth0's returnTo).
	logoutReturnParam string
}

func (s *pathStrategy) AuthorizeEndpoint(_ context.Context, c *Config) (string, error) {
	const op = "pathStrategy.AuthorizeEndpoint"
	if c == nil {
		return "", fmt.Errorf("%s: configuration is nil: %w", op, ErrNilParameter)
	}
	return strings.TrimSuffix(c.ProviderURL, "/") + s.authorizePath, nil
}

func (s *pathStrategy) DeauthorizeURL(_ context.Context, c *Config, idTokenHint IdToken) (string, error) {
	const op = "pathStrategy.DeauthorizeURL"
	if c == nil {
		return "", fmt.Errorf("%s: configuration is nil: %w", op, ErrNilParameter)
	}
	base := strings.TrimSuffix(c.ProviderURL, "/") + s.deauthorizePath
	returnParam := s.logoutReturnParam
	if returnParam == "" {
		returnParam = "post_logout_redirect_uri"
	}
	return buildDeauthorizeURL(base, returnParam, c, idTokenHint)
}

// discoveryStrategy resolves endpoints from the issuer's well-known
// document and caches the result for the controller's lifetime.
type discoveryStrategy struct {
	mu            sync.Mutex
	authURL       string
	endSessionURL string
}

func (s *discoveryStrategy) discover(ctx context.Context, c *Config) error {
	const op = "discoveryStrategy.discover"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authURL != "" {
		return nil
	}
	client, err := c.HTTPClient()
	if err != nil {
		return fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	provider, err := coreoidc.NewProvider(coreoidc.ClientContext(ctx, client), strings.TrimSuffix(c.ProviderURL, "/"))
	if err != nil {
		return fmt.Errorf("%s: unable to discover provider endpoints: %w", op, err)
	}
	s.authURL = provider.Endpoint().AuthURL

	var claims struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := provider.Claims(&claims); err == nil {
		s.endSessionURL = claims.EndSessionEndpoint
	}
	return nil
}

func (s *discoveryStrategy) AuthorizeEndpoint(ctx context.Context, c *Config) (string, error) {
	const op = "discoveryStrategy.AuthorizeEndpoint"
	if c == nil {
		return "", fmt.Errorf("%s: configuration is nil: %w", op, ErrNilParameter)
	}
	if err := s.discover(ctx, c); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return s.authURL, nil
}

func (s *discoveryStrategy) DeauthorizeURL(ctx context.Context, c *Config, idTokenHint IdToken) (string, error) {
	const op = "discoveryStrategy.DeauthorizeURL"
	if c == nil {
		return "", fmt.Errorf("%s: configuration is nil: %w", op, ErrNilParameter)
	}
	if err := s.discover(ctx, c); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	base := s.endSessionURL
	if base == "" {
		// provider advertises no end_session_endpoint
		base = strings.TrimSuffix(c.ProviderURL, "/") + "/logout"
	}
	return buildDeauthorizeURL(base, "post_logout_redirect_uri", c, idTokenHint)
}

func buildDeauthorizeURL(base string, returnParam string, c *Config, idTokenHint IdToken) (string, error) {
	const op = "oidc.buildDeauthorizeURL"
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%s: deauthorize URL %s is invalid: %w", op, base, ErrInvalidParameter)
	}
	q := u.Query()
	q.Set("client_id", c.ClientID)
	q.Set(returnParam, c.LogoutRedirectURL)
	if idTokenHint != "" {
		q.Set("id_token_hint", string(idTokenHint))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
