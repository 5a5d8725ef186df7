package oidc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/authkit/oidcflow/oidc/flow"
	"github.com/authkit/oidcflow/oidc/internal/strutils"
	cleanhttp "github.com/hashicorp/go-cleanhttp"
)

type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// ProviderKind selects an endpoint strategy from the closed set of known
// identity provider shapes.  ProviderGeneric falls back to
// {ProviderURL}/authorize and {ProviderURL}/logout; ProviderDiscovery
// resolves endpoints from the issuer's well-known document.
type ProviderKind string

const (
	ProviderGeneric   ProviderKind = "generic"
	ProviderAuth0     ProviderKind = "auth0"
	ProviderOkta      ProviderKind = "okta"
	ProviderKeycloak  ProviderKind = "keycloak"
	ProviderAzure     ProviderKind = "azure"
	ProviderDiscovery ProviderKind = "discovery"
)

// StorageScope selects how long persisted session state outlives the page.
type StorageScope string

const (
	// ScopeSession keeps session state for the lifetime of the browsing
	// session.
	ScopeSession StorageScope = "session"

	// ScopeDurable keeps session state across browsing sessions.
	ScopeDurable StorageScope = "durable"
)

// DefaultAutoRefreshBuffer is how far ahead of expiration the refresh timer
// fires when no buffer is configured.
const DefaultAutoRefreshBuffer = 60 * time.Second

// supportedResponseTypes are the response_type values the controller knows
// how to correlate back to a request.
var supportedResponseTypes = []string{
	"code",
	"token",
	"id_token",
	"id_token token",
	"code id_token token",
}

// Config is the controller configuration.  It is validated once at
// construction; every later misuse of the API surfaces as a typed
// configuration error from the call that misused it.
type Config struct {
	// ProviderKind selects the endpoint strategy.
	ProviderKind ProviderKind

	// ProviderURL is the identity provider's base URL (the issuer for the
	// discovery strategy).
	ProviderURL string

	// ClientID is the relying party id.
	ClientID string

	// ClientSecret is the relying party secret.  Optional; browser-style
	// public clients usually have none.
	ClientSecret ClientSecret

	// ResponseType is the OAuth response_type requested of the provider.
	ResponseType string

	// Scopes is a list of additional oidc scopes to request of the provider.
	// The required "openid" scope is requested by default.
	Scopes []string

	// RedirectURL is where the provider sends responses back.
	RedirectURL string

	// LogoutRedirectURL is where the provider sends the user after a
	// deauthorization.  Defaults to RedirectURL.
	LogoutRedirectURL string

	// LoginVariant is the transport used when the controller must log in on
	// its own initiative (token retrieval, silent renewal).
	LoginVariant flow.Variant

	// DisabledVariants lists login transports the application has turned
	// off.  Requesting one is a configuration error.
	DisabledVariants []flow.Variant

	// StorageScope keys the persisted session profile.
	StorageScope StorageScope

	// SkipNonceCheck disables nonce claim validation for providers that
	// omit the claim.  An escape hatch, not a default.
	SkipNonceCheck bool

	// SkipAudienceCheck disables aud claim validation.
	SkipAudienceCheck bool

	// SkipAuthorizedPartyCheck disables azp claim validation.
	SkipAuthorizedPartyCheck bool

	// AutoRefresh renews tokens ahead of expiration.  When false the
	// refresh timer still fires a notice-only refresh event.
	AutoRefresh bool

	// AutoRefreshBuffer is how far ahead of expiration the refresh timer
	// fires.
	AutoRefreshBuffer time.Duration

	// ExtraParams are additional query parameters appended to every
	// authorization URL.
	ExtraParams map[string]string

	// SecuredRoutes are application route prefixes that require a session.
	SecuredRoutes []string

	// SecuredEndpoints are outgoing request URL prefixes that should carry
	// a bearer token.
	SecuredEndpoints []string

	// ProviderCA is an optional CA cert to use when sending requests to the
	// provider.
	ProviderCA string
}

// NewConfig composes a validated controller configuration.
// Supported options: WithClientSecret, WithResponseType, WithScopes,
// WithLogoutRedirectURL, WithLoginVariant, WithDisabledVariants,
// WithStorageScope, WithAutoRefresh, WithAutoRefreshBuffer,
// WithExtraParams, WithSecuredRoutes, WithSecuredEndpoints,
// WithConfigProviderCA, WithoutNonceCheck, WithoutAudienceCheck,
// WithoutAuthorizedPartyCheck.
func NewConfig(kind ProviderKind, providerURL string, clientID string, redirectURL string, opt ...Option) (*Config, error) {
	const op = "oidc.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		ProviderKind:             kind,
		ProviderURL:              providerURL,
		ClientID:                 clientID,
		RedirectURL:              redirectURL,
		ClientSecret:             opts.withClientSecret,
		ResponseType:             opts.withResponseType,
		Scopes:                   strutils.RemoveDuplicatesStable(opts.withScopes, false),
		LogoutRedirectURL:        opts.withLogoutRedirectURL,
		LoginVariant:             opts.withLoginVariant,
		DisabledVariants:         opts.withDisabledVariants,
		StorageScope:             opts.withStorageScope,
		SkipNonceCheck:           opts.withoutNonceCheck,
		SkipAudienceCheck:        opts.withoutAudienceCheck,
		SkipAuthorizedPartyCheck: opts.withoutAzpCheck,
		AutoRefresh:              opts.withAutoRefresh,
		AutoRefreshBuffer:        opts.withAutoRefreshBuffer,
		ExtraParams:              opts.withExtraParams,
		SecuredRoutes:            opts.withSecuredRoutes,
		SecuredEndpoints:         opts.withSecuredEndpoints,
		ProviderCA:               opts.withProviderCA,
	}
	if c.LogoutRedirectURL == "" {
		c.LogoutRedirectURL = redirectURL
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid configuration: %w", op, err)
	}
	return c, nil
}

// Validate the controller configuration.  Among other checks, it verifies
// the provider kind is a member of the closed set and the provider URL
// parses, but it does not verify the provider is reachable.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: configuration is nil: %w", op, ErrNilParameter)
	}
	switch c.ProviderKind {
	case ProviderGeneric, ProviderAuth0, ProviderOkta, ProviderKeycloak, ProviderAzure, ProviderDiscovery:
	default:
		return fmt.Errorf("%s: provider kind %q: %w", op, c.ProviderKind, ErrUnknownProvider)
	}
	if c.ClientID == "" {
		return fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	}
	if c.ProviderURL == "" {
		return fmt.Errorf("%s: provider URL is empty: %w", op, ErrInvalidParameter)
	}
	u, err := url.Parse(c.ProviderURL)
	if err != nil {
		return fmt.Errorf("%s: provider URL %s is invalid: %w", op, c.ProviderURL, ErrInvalidParameter)
	}
	if !strutils.StrListContains([]string{"https", "http"}, u.Scheme) {
		return fmt.Errorf("%s: provider URL %s scheme is not http or https: %w", op, c.ProviderURL, ErrInvalidParameter)
	}
	if c.RedirectURL == "" {
		return fmt.Errorf("%s: redirect URL is empty: %w", op, ErrInvalidParameter)
	}
	if _, err := url.Parse(c.RedirectURL); err != nil {
		return fmt.Errorf("%s: redirect URL %s is invalid: %w", op, c.RedirectURL, ErrInvalidParameter)
	}
	if !strutils.StrListContains(supportedResponseTypes, c.ResponseType) {
		return fmt.Errorf("%s: unsupported response type %q: %w", op, c.ResponseType, ErrInvalidParameter)
	}
	switch c.StorageScope {
	case ScopeSession, ScopeDurable:
	default:
		return fmt.Errorf("%s: unknown storage scope %q: %w", op, c.StorageScope, ErrInvalidParameter)
	}
	switch c.LoginVariant {
	case flow.Iframe, flow.Popup, flow.NewTab, flow.Redirect:
	default:
		return fmt.Errorf("%s: unknown login variant %q: %w", op, c.LoginVariant, ErrInvalidParameter)
	}
	for _, v := range c.DisabledVariants {
		switch v {
		case flow.Iframe, flow.Popup, flow.NewTab, flow.Redirect:
		default:
			return fmt.Errorf("%s: unknown disabled variant %q: %w", op, v, ErrInvalidParameter)
		}
	}
	if c.AutoRefreshBuffer < 0 {
		return fmt.Errorf("%s: auto refresh buffer is negative: %w", op, ErrInvalidParameter)
	}
	return nil
}

// VariantEnabled reports whether the given login transport is allowed by
// the configuration.
func (c *Config) VariantEnabled(v flow.Variant) bool {
	for _, d := range c.DisabledVariants {
		if d == v {
			return false
		}
	}
	return true
}

// IsSecuredRoute reports whether the application route requires a session.
// Matching is by path prefix; route-pattern syntax is the host's concern.
func (c *Config) IsSecuredRoute(path string) bool {
	for _, r := range c.SecuredRoutes {
		if strings.HasPrefix(path, r) {
			return true
		}
	}
	return false
}

// IsSecuredEndpoint reports whether an outgoing request URL should carry a
// bearer token.
func (c *Config) IsSecuredEndpoint(rawURL string) bool {
	for _, e := range c.SecuredEndpoints {
		if strings.HasPrefix(rawURL, e) {
			return true
		}
	}
	return false
}

// HTTPClient is a helper function that creates a new http client for
// requests to the configured provider.
func (c *Config) HTTPClient() (*http.Client, error) {
	const op = "Config.HTTPClient"
	client := cleanhttp.DefaultPooledClient()
	if c.ProviderCA != "" {
		transport, err := tlsTransport(c.ProviderCA)
		if err != nil {
			if errors.Is(err, ErrInvalidCACert) {
				return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
			}
			return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
		}
		client.Transport = transport
	}
	return client, nil
}

// configOptions is the set of available options
type configOptions struct {
	withClientSecret      ClientSecret
	withResponseType      string
	withScopes            []string
	withLogoutRedirectURL string
	withLoginVariant      flow.Variant
	withDisabledVariants  []flow.Variant
	withStorageScope      StorageScope
	withoutNonceCheck     bool
	withoutAudienceCheck  bool
	withoutAzpCheck       bool
	withAutoRefresh       bool
	withAutoRefreshBuffer time.Duration
	withExtraParams       map[string]string
	withSecuredRoutes     []string
	withSecuredEndpoints  []string
	withProviderCA        string
}

// configDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func configDefaults() configOptions {
	return configOptions{
		withResponseType:      "id_token token",
		withLoginVariant:      flow.Iframe,
		withStorageScope:      ScopeSession,
		withAutoRefresh:       true,
		withAutoRefreshBuffer: DefaultAutoRefreshBuffer,
	}
}

// getConfigOpts gets the defaults and applies the opt overrides passed in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithClientSecret provides an optional relying party secret.
func WithClientSecret(s ClientSecret) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withClientSecret = s
		}
	}
}

// WithResponseType provides an optional response_type; the default is
// "id_token token".
func WithResponseType(rt string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withResponseType = rt
		}
	}
}

// WithScopes provides an optional list of scopes to request beyond the
// required "openid" scope.
func WithScopes(scopes []string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithLogoutRedirectURL provides an optional post-logout redirect target.
func WithLogoutRedirectURL(u string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withLogoutRedirectURL = u
		}
	}
}

// WithLoginVariant provides the default login transport used for
// controller-initiated flows.
func WithLoginVariant(v flow.Variant) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withLoginVariant = v
		}
	}
}

// WithDisabledVariants turns off login transports.
func WithDisabledVariants(v ...flow.Variant) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withDisabledVariants = v
		}
	}
}

// WithStorageScope selects session-lifetime vs durable persistence.
func WithStorageScope(s StorageScope) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withStorageScope = s
		}
	}
}

// WithoutNonceCheck disables nonce claim validation.
func WithoutNonceCheck() Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withoutNonceCheck = true
		}
	}
}

// WithoutAudienceCheck disables aud claim validation.
func WithoutAudienceCheck() Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withoutAudienceCheck = true
		}
	}
}

// WithoutAuthorizedPartyCheck disables azp claim validation.
func WithoutAuthorizedPartyCheck() Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withoutAzpCheck = true
		}
	}
}

// WithAutoRefresh enables or disables automatic silent renewal ahead of
// expiration.  Disabled, the refresh timer still fires a notice-only
// refresh event.
func WithAutoRefresh(enabled bool) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAutoRefresh = enabled
		}
	}
}

// WithAutoRefreshBuffer provides how far ahead of expiration the refresh
// timer fires.
func WithAutoRefreshBuffer(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAutoRefreshBuffer = d
		}
	}
}

// WithExtraParams provides additional query parameters: on a Config they
// apply to every authorization URL, on a single flow call to that flow
// only.
func WithExtraParams(p map[string]string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *configOptions:
			v.withExtraParams = p
		case *flowOptions:
			v.withExtraParams = p
		}
	}
}

// WithSecuredRoutes provides application route prefixes that require a
// session.
func WithSecuredRoutes(routes []string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withSecuredRoutes = routes
		}
	}
}

// WithSecuredEndpoints provides outgoing request URL prefixes that should
// carry a bearer token.
func WithSecuredEndpoints(endpoints []string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withSecuredEndpoints = endpoints
		}
	}
}

// WithConfigProviderCA provides an optional CA cert for requests to the
// provider.
func WithConfigProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}
