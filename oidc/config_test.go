package oidc

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/authkit/oidcflow/oidc/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()
	const (
		providerURL = "https://idp.example.com"
		clientID    = "client-id"
		redirectURL = "https://app.example.com/callback"
	)
	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		c, err := NewConfig(ProviderGeneric, providerURL, clientID, redirectURL)
		require.NoError(err)
		assert.Equal(t, "id_token token", c.ResponseType)
		assert.Equal(t, flow.Iframe, c.LoginVariant)
		assert.Equal(t, ScopeSession, c.StorageScope)
		assert.True(t, c.AutoRefresh)
		assert.Equal(t, DefaultAutoRefreshBuffer, c.AutoRefreshBuffer)
		assert.Equal(t, redirectURL, c.LogoutRedirectURL)
	})
	t.Run("options", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		c, err := NewConfig(ProviderAuth0, providerURL, clientID, redirectURL,
			WithClientSecret("secret"),
			WithResponseType("code"),
			WithScopes([]string{"profile", "email", "profile"}),
			WithLogoutRedirectURL("https://app.example.com/bye"),
			WithLoginVariant(flow.Popup),
			WithDisabledVariants(flow.NewTab),
			WithStorageScope(ScopeDurable),
			WithAutoRefresh(false),
			WithAutoRefreshBuffer(30*time.Second),
			WithExtraParams(map[string]string{"audience": "api"}),
			WithSecuredRoutes([]string{"/admin"}),
			WithSecuredEndpoints([]string{"https://api.example.com"}),
			WithoutNonceCheck(),
			WithoutAudienceCheck(),
			WithoutAuthorizedPartyCheck(),
		)
		require.NoError(err)
		assert.Equal(t, ClientSecret("secret"), c.ClientSecret)
		assert.Equal(t, "code", c.ResponseType)
		assert.Equal(t, []string{"profile", "email"}, c.Scopes)
		assert.Equal(t, "https://app.example.com/bye", c.LogoutRedirectURL)
		assert.Equal(t, flow.Popup, c.LoginVariant)
		assert.Equal(t, []flow.Variant{flow.NewTab}, c.DisabledVariants)
		assert.Equal(t, ScopeDurable, c.StorageScope)
		assert.False(t, c.AutoRefresh)
		assert.Equal(t, 30*time.Second, c.AutoRefreshBuffer)
		assert.Equal(t, map[string]string{"audience": "api"}, c.ExtraParams)
		assert.True(t, c.SkipNonceCheck)
		assert.True(t, c.SkipAudienceCheck)
		assert.True(t, c.SkipAuthorizedPartyCheck)
	})
	tests := []struct {
		name        string
		kind        ProviderKind
		providerURL string
		clientID    string
		redirectURL string
		opt         []Option
		wantErr     error
	}{
		{
			name:        "unknown-provider-kind",
			kind:        ProviderKind("unknown"),
			providerURL: providerURL,
			clientID:    clientID,
			redirectURL: redirectURL,
			wantErr:     ErrUnknownProvider,
		},
		{
			name:        "empty-client-id",
			kind:        ProviderGeneric,
			providerURL: providerURL,
			clientID:    "",
			redirectURL: redirectURL,
			wantErr:     ErrInvalidParameter,
		},
		{
			name:        "empty-provider-url",
			kind:        ProviderGeneric,
			providerURL: "",
			clientID:    clientID,
			redirectURL: redirectURL,
			wantErr:     ErrInvalidParameter,
		},
		{
			name:        "non-http-provider-url",
			kind:        ProviderGeneric,
			providerURL: "ldap://idp.example.com",
			clientID:    clientID,
			redirectURL: redirectURL,
			wantErr:     ErrInvalidParameter,
		},
		{
			name:        "empty-redirect-url",
			kind:        ProviderGeneric,
			providerURL: providerURL,
			clientID:    clientID,
			redirectURL: "",
			wantErr:     ErrInvalidParameter,
		},
		{
			name:        "unsupported-response-type",
			kind:        ProviderGeneric,
			providerURL: providerURL,
			clientID:    clientID,
			redirectURL: redirectURL,
			opt:         []Option{WithResponseType("token id_token code nonsense")},
			wantErr:     ErrInvalidParameter,
		},
		{
			name:        "unknown-storage-scope",
			kind:        ProviderGeneric,
			providerURL: providerURL,
			clientID:    clientID,
			redirectURL: redirectURL,
			opt:         []Option{WithStorageScope(StorageScope("forever"))},
			wantErr:     ErrInvalidParameter,
		},
		{
			name:        "unknown-login-variant",
			kind:        ProviderGeneric,
			providerURL: providerURL,
			clientID:    clientID,
			redirectURL: redirectURL,
			opt:         []Option{WithLoginVariant(flow.Variant("modal"))},
			wantErr:     ErrInvalidParameter,
		},
		{
			name:        "unknown-disabled-variant",
			kind:        ProviderGeneric,
			providerURL: providerURL,
			clientID:    clientID,
			redirectURL: redirectURL,
			opt:         []Option{WithDisabledVariants(flow.Variant("modal"))},
			wantErr:     ErrInvalidParameter,
		},
		{
			name:        "negative-refresh-buffer",
			kind:        ProviderGeneric,
			providerURL: providerURL,
			clientID:    clientID,
			redirectURL: redirectURL,
			opt:         []Option{WithAutoRefreshBuffer(-time.Second)},
			wantErr:     ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewConfig(tt.kind, tt.providerURL, tt.clientID, tt.redirectURL, tt.opt...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_Validate_NilConfig(t *testing.T) {
	t.Parallel()
	var c *Config
	err := c.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNilParameter)
}

func TestConfig_VariantEnabled(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	c, err := NewConfig(ProviderGeneric, "https://idp.example.com", "client-id", "https://app.example.com/callback",
		WithDisabledVariants(flow.Popup, flow.NewTab))
	require.NoError(err)
	assert.True(t, c.VariantEnabled(flow.Iframe))
	assert.True(t, c.VariantEnabled(flow.Redirect))
	assert.False(t, c.VariantEnabled(flow.Popup))
	assert.False(t, c.VariantEnabled(flow.NewTab))
}

func TestConfig_SecuredMatching(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	c, err := NewConfig(ProviderGeneric, "https://idp.example.com", "client-id", "https://app.example.com/callback",
		WithSecuredRoutes([]string{"/admin", "/account"}),
		WithSecuredEndpoints([]string{"https://api.example.com/v1"}))
	require.NoError(err)

	assert.True(t, c.IsSecuredRoute("/admin"))
	assert.True(t, c.IsSecuredRoute("/admin/users"))
	assert.True(t, c.IsSecuredRoute("/account"))
	assert.False(t, c.IsSecuredRoute("/public"))

	assert.True(t, c.IsSecuredEndpoint("https://api.example.com/v1/orders"))
	assert.False(t, c.IsSecuredEndpoint("https://other.example.com/v1"))
}

func TestConfig_HTTPClient(t *testing.T) {
	t.Parallel()
	t.Run("no-ca", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		c, err := NewConfig(ProviderGeneric, "https://idp.example.com", "client-id", "https://app.example.com/callback")
		require.NoError(err)
		client, err := c.HTTPClient()
		require.NoError(err)
		require.NotNil(client)
	})
	t.Run("invalid-ca", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		c, err := NewConfig(ProviderGeneric, "https://idp.example.com", "client-id", "https://app.example.com/callback",
			WithConfigProviderCA("not a pem"))
		require.NoError(err)
		_, err = c.HTTPClient()
		require.Error(err)
		assert.ErrorIs(t, err, ErrInvalidCACert)
	})
}

func TestClientSecret_Redaction(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	secret := ClientSecret("super-secret")
	assert.Equal(t, RedactedClientSecret, secret.String())
	b, err := json.Marshal(secret)
	require.NoError(err)
	assert.Equal(t, `"`+RedactedClientSecret+`"`, string(b))
}
