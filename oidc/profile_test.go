package oidc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_Apply(t *testing.T) {
	t.Parallel()
	_, priv := TestGenerateKeys(t)
	now := time.Now()

	t.Run("derives-expirations", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		idToken := TestIDToken(t, priv, "client-id", "n_abc", time.Hour, nil)
		p := &Profile{Error: "stale failure"}
		resp := &Response{
			IdToken:     idToken,
			AccessToken: "at-123",
			ExpiresIn:   2 * time.Minute,
		}
		require.NoError(p.apply(resp, now))
		assert.Equal(t, idToken, p.IdToken)
		assert.Equal(t, AccessToken("at-123"), p.AccessToken)
		assert.Equal(t, now.Add(2*time.Minute), p.AccessTokenExpiry)
		assert.WithinDuration(t, now.Add(time.Hour), p.IdTokenExpiry, 5*time.Second)
		assert.Empty(t, p.Error)
	})
	t.Run("access-expiry-falls-back-to-id-token", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		idToken := TestIDToken(t, priv, "client-id", "n_abc", time.Hour, nil)
		p := &Profile{}
		require.NoError(p.apply(&Response{IdToken: idToken, AccessToken: "at-123"}, now))
		assert.Equal(t, p.IdTokenExpiry, p.AccessTokenExpiry)
	})
	t.Run("renewal-without-id-token-keeps-existing", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		idToken := TestIDToken(t, priv, "client-id", "n_abc", time.Hour, nil)
		p := &Profile{}
		require.NoError(p.apply(&Response{IdToken: idToken, AccessToken: "at-1", ExpiresIn: time.Minute}, now))

		require.NoError(p.apply(&Response{AccessToken: "at-2", ExpiresIn: 2 * time.Minute}, now))
		assert.Equal(t, idToken, p.IdToken)
		assert.Equal(t, AccessToken("at-2"), p.AccessToken)
		assert.Equal(t, now.Add(2*time.Minute), p.AccessTokenExpiry)
	})
	t.Run("refresh-token-and-code", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		p := &Profile{}
		require.NoError(p.apply(&Response{RefreshToken: "rt-1", AuthorizationCode: "code-1"}, now))
		assert.Equal(t, RefreshToken("rt-1"), p.RefreshToken)
		assert.Equal(t, "code-1", p.AuthorizationCode)
	})
	t.Run("nil-response", func(t *testing.T) {
		t.Parallel()
		err := (&Profile{}).apply(nil, now)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNilParameter)
	})
	t.Run("unparseable-id-token", func(t *testing.T) {
		t.Parallel()
		err := (&Profile{}).apply(&Response{IdToken: "not a jwt"}, now)
		require.Error(t, err)
	})
}

func TestProfile_Expired(t *testing.T) {
	t.Parallel()
	// a fixed reference instant makes the skew edges exact
	now := time.Unix(1700000000, 0)
	tests := []struct {
		name    string
		profile Profile
		idWant  bool
		atWant  bool
	}{
		{
			name:    "empty",
			profile: Profile{},
			idWant:  true,
			atWant:  true,
		},
		{
			name: "fresh",
			profile: Profile{
				IdToken:           "id",
				AccessToken:       "at",
				IdTokenExpiry:     now.Add(time.Hour),
				AccessTokenExpiry: now.Add(time.Hour),
			},
			idWant: false,
			atWant: false,
		},
		{
			name: "past-expiry",
			profile: Profile{
				IdToken:           "id",
				AccessToken:       "at",
				IdTokenExpiry:     now.Add(-time.Minute),
				AccessTokenExpiry: now.Add(-time.Minute),
			},
			idWant: true,
			atWant: true,
		},
		{
			name: "within-skew",
			profile: Profile{
				IdToken:           "id",
				AccessToken:       "at",
				IdTokenExpiry:     now.Add(expirySkew / 2),
				AccessTokenExpiry: now.Add(expirySkew / 2),
			},
			idWant: true,
			atWant: true,
		},
		{
			name: "at-skew-boundary",
			profile: Profile{
				IdToken:           "id",
				AccessToken:       "at",
				IdTokenExpiry:     now.Add(expirySkew),
				AccessTokenExpiry: now.Add(expirySkew),
			},
			idWant: false,
			atWant: false,
		},
		{
			name: "no-recorded-expiry",
			profile: Profile{
				IdToken:     "id",
				AccessToken: "at",
			},
			idWant: false,
			atWant: false,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.idWant, tt.profile.IdTokenExpired(now))
			assert.Equal(t, tt.atWant, tt.profile.AccessTokenExpired(now))
		})
	}
}

func TestProfile_Clearing(t *testing.T) {
	t.Parallel()
	seed := func() *Profile {
		return &Profile{
			IdToken:          "id",
			AccessToken:      "at",
			LocalState:       "st_abc",
			Nonce:            "n_abc",
			Error:            "boom",
			ErrorDescription: "it broke",
		}
	}
	t.Run("clear", func(t *testing.T) {
		t.Parallel()
		p := seed()
		p.Clear()
		assert.Equal(t, Profile{}, *p)
	})
	t.Run("clear-errors-keeps-tokens", func(t *testing.T) {
		t.Parallel()
		p := seed()
		p.ClearErrors()
		assert.Empty(t, p.Error)
		assert.Empty(t, p.ErrorDescription)
		assert.Equal(t, IdToken("id"), p.IdToken)
		assert.Equal(t, AccessToken("at"), p.AccessToken)
	})
	t.Run("clear-correlation", func(t *testing.T) {
		t.Parallel()
		p := seed()
		p.ClearCorrelation()
		assert.Empty(t, p.LocalState)
		assert.Empty(t, p.Nonce)
		assert.Equal(t, IdToken("id"), p.IdToken)
	})
}

func TestProfile_TokenAndExpiry(t *testing.T) {
	t.Parallel()
	idExpiry := time.Now().Add(time.Hour).Truncate(time.Second)
	atExpiry := time.Now().Add(time.Minute).Truncate(time.Second)

	p := &Profile{
		IdToken:       "id",
		AccessToken:   "at",
		IdTokenExpiry: idExpiry,
	}
	assert.Equal(t, idExpiry, p.expiry())
	assert.Equal(t, idExpiry, p.token().Expiry)

	p.AccessTokenExpiry = atExpiry
	assert.Equal(t, atExpiry, p.expiry())
	assert.Equal(t, atExpiry, p.token().Expiry)
}

func TestProfile_SaveAndLoad(t *testing.T) {
	t.Parallel()
	t.Run("round-trip", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		s := NewMemoryStorage()
		want := &Profile{
			IdToken:           "id",
			AccessToken:       "at",
			RefreshToken:      "rt",
			AuthorizationCode: "code",
			IdTokenExpiry:     time.Unix(1700000000, 0),
			AccessTokenExpiry: time.Unix(1700000600, 0),
			LocalState:        "st_abc",
			Nonce:             "n_abc",
			RedirectReturnURL: "https://app.example.com/somewhere",
			RedirectAction:    redirectActionLogin,
			Error:             "boom",
			ErrorDescription:  "it broke",
		}
		require.NoError(want.save(s, ScopeSession))

		got, err := loadProfile(s, ScopeSession)
		require.NoError(err)
		assert.Equal(t, want, got)
	})
	t.Run("empty-fields-are-deleted", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		s := NewMemoryStorage()
		p := &Profile{IdToken: "id", AccessToken: "at"}
		require.NoError(p.save(s, ScopeSession))

		p.AccessToken = ""
		require.NoError(p.save(s, ScopeSession))

		v, err := s.Get(storageKey(ScopeSession, keyAccessToken))
		require.NoError(err)
		assert.Empty(t, v)

		got, err := loadProfile(s, ScopeSession)
		require.NoError(err)
		assert.Empty(t, got.AccessToken)
		assert.Equal(t, IdToken("id"), got.IdToken)
	})
	t.Run("scopes-do-not-collide", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		s := NewMemoryStorage()
		session := &Profile{IdToken: "session-id"}
		durable := &Profile{IdToken: "durable-id"}
		require.NoError(session.save(s, ScopeSession))
		require.NoError(durable.save(s, ScopeDurable))

		got, err := loadProfile(s, ScopeSession)
		require.NoError(err)
		assert.Equal(t, IdToken("session-id"), got.IdToken)
		got, err = loadProfile(s, ScopeDurable)
		require.NoError(err)
		assert.Equal(t, IdToken("durable-id"), got.IdToken)
	})
	t.Run("missing-keys-load-zero", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		got, err := loadProfile(NewMemoryStorage(), ScopeSession)
		require.NoError(err)
		assert.Equal(t, &Profile{}, got)
	})
	t.Run("nil-storage", func(t *testing.T) {
		t.Parallel()
		_, err := loadProfile(nil, ScopeSession)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNilParameter)
		err = (&Profile{}).save(nil, ScopeSession)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNilParameter)
	})
}

func TestProfile_SetError(t *testing.T) {
	t.Parallel()
	p := &Profile{}
	p.setError(nil)
	assert.Empty(t, p.Error)
	p.setError(errors.New("boom"))
	assert.Equal(t, "boom", p.Error)
}
