package oidc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	jose "gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// TestGenerateKeys will generate a test ECDSA P-256 pub/priv key pair
func TestGenerateKeys(t *testing.T) (pub, priv string) {
	t.Helper()
	require := require.New(t)
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)

	{
		derBytes, err := x509.MarshalECPrivateKey(privateKey)
		require.NoError(err)

		pemBlock := &pem.Block{
			Type:  "EC PRIVATE KEY",
			Bytes: derBytes,
		}
		priv = string(pem.EncodeToMemory(pemBlock))
	}
	{
		derBytes, err := x509.MarshalPKIXPublicKey(privateKey.Public())
		require.NoError(err)

		pemBlock := &pem.Block{
			Type:  "PUBLIC KEY",
			Bytes: derBytes,
		}
		pub = string(pem.EncodeToMemory(pemBlock))
	}

	return pub, priv
}

// TestSignJWT will bundle the provided claims into a test signed JWT. The provided key
// must be ECDSA.
func TestSignJWT(t *testing.T, ecdsaPrivKeyPEM string, claims jwt.Claims, privateClaims interface{}) string {
	t.Helper()
	require := require.New(t)
	var key *ecdsa.PrivateKey
	block, _ := pem.Decode([]byte(ecdsaPrivKeyPEM))
	if block != nil {
		var err error
		key, err = x509.ParseECPrivateKey(block.Bytes)
		require.NoError(err)
	}

	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.ES256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(err)

	raw, err := jwt.Signed(sig).
		Claims(claims).
		Claims(privateClaims).
		CompactSerialize()
	require.NoError(err)

	return raw
}

// TestIDToken signs a minimal id_token for the given client id and nonce,
// expiring after expireIn.
func TestIDToken(t *testing.T, priv string, clientID string, nonce string, expireIn time.Duration, additionalClaims map[string]interface{}) IdToken {
	t.Helper()
	now := time.Now()
	claims := jwt.Claims{
		Issuer:    "https://example.com/",
		Subject:   "alice@example.com",
		Audience:  jwt.Audience{clientID},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(now.Add(expireIn)),
	}
	privateClaims := map[string]interface{}{
		"nonce": nonce,
	}
	for k, v := range additionalClaims {
		privateClaims[k] = v
	}
	return IdToken(TestSignJWT(t, priv, claims, privateClaims))
}

// TestClock is a manually advanced Clock, so tests can drive the renewal
// scheduler deterministically.
type TestClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*testTimer
}

// NewTestClock creates a TestClock frozen at now.
func NewTestClock(now time.Time) *TestClock {
	return &TestClock{now: now}
}

// Now implements Clock.Now.
func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc implements Clock.AfterFunc.
func (c *TestClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	tt := &testTimer{at: c.now.Add(d), fn: fn, mu: &c.mu}
	c.timers = append(c.timers, tt)
	return tt
}

// Advance moves the clock forward, firing due timers in deadline order.
// Timer callbacks run without the clock's lock held, so they may arm new
// timers.
func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var due []*testTimer
	remaining := c.timers[:0]
	for _, tt := range c.timers {
		if !tt.stopped && !tt.at.After(now) {
			due = append(due, tt)
			continue
		}
		remaining = append(remaining, tt)
	}
	c.timers = remaining
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, tt := range due {
		tt.fn()
	}
}

// PendingTimers reports how many timers are armed and unexpired.
func (c *TestClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, tt := range c.timers {
		if !tt.stopped {
			n++
		}
	}
	return n
}

type testTimer struct {
	at      time.Time
	fn      func()
	stopped bool

	// mu is the owning clock's lock; stopped is read under it during
	// Advance.
	mu *sync.Mutex
}

func (t *testTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}
