package oidc

import (
	"fmt"
	"strconv"
	"time"
)

// redirect actions persisted alongside the profile so the controller knows
// which flow a redirect round trip belongs to on the next load.
const (
	redirectActionLogin  = "login"
	redirectActionLogout = "logout"
)

// Profile is the mutable authentication state for the current browser
// context.  It is exclusive-owned by the controller: all mutation happens
// under the controller's lock.
type Profile struct {
	IdToken           IdToken
	AccessToken       AccessToken
	RefreshToken      RefreshToken
	AuthorizationCode string

	// Derived expirations, captured when a validated response is applied.
	IdTokenExpiry     time.Time
	AccessTokenExpiry time.Time

	// LocalState and Nonce are the single-use correlation values of the
	// in-flight authorization attempt.  They are cleared immediately after
	// validation, successful or not.
	LocalState string
	Nonce      string

	// RedirectReturnURL is restored after a redirect-flow round trip.
	RedirectReturnURL string

	// RedirectAction records which flow started an in-flight redirect.
	RedirectAction string

	// Error fields hold the most recent flow failure.
	Error            string
	ErrorDescription string
}

// IdTokenExpired reports whether the id token is absent or past its exp
// claim as of now, allowing the usual skew.
func (p *Profile) IdTokenExpired(now time.Time) bool {
	if p.IdToken == "" {
		return true
	}
	if p.IdTokenExpiry.IsZero() {
		return false
	}
	return p.IdTokenExpiry.Round(0).Before(now.Add(expirySkew))
}

// AccessTokenExpired reports whether the access token is absent or past its
// declared lifetime as of now, allowing the usual skew.
func (p *Profile) AccessTokenExpired(now time.Time) bool {
	if p.AccessToken == "" {
		return true
	}
	if p.AccessTokenExpiry.IsZero() {
		return false
	}
	return p.AccessTokenExpiry.Round(0).Before(now.Add(expirySkew))
}

// Clear resets the whole profile.
func (p *Profile) Clear() {
	*p = Profile{}
}

// ClearErrors drops only the recorded failure, keeping tokens; a failed
// renewal must not discard a still-valid session.
func (p *Profile) ClearErrors() {
	p.Error = ""
	p.ErrorDescription = ""
}

// ClearCorrelation rotates out the single-use state and nonce.
func (p *Profile) ClearCorrelation() {
	p.LocalState = ""
	p.Nonce = ""
}

// apply copies a validated response into the profile.  Token expirations
// are derived here: the access token's from the declared expires_in, the id
// token's from its exp claim.  A renewal response that carries no id token
// keeps the existing one.
func (p *Profile) apply(resp *Response, now time.Time) error {
	const op = "Profile.apply"
	if resp == nil {
		return fmt.Errorf("%s: response is nil: %w", op, ErrNilParameter)
	}
	if resp.IdToken != "" {
		expiry, err := resp.IdToken.Expiry()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		p.IdToken = resp.IdToken
		p.IdTokenExpiry = expiry
	}
	if resp.AccessToken != "" {
		p.AccessToken = resp.AccessToken
		switch {
		case resp.ExpiresIn > 0:
			p.AccessTokenExpiry = now.Add(resp.ExpiresIn)
		default:
			p.AccessTokenExpiry = p.IdTokenExpiry
		}
	}
	if resp.RefreshToken != "" {
		p.RefreshToken = resp.RefreshToken
	}
	if resp.AuthorizationCode != "" {
		p.AuthorizationCode = resp.AuthorizationCode
	}
	p.ClearErrors()
	return nil
}

// setError records a flow failure on the profile.
func (p *Profile) setError(err error) {
	if err == nil {
		return
	}
	p.Error = err.Error()
}

// token snapshots the profile's credentials as an event payload.
func (p *Profile) token() *Token {
	expiry := p.AccessTokenExpiry
	if expiry.IsZero() {
		expiry = p.IdTokenExpiry
	}
	return &Token{
		IdToken:           p.IdToken,
		AccessToken:       p.AccessToken,
		RefreshToken:      p.RefreshToken,
		AuthorizationCode: p.AuthorizationCode,
		Expiry:            expiry,
	}
}

// expiry returns the instant the session's credentials lapse, preferring
// the access token's lifetime.
func (p *Profile) expiry() time.Time {
	if !p.AccessTokenExpiry.IsZero() {
		return p.AccessTokenExpiry
	}
	return p.IdTokenExpiry
}

// storage field keys; each profile field persists individually so the
// redacting JSON marshalers never see credentials.
const (
	keyIdToken           = "id-token"
	keyAccessToken       = "access-token"
	keyRefreshToken      = "refresh-token"
	keyAuthorizationCode = "code"
	keyIdTokenExpiry     = "id-token-expiry"
	keyAccessTokenExpiry = "access-token-expiry"
	keyLocalState        = "state"
	keyNonce             = "nonce"
	keyReturnURL         = "return-url"
	keyRedirectAction    = "redirect-action"
	keyError             = "error"
	keyErrorDescription  = "error-description"
)

func storageKey(scope StorageScope, field string) string {
	return fmt.Sprintf("oidcflow.%s.%s", scope, field)
}

// loadProfile reads a persisted profile from storage; missing keys load as
// zero values.
func loadProfile(s Storage, scope StorageScope) (*Profile, error) {
	const op = "oidc.loadProfile"
	if s == nil {
		return nil, fmt.Errorf("%s: storage is nil: %w", op, ErrNilParameter)
	}
	p := &Profile{}
	read := func(field string) (string, error) {
		return s.Get(storageKey(scope, field))
	}
	var err error
	var v string
	if v, err = read(keyIdToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.IdToken = IdToken(v)
	if v, err = read(keyAccessToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.AccessToken = AccessToken(v)
	if v, err = read(keyRefreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.RefreshToken = RefreshToken(v)
	if p.AuthorizationCode, err = read(keyAuthorizationCode); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.IdTokenExpiry, err = readTime(s, scope, keyIdTokenExpiry); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.AccessTokenExpiry, err = readTime(s, scope, keyAccessTokenExpiry); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.LocalState, err = read(keyLocalState); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.Nonce, err = read(keyNonce); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.RedirectReturnURL, err = read(keyReturnURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.RedirectAction, err = read(keyRedirectAction); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.Error, err = read(keyError); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.ErrorDescription, err = read(keyErrorDescription); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// save writes the profile to storage, one key per field.
func (p *Profile) save(s Storage, scope StorageScope) error {
	const op = "Profile.save"
	if s == nil {
		return fmt.Errorf("%s: storage is nil: %w", op, ErrNilParameter)
	}
	fields := map[string]string{
		keyIdToken:           string(p.IdToken),
		keyAccessToken:       string(p.AccessToken),
		keyRefreshToken:      string(p.RefreshToken),
		keyAuthorizationCode: p.AuthorizationCode,
		keyIdTokenExpiry:     writeTime(p.IdTokenExpiry),
		keyAccessTokenExpiry: writeTime(p.AccessTokenExpiry),
		keyLocalState:        p.LocalState,
		keyNonce:             p.Nonce,
		keyReturnURL:         p.RedirectReturnURL,
		keyRedirectAction:    p.RedirectAction,
		keyError:             p.Error,
		keyErrorDescription:  p.ErrorDescription,
	}
	for field, value := range fields {
		key := storageKey(scope, field)
		if value == "" {
			if err := s.Delete(key); err != nil {
				return fmt.Errorf("%s: unable to delete %s: %w", op, field, err)
			}
			continue
		}
		if err := s.Set(key, value); err != nil {
			return fmt.Errorf("%s: unable to persist %s: %w", op, field, err)
		}
	}
	return nil
}

func readTime(s Storage, scope StorageScope, field string) (time.Time, error) {
	v, err := s.Get(storageKey(scope, field))
	if err != nil {
		return time.Time{}, err
	}
	if v == "" {
		return time.Time{}, nil
	}
	unix, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, nil
	}
	return time.Unix(unix, 0), nil
}

func writeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.Unix(), 10)
}
