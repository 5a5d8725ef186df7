package oidc

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/authkit/oidcflow/oidc/flow"
	"github.com/hashicorp/go-hclog"
)

// Navigator is the navigation capability: it performs full-page
// navigations and reports the current location.  It is required for the
// redirect flow variants and for the redirect continuation.
type Navigator interface {
	Navigate(ctx context.Context, rawURL string) error
	Location(ctx context.Context) (*url.URL, error)
}

// Controller drives login, logout and silent-refresh flows against the
// configured identity provider, validates the resulting tokens, schedules
// renewal ahead of expiration, and fans lifecycle events out to listeners.
//
// The controller is safe for concurrent use.  Concurrent flow requests of
// the same category are coalesced into a single provider round trip; every
// caller receives the shared outcome.
type Controller struct {
	config    *Config
	strategy  EndpointStrategy
	transport flow.Transport
	navigator Navigator
	storage   Storage
	clock     Clock
	logger    hclog.Logger

	bus       *eventBus
	inflight  *inflight
	scheduler *renewalScheduler

	// mu guards the session profile; all mutation happens under it.
	mu      sync.Mutex
	profile *Profile

	// backgroundCtx is used for controller-initiated activity: automatic
	// renewal and visibility-triggered refresh attempts.
	backgroundCtx       context.Context
	backgroundCtxCancel context.CancelFunc
}

// NewController creates a Controller for the given configuration and
// transport.  The persisted session profile, if any, is loaded so a
// redirect round trip can be continued via HandleRedirect.
//
// See Controller.Done() which must be called to release controller
// resources.
//
// Supported options: WithLogger, WithClock, WithStorage, WithNavigator,
// WithBroadcaster.
func NewController(c *Config, t flow.Transport, opt ...Option) (*Controller, error) {
	const op = "oidc.NewController"
	if c == nil {
		return nil, fmt.Errorf("%s: configuration is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: configuration is invalid: %w", op, err)
	}
	if t == nil {
		return nil, fmt.Errorf("%s: transport is nil: %w", op, ErrNilParameter)
	}
	opts := getControllerOpts(opt...)

	strategy, err := StrategyFor(c.ProviderKind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	profile, err := loadProfile(opts.withStorage, c.StorageScope)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to load session profile: %w", op, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctrl := &Controller{
		config:              c,
		strategy:            strategy,
		transport:           t,
		navigator:           opts.withNavigator,
		storage:             opts.withStorage,
		clock:               opts.withClock,
		logger:              opts.withLogger,
		bus:                 newEventBus(opts.withBroadcaster, opts.withLogger),
		inflight:            newInflight(),
		profile:             profile,
		backgroundCtx:       ctx,
		backgroundCtxCancel: cancel,
	}
	ctrl.scheduler = newRenewalScheduler(opts.withClock, opts.withLogger, c.AutoRefreshBuffer, ctrl.refreshTimerFired, ctrl.expiredTimerFired)
	return ctrl, nil
}

// Done releases the controller's timers and background resources and must
// be called for every Controller created.
func (c *Controller) Done() {
	if c == nil {
		return
	}
	c.scheduler.pause()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backgroundCtxCancel != nil {
		c.backgroundCtxCancel()
		c.backgroundCtxCancel = nil
	}
}

// On registers a lifecycle listener and returns its registration id, which
// Off takes to remove it.  Listeners for a kind run in registration order.
func (c *Controller) On(kind EventKind, fn Listener) (int, error) {
	return c.bus.on(kind, fn)
}

// Off removes the listener registered under id.
func (c *Controller) Off(kind EventKind, id int) error {
	return c.bus.off(kind, id)
}

// Profile returns a snapshot of the current session profile.
func (c *Controller) Profile() Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.profile
}

// LoginWithIframe runs the login flow in a hidden iframe.
func (c *Controller) LoginWithIframe(ctx context.Context, opt ...Option) (*Token, error) {
	return c.login(ctx, flow.Iframe, opt...)
}

// LoginWithPopup runs the login flow in a popup window.
func (c *Controller) LoginWithPopup(ctx context.Context, opt ...Option) (*Token, error) {
	return c.login(ctx, flow.Popup, opt...)
}

// LoginWithNewTab runs the login flow in a new tab.
func (c *Controller) LoginWithNewTab(ctx context.Context, opt ...Option) (*Token, error) {
	return c.login(ctx, flow.NewTab, opt...)
}

func (c *Controller) login(ctx context.Context, variant flow.Variant, opt ...Option) (*Token, error) {
	const op = "Controller.login"
	if !c.config.VariantEnabled(variant) {
		return nil, fmt.Errorf("%s: %q: %w", op, variant, ErrLoginVariantDisabled)
	}
	opts := getFlowOpts(opt...)
	return c.inflight.do(CategoryLogin, func() (*Token, error) {
		return c.runLogin(ctx, variant, false, opts)
	})
}

// LoginWithRedirect starts the login flow with a full-page navigation.  The
// call returns once the navigation is issued; no response is observed in
// this page lifetime.  The login category stays busy until HandleRedirect
// completes the round trip on the next load.
func (c *Controller) LoginWithRedirect(ctx context.Context, opt ...Option) error {
	const op = "Controller.LoginWithRedirect"
	if !c.config.VariantEnabled(flow.Redirect) {
		return fmt.Errorf("%s: %q: %w", op, flow.Redirect, ErrLoginVariantDisabled)
	}
	if c.navigator == nil {
		return fmt.Errorf("%s: %w", op, ErrNoNavigator)
	}
	opts := getFlowOpts(opt...)
	if err := c.inflight.hold(CategoryLogin); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var returnURL string
	if loc, err := c.navigator.Location(ctx); err == nil && loc != nil {
		returnURL = loc.String()
	}
	_, authURL, err := c.beginFlow(ctx, false, opts)
	if err != nil {
		c.inflight.release(CategoryLogin)
		return fmt.Errorf("%s: %w", op, err)
	}

	c.mu.Lock()
	c.profile.RedirectReturnURL = returnURL
	c.profile.RedirectAction = redirectActionLogin
	c.saveProfileLocked()
	c.mu.Unlock()

	if err := c.navigator.Navigate(ctx, authURL); err != nil {
		c.inflight.release(CategoryLogin)
		navErr := fmt.Errorf("%s: unable to navigate: %w", op, err)
		c.mu.Lock()
		c.profile.ClearCorrelation()
		c.profile.RedirectAction = ""
		c.profile.RedirectReturnURL = ""
		c.profile.setError(navErr)
		c.saveProfileLocked()
		c.mu.Unlock()
		c.bus.fire(EventLogin, navErr, nil)
		return navErr
	}
	return nil
}

// runLogin executes one authorization round trip without de-duplication;
// callers hold the category.
func (c *Controller) runLogin(ctx context.Context, variant flow.Variant, silent bool, opts flowOptions) (*Token, error) {
	const op = "Controller.runLogin"
	req, authURL, err := c.beginFlow(ctx, silent, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	executor, err := c.newExecutor(variant, opts)
	if err != nil {
		c.clearCorrelation()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	vals, err := executor.Execute(ctx, authURL)
	if err != nil {
		transportErr := fmt.Errorf("%s: %w", op, err)
		c.mu.Lock()
		c.profile.ClearCorrelation()
		c.profile.setError(transportErr)
		c.saveProfileLocked()
		c.mu.Unlock()
		c.bus.fire(EventLogin, transportErr, nil)
		return nil, transportErr
	}
	resp := ParseResponse(vals)

	var validationErr error
	switch {
	case req.IsExpired():
		validationErr = fmt.Errorf("%s: %w", op, ErrExpiredRequest)
	default:
		validationErr = ValidateResponse(c.config, resp, req.State(), req.Nonce(), false, WithClock(c.clock))
	}
	if validationErr != nil {
		// fail closed: drop the whole session
		c.mu.Lock()
		c.profile.Clear()
		c.profile.setError(validationErr)
		c.saveProfileLocked()
		c.mu.Unlock()
		c.bus.fire(EventLogin, validationErr, nil)
		return nil, validationErr
	}

	c.mu.Lock()
	c.profile.ClearCorrelation()
	applyErr := c.profile.apply(resp, c.clock.Now())
	if applyErr != nil {
		c.profile.Clear()
		c.profile.setError(applyErr)
		c.saveProfileLocked()
		c.mu.Unlock()
		c.bus.fire(EventLogin, applyErr, nil)
		return nil, applyErr
	}
	c.saveProfileLocked()
	tok := c.profile.token()
	expiry := c.profile.expiry()
	c.mu.Unlock()

	c.scheduler.arm(expiry)
	c.bus.fire(EventLogin, nil, tok)
	return tok, nil
}

// LogoutWithIframe runs the deauthorization flow in a hidden iframe.
func (c *Controller) LogoutWithIframe(ctx context.Context, opt ...Option) error {
	return c.logout(ctx, flow.Iframe, opt...)
}

// LogoutWithPopup runs the deauthorization flow in a popup window.
func (c *Controller) LogoutWithPopup(ctx context.Context, opt ...Option) error {
	return c.logout(ctx, flow.Popup, opt...)
}

// LogoutWithNewTab runs the deauthorization flow in a new tab.
func (c *Controller) LogoutWithNewTab(ctx context.Context, opt ...Option) error {
	return c.logout(ctx, flow.NewTab, opt...)
}

func (c *Controller) logout(ctx context.Context, variant flow.Variant, opt ...Option) error {
	const op = "Controller.logout"
	opts := getFlowOpts(opt...)
	_, err := c.inflight.do(CategoryLogout, func() (*Token, error) {
		c.mu.Lock()
		idTokenHint := c.profile.IdToken
		c.mu.Unlock()

		deauthURL, urlErr := c.strategy.DeauthorizeURL(ctx, c.config, idTokenHint)

		// the local session dies regardless of what the provider round trip
		// does
		c.clearSession()

		if urlErr != nil {
			urlErr = fmt.Errorf("%s: unable to resolve deauthorize URL: %w", op, urlErr)
			c.bus.fire(EventLogout, urlErr, nil)
			return nil, urlErr
		}
		executor, execErr := c.newExecutor(variant, opts)
		if execErr != nil {
			c.bus.fire(EventLogout, execErr, nil)
			return nil, execErr
		}
		if _, transportErr := executor.Execute(ctx, deauthURL); transportErr != nil {
			transportErr = fmt.Errorf("%s: %w", op, transportErr)
			c.bus.fire(EventLogout, transportErr, nil)
			return nil, transportErr
		}
		c.bus.fire(EventLogout, nil, nil)
		return nil, nil
	})
	return err
}

// LogoutWithRedirect clears the session and navigates to the provider's
// deauthorization URL.  The logout category stays busy until
// HandleRedirect observes the landing on the next load.
func (c *Controller) LogoutWithRedirect(ctx context.Context) error {
	const op = "Controller.LogoutWithRedirect"
	if c.navigator == nil {
		return fmt.Errorf("%s: %w", op, ErrNoNavigator)
	}
	if err := c.inflight.hold(CategoryLogout); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.mu.Lock()
	idTokenHint := c.profile.IdToken
	c.mu.Unlock()

	deauthURL, err := c.strategy.DeauthorizeURL(ctx, c.config, idTokenHint)

	c.clearSession()

	if err != nil {
		c.inflight.release(CategoryLogout)
		err = fmt.Errorf("%s: unable to resolve deauthorize URL: %w", op, err)
		c.bus.fire(EventLogout, err, nil)
		return err
	}

	c.mu.Lock()
	c.profile.RedirectAction = redirectActionLogout
	c.saveProfileLocked()
	c.mu.Unlock()

	if err := c.navigator.Navigate(ctx, deauthURL); err != nil {
		c.inflight.release(CategoryLogout)
		navErr := fmt.Errorf("%s: unable to navigate: %w", op, err)
		c.mu.Lock()
		c.profile.RedirectAction = ""
		c.saveProfileLocked()
		c.mu.Unlock()
		c.bus.fire(EventLogout, navErr, nil)
		return navErr
	}
	return nil
}

// RefreshToken renews the session silently via a hidden iframe.  A failed
// renewal keeps the existing tokens; only the recorded error changes.
func (c *Controller) RefreshToken(ctx context.Context, opt ...Option) (*Token, error) {
	opts := getFlowOpts(opt...)
	return c.inflight.do(CategoryRefresh, func() (*Token, error) {
		return c.runRefresh(ctx, opts)
	})
}

func (c *Controller) runRefresh(ctx context.Context, opts flowOptions) (*Token, error) {
	const op = "Controller.runRefresh"
	req, authURL, err := c.beginFlow(ctx, true, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	executor, err := c.newExecutor(flow.Iframe, opts)
	if err != nil {
		c.clearCorrelation()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	vals, err := executor.Execute(ctx, authURL)
	if err != nil {
		return nil, c.failRefresh(fmt.Errorf("%s: %w", op, err))
	}
	resp := ParseResponse(vals)

	var validationErr error
	switch {
	case req.IsExpired():
		validationErr = fmt.Errorf("%s: %w", op, ErrExpiredRequest)
	default:
		validationErr = ValidateResponse(c.config, resp, req.State(), req.Nonce(), true, WithClock(c.clock))
	}
	if validationErr != nil {
		return nil, c.failRefresh(validationErr)
	}

	c.mu.Lock()
	c.profile.ClearCorrelation()
	if applyErr := c.profile.apply(resp, c.clock.Now()); applyErr != nil {
		c.mu.Unlock()
		return nil, c.failRefresh(applyErr)
	}
	c.saveProfileLocked()
	tok := c.profile.token()
	expiry := c.profile.expiry()
	c.mu.Unlock()

	c.scheduler.arm(expiry)
	c.bus.fire(EventRefresh, nil, tok)
	return tok, nil
}

// failRefresh records a renewal failure without discarding the session's
// tokens.
func (c *Controller) failRefresh(err error) error {
	c.mu.Lock()
	c.profile.ClearCorrelation()
	c.profile.setError(err)
	c.saveProfileLocked()
	c.mu.Unlock()
	c.bus.fire(EventRefresh, err, nil)
	return err
}

// RetrieveAccessToken returns a valid bearer token, running a silent flow
// over the configured default transport when the cached one is missing or
// expired.  Concurrent callers share a single flow.
func (c *Controller) RetrieveAccessToken(ctx context.Context) (AccessToken, error) {
	const op = "Controller.RetrieveAccessToken"
	c.mu.Lock()
	now := c.clock.Now()
	if !c.profile.AccessTokenExpired(now) && !c.profile.IdTokenExpired(now) {
		cached := c.profile.AccessToken
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	tok, err := c.inflight.do(CategoryRetrieve, func() (*Token, error) {
		c.mu.Lock()
		now := c.clock.Now()
		idExpired := c.profile.IdTokenExpired(now)
		accessExpired := c.profile.AccessTokenExpired(now)
		cached := c.profile.AccessToken
		c.mu.Unlock()

		// the inner flows run under their own categories so an explicit
		// login or refresh issued at the same time coalesces with this one
		switch {
		case !accessExpired && !idExpired:
			// a coalesced predecessor already renewed
			return &Token{AccessToken: cached}, nil
		case idExpired:
			variant := c.config.LoginVariant
			if !c.config.VariantEnabled(variant) {
				return nil, fmt.Errorf("%s: %q: %w", op, variant, ErrLoginVariantDisabled)
			}
			return c.inflight.do(CategoryLogin, func() (*Token, error) {
				return c.runLogin(ctx, variant, true, flowOptions{})
			})
		default:
			return c.inflight.do(CategoryRefresh, func() (*Token, error) {
				return c.runRefresh(ctx, flowOptions{})
			})
		}
	})
	if err != nil {
		return "", err
	}
	if tok == nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%s: no access token in response: %w", op, ErrLoginFailed)
	}
	return tok.AccessToken, nil
}

// HandleRedirect continues a redirect round trip: when the current
// location is the configured redirect URL and carries authorization
// parameters, they are replayed through validation, the appropriate event
// fires, and the pre-redirect location is restored.  Call it once on load,
// after registering listeners; it is a no-op when no round trip is
// pending.
func (c *Controller) HandleRedirect(ctx context.Context) error {
	const op = "Controller.HandleRedirect"
	if c.navigator == nil {
		return fmt.Errorf("%s: %w", op, ErrNoNavigator)
	}
	loc, err := c.navigator.Location(ctx)
	if err != nil {
		return fmt.Errorf("%s: unable to read location: %w", op, err)
	}
	if loc == nil || !c.onRedirectURL(loc) {
		return nil
	}

	c.mu.Lock()
	action := c.profile.RedirectAction
	expectedState := c.profile.LocalState
	expectedNonce := c.profile.Nonce
	returnURL := c.profile.RedirectReturnURL
	c.mu.Unlock()

	if action == redirectActionLogout {
		c.clearSession()
		c.inflight.release(CategoryLogout)
		c.bus.fire(EventLogout, nil, nil)
		return nil
	}
	if action != redirectActionLogin {
		return nil
	}

	resp, err := ParseResponseURL(loc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !resp.HasParams() {
		return nil
	}

	validationErr := ValidateResponse(c.config, resp, expectedState, expectedNonce, false, WithClock(c.clock))
	if validationErr != nil {
		c.mu.Lock()
		c.profile.Clear()
		c.profile.setError(validationErr)
		c.saveProfileLocked()
		c.mu.Unlock()
		c.inflight.release(CategoryLogin)
		c.bus.fire(EventLogin, validationErr, nil)
		return validationErr
	}

	c.mu.Lock()
	c.profile.ClearCorrelation()
	c.profile.RedirectAction = ""
	c.profile.RedirectReturnURL = ""
	if applyErr := c.profile.apply(resp, c.clock.Now()); applyErr != nil {
		c.profile.Clear()
		c.profile.setError(applyErr)
		c.saveProfileLocked()
		c.mu.Unlock()
		c.inflight.release(CategoryLogin)
		c.bus.fire(EventLogin, applyErr, nil)
		return applyErr
	}
	c.saveProfileLocked()
	tok := c.profile.token()
	expiry := c.profile.expiry()
	c.mu.Unlock()

	c.inflight.release(CategoryLogin)
	c.scheduler.arm(expiry)
	c.bus.fire(EventLogin, nil, tok)

	if returnURL != "" {
		if err := c.navigator.Navigate(ctx, returnURL); err != nil {
			c.logger.Warn("unable to restore pre-redirect location", "error", err)
		}
	}
	return nil
}

// SetVisibility reacts to page visibility transitions.  Hidden pages pay
// an eager refresh and pause their timers rather than trusting timers to
// fire in a throttled background tab; the pause holds through the eager
// refresh, so the page stays timer-free until it becomes visible and
// re-arms from the current expiration state.
func (c *Controller) SetVisibility(visible bool) {
	if !visible {
		c.scheduler.pause()
		c.mu.Lock()
		hasSession := c.profile.AccessToken != "" || c.profile.IdToken != ""
		c.mu.Unlock()
		if hasSession && c.config.AutoRefresh {
			go func() {
				if _, err := c.RefreshToken(c.backgroundCtx); err != nil {
					c.logger.Warn("eager refresh on hide failed", "error", err)
				}
			}()
		}
		return
	}
	c.scheduler.resume()
	c.mu.Lock()
	hasSession := c.profile.AccessToken != "" || c.profile.IdToken != ""
	expiry := c.profile.expiry()
	c.mu.Unlock()
	if hasSession && !expiry.IsZero() {
		c.scheduler.arm(expiry)
	}
}

// refreshTimerFired runs when the renewal timer fires.  With auto refresh
// enabled it performs the silent renewal and isolates any failure; timers
// for the expired notification keep running either way.  With auto refresh
// disabled it emits a notice-only refresh event so the host can renew on
// its own terms.
func (c *Controller) refreshTimerFired() {
	if !c.config.AutoRefresh {
		c.bus.fire(EventRefresh, nil, nil)
		return
	}
	if _, err := c.RefreshToken(c.backgroundCtx); err != nil {
		c.logger.Error("automatic refresh failed", "error", err)
	}
}

func (c *Controller) expiredTimerFired() {
	c.bus.fire(EventExpired, nil, nil)
}

// beginFlow generates fresh correlation values, stores them on the
// profile, and builds the authorization URL.
func (c *Controller) beginFlow(ctx context.Context, silent bool, opts flowOptions) (*Request, string, error) {
	const op = "Controller.beginFlow"
	req, err := NewRequest(DefaultRequestExpiry)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	c.mu.Lock()
	c.profile.LocalState = req.State()
	c.profile.Nonce = req.Nonce()
	c.saveProfileLocked()
	c.mu.Unlock()

	extra := make(map[string]string, len(opts.withExtraParams)+1)
	for k, v := range opts.withExtraParams {
		extra[k] = v
	}
	if silent {
		extra["prompt"] = "none"
	}
	authURL, err := AuthURL(ctx, c.config, c.strategy, req, extra)
	if err != nil {
		c.clearCorrelation()
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return req, authURL, nil
}

func (c *Controller) newExecutor(variant flow.Variant, opts flowOptions) (*flow.Executor, error) {
	eopts := []flow.Option{flow.WithLogger(c.logger)}
	if opts.withTimeout > 0 {
		eopts = append(eopts, flow.WithTimeout(opts.withTimeout))
	}
	return flow.NewExecutor(variant, c.transport, eopts...)
}

// clearSession drops the whole profile and cancels renewal timers.
func (c *Controller) clearSession() {
	c.mu.Lock()
	c.profile.Clear()
	c.saveProfileLocked()
	c.mu.Unlock()
	c.scheduler.stop()
}

func (c *Controller) clearCorrelation() {
	c.mu.Lock()
	c.profile.ClearCorrelation()
	c.saveProfileLocked()
	c.mu.Unlock()
}

// saveProfileLocked persists the profile; callers hold c.mu.  Persistence
// failures are logged, not fatal: the in-memory profile stays
// authoritative for this page lifetime.
func (c *Controller) saveProfileLocked() {
	if err := c.profile.save(c.storage, c.config.StorageScope); err != nil {
		c.logger.Warn("unable to persist session profile", "error", err)
	}
}

// onRedirectURL reports whether loc is the configured redirect landing.
func (c *Controller) onRedirectURL(loc *url.URL) bool {
	want, err := url.Parse(c.config.RedirectURL)
	if err != nil {
		return false
	}
	trim := func(p string) string { return strings.TrimSuffix(p, "/") }
	return loc.Scheme == want.Scheme && loc.Host == want.Host && trim(loc.Path) == trim(want.Path)
}

// controllerOptions is the set of available options for NewController.
type controllerOptions struct {
	withLogger      hclog.Logger
	withClock       Clock
	withStorage     Storage
	withNavigator   Navigator
	withBroadcaster Broadcaster
}

// controllerDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func controllerDefaults() controllerOptions {
	return controllerOptions{
		withLogger:  hclog.NewNullLogger(),
		withClock:   SystemClock(),
		withStorage: NewMemoryStorage(),
	}
}

func getControllerOpts(opt ...Option) controllerOptions {
	opts := controllerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger for the controller.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*controllerOptions); ok {
			o.withLogger = l
		}
	}
}

// WithClock provides an optional clock; on a controller it drives the
// renewal timers, on ValidateResponse the expiration check.  Tests use it
// for deterministic time.
func WithClock(clk Clock) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *controllerOptions:
			v.withClock = clk
		case *validateOptions:
			v.withClock = clk
		}
	}
}

// WithStorage provides the persistence backend for the session profile.
func WithStorage(s Storage) Option {
	return func(o interface{}) {
		if o, ok := o.(*controllerOptions); ok {
			o.withStorage = s
		}
	}
}

// WithNavigator provides the navigation capability required by the
// redirect flow variants.
func WithNavigator(n Navigator) Option {
	return func(o interface{}) {
		if o, ok := o.(*controllerOptions); ok {
			o.withNavigator = n
		}
	}
}

// WithBroadcaster provides the platform-wide event channel.
func WithBroadcaster(b Broadcaster) Option {
	return func(o interface{}) {
		if o, ok := o.(*controllerOptions); ok {
			o.withBroadcaster = b
		}
	}
}

// flowOptions is the set of available per-flow options.
type flowOptions struct {
	withExtraParams map[string]string
	withTimeout     time.Duration
}

func getFlowOpts(opt ...Option) flowOptions {
	opts := flowOptions{}
	ApplyOpts(&opts, opt...)
	return opts
}

// WithFlowTimeout bounds a single flow's transport round trip.
func WithFlowTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*flowOptions); ok {
			o.withTimeout = d
		}
	}
}
