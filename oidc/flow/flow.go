// Package flow executes a single authorization round trip against an
// identity provider.  An Executor opens the provider's authorization URL
// through an injected Transport and resolves with the raw response
// parameters the provider sent back, or fails with a typed transport error.
//
// Four variants are supported: a hidden iframe (silent flows), a popup
// window, a full browser tab, and a full-page redirect.  The redirect
// variant never produces a response within the current page lifetime; its
// Execute returns ErrRedirectIssued and the continuation is handled by the
// controller on the next load.
package flow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Variant selects the transport mechanism used to carry an authorization
// round trip.
type Variant string

const (
	Iframe   Variant = "iframe"
	Popup    Variant = "popup"
	NewTab   Variant = "new-tab"
	Redirect Variant = "redirect"
)

// Variants lists every supported Variant.
func Variants() []Variant {
	return []Variant{Iframe, Popup, NewTab, Redirect}
}

var (
	ErrTimeout        = errors.New("flow timed out")
	ErrWindowClosed   = errors.New("window closed before a response was observed")
	ErrPopupBlocked   = errors.New("popup was blocked")
	ErrUnknownVariant = errors.New("unknown flow variant")
	ErrNilTransport   = errors.New("transport is nil")

	// ErrRedirectIssued signals that a full-page navigation was started and
	// no response will be observed in this page lifetime.
	ErrRedirectIssued = errors.New("redirect navigation issued")
)

// Transport is the capability that opens provider URLs.  Implementations
// wrap platform windowing/navigation facilities; each opener blocks until
// the provider redirects back and its parameters are captured, the context
// is done, or the user aborts.
type Transport interface {
	// OpenIframe loads rawURL in a hidden frame and returns the parameters
	// captured when the frame reaches the configured redirect URL.
	OpenIframe(ctx context.Context, rawURL string) (url.Values, error)

	// OpenPopup opens rawURL in a reduced window.  It returns
	// ErrWindowClosed if the user closes the window first and may return
	// ErrPopupBlocked if the window could not be opened.
	OpenPopup(ctx context.Context, rawURL string) (url.Values, error)

	// OpenNewTab behaves like OpenPopup but uses a full tab.
	OpenNewTab(ctx context.Context, rawURL string) (url.Values, error)

	// Navigate performs a full-page navigation away from the application.
	Navigate(ctx context.Context, rawURL string) error
}

// DefaultIframeTimeout bounds silent iframe flows, which would otherwise
// hang forever when the provider requires interaction.
const DefaultIframeTimeout = 30 * time.Second

// Executor runs one flow variant over a Transport.
type Executor struct {
	variant   Variant
	transport Transport
	timeout   time.Duration
	logger    hclog.Logger
}

type options struct {
	timeout time.Duration
	logger  hclog.Logger
}

// Option configures an Executor.
type Option func(*options)

// WithTimeout bounds Execute.  A zero duration disables the executor's own
// timeout; interactive callers must then bound the call via the context.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// NewExecutor creates an Executor for the given variant.  Iframe executors
// default to DefaultIframeTimeout; the interactive variants carry no
// default timeout.
func NewExecutor(v Variant, t Transport, opt ...Option) (*Executor, error) {
	const op = "flow.NewExecutor"
	if t == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNilTransport)
	}
	opts := options{logger: hclog.NewNullLogger()}
	if v == Iframe {
		opts.timeout = DefaultIframeTimeout
	}
	for _, o := range opt {
		o(&opts)
	}
	switch v {
	case Iframe, Popup, NewTab, Redirect:
	default:
		return nil, fmt.Errorf("%s: %q: %w", op, v, ErrUnknownVariant)
	}
	return &Executor{
		variant:   v,
		transport: t,
		timeout:   opts.timeout,
		logger:    opts.logger,
	}, nil
}

// Variant returns the executor's flow variant.
func (e *Executor) Variant() Variant {
	return e.variant
}

// Execute opens authURL through the executor's transport and returns the
// raw response parameters observed on the way back.  The redirect variant
// returns (nil, ErrRedirectIssued) after starting the navigation.
func (e *Executor) Execute(ctx context.Context, authURL string) (url.Values, error) {
	const op = "Executor.Execute"
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	e.logger.Debug("executing flow", "variant", e.variant)

	var vals url.Values
	var err error
	switch e.variant {
	case Iframe:
		vals, err = e.transport.OpenIframe(ctx, authURL)
	case Popup:
		vals, err = e.transport.OpenPopup(ctx, authURL)
	case NewTab:
		vals, err = e.transport.OpenNewTab(ctx, authURL)
	case Redirect:
		if err := e.transport.Navigate(ctx, authURL); err != nil {
			return nil, fmt.Errorf("%s: unable to navigate: %w", op, err)
		}
		return nil, ErrRedirectIssued
	default:
		return nil, fmt.Errorf("%s: %q: %w", op, e.variant, ErrUnknownVariant)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", op, ErrTimeout)
		}
		return nil, fmt.Errorf("%s: transport failed: %w", op, err)
	}
	return vals, nil
}
