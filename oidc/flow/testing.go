package flow

import (
	"context"
	"net/url"
	"sync"
)

// TestTransport is a scriptable Transport for tests.  Each primitive
// delegates to the corresponding func when set and counts its calls; an
// unset func resolves with empty parameters.
type TestTransport struct {
	IframeFunc   func(ctx context.Context, rawURL string) (url.Values, error)
	PopupFunc    func(ctx context.Context, rawURL string) (url.Values, error)
	NewTabFunc   func(ctx context.Context, rawURL string) (url.Values, error)
	NavigateFunc func(ctx context.Context, rawURL string) error

	mu     sync.Mutex
	opened map[Variant][]string
}

func (t *TestTransport) record(v Variant, rawURL string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.opened == nil {
		t.opened = make(map[Variant][]string)
	}
	t.opened[v] = append(t.opened[v], rawURL)
}

// Opened returns the URLs opened through the given variant, in order.
func (t *TestTransport) Opened(v Variant) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.opened[v]...)
}

// OpenIframe implements Transport.
func (t *TestTransport) OpenIframe(ctx context.Context, rawURL string) (url.Values, error) {
	t.record(Iframe, rawURL)
	if t.IframeFunc != nil {
		return t.IframeFunc(ctx, rawURL)
	}
	return url.Values{}, nil
}

// OpenPopup implements Transport.
func (t *TestTransport) OpenPopup(ctx context.Context, rawURL string) (url.Values, error) {
	t.record(Popup, rawURL)
	if t.PopupFunc != nil {
		return t.PopupFunc(ctx, rawURL)
	}
	return url.Values{}, nil
}

// OpenNewTab implements Transport.
func (t *TestTransport) OpenNewTab(ctx context.Context, rawURL string) (url.Values, error) {
	t.record(NewTab, rawURL)
	if t.NewTabFunc != nil {
		return t.NewTabFunc(ctx, rawURL)
	}
	return url.Values{}, nil
}

// Navigate implements Transport.
func (t *TestTransport) Navigate(ctx context.Context, rawURL string) error {
	t.record(Redirect, rawURL)
	if t.NavigateFunc != nil {
		return t.NavigateFunc(ctx, rawURL)
	}
	return nil
}
