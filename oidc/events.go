package oidc

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"
)

// EventKind names a lifecycle event the controller emits.
type EventKind string

const (
	EventLogin   EventKind = "login"
	EventLogout  EventKind = "logout"
	EventRefresh EventKind = "refresh"
	EventExpired EventKind = "expired"
)

func validEventKind(k EventKind) bool {
	switch k {
	case EventLogin, EventLogout, EventRefresh, EventExpired:
		return true
	default:
		return false
	}
}

// Listener receives a lifecycle event.  Exactly one of err and t is
// typically set; the notice-only refresh event carries neither.
type Listener func(err error, t *Token)

// Broadcaster is the platform-wide event channel: every lifecycle event is
// mirrored to it so uncoupled observers can react without registering a
// listener on the controller.
type Broadcaster interface {
	Broadcast(kind EventKind, err error, t *Token)
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(EventKind, error, *Token) {}

type listenerEntry struct {
	id int
	fn Listener
}

// eventBus fans lifecycle events out to registered listeners in
// registration order, then mirrors them to the Broadcaster.  A panicking
// listener never prevents subsequent listeners from running.
type eventBus struct {
	mu          sync.Mutex
	nextID      int
	listeners   map[EventKind][]listenerEntry
	broadcaster Broadcaster
	logger      hclog.Logger
}

func newEventBus(b Broadcaster, logger hclog.Logger) *eventBus {
	if b == nil {
		b = noopBroadcaster{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &eventBus{
		listeners:   make(map[EventKind][]listenerEntry),
		broadcaster: b,
		logger:      logger,
	}
}

// on appends a listener and returns its registration id.
func (b *eventBus) on(kind EventKind, fn Listener) (int, error) {
	const op = "eventBus.on"
	if !validEventKind(kind) {
		return 0, fmt.Errorf("%s: %q: %w", op, kind, ErrUnknownEventKind)
	}
	if fn == nil {
		return 0, fmt.Errorf("%s: listener is nil: %w", op, ErrNilParameter)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.listeners[kind] = append(b.listeners[kind], listenerEntry{id: b.nextID, fn: fn})
	return b.nextID, nil
}

// off removes the listener registered under id.
func (b *eventBus) off(kind EventKind, id int) error {
	const op = "eventBus.off"
	if !validEventKind(kind) {
		return fmt.Errorf("%s: %q: %w", op, kind, ErrUnknownEventKind)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.listeners[kind]
	for i, e := range entries {
		if e.id == id {
			b.listeners[kind] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s: listener %d for %q: %w", op, id, kind, ErrNotFound)
}

// fire invokes every listener for kind in registration order and mirrors
// the event to the broadcaster.
func (b *eventBus) fire(kind EventKind, err error, t *Token) {
	b.mu.Lock()
	entries := make([]listenerEntry, len(b.listeners[kind]))
	copy(entries, b.listeners[kind])
	b.mu.Unlock()

	var fanoutErr *multierror.Error
	for _, e := range entries {
		if panicErr := b.invoke(e.fn, err, t); panicErr != nil {
			fanoutErr = multierror.Append(fanoutErr, panicErr)
		}
	}
	if fanoutErr.ErrorOrNil() != nil {
		b.logger.Warn("event listener failed", "kind", kind, "error", fanoutErr)
	}
	b.broadcaster.Broadcast(kind, err, t)
}

func (b *eventBus) invoke(fn Listener, err error, t *Token) (panicErr error) {
	defer func() {
		if r := recover(); r != nil {
			panicErr = fmt.Errorf("listener panic: %v", r)
		}
	}()
	fn(err, t)
	return nil
}
