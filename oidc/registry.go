package oidc

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Category is a de-duplication category: at most one operation of each
// category is ever in flight.
type Category string

const (
	CategoryLogin    Category = "login"
	CategoryLogout   Category = "logout"
	CategoryRefresh  Category = "refresh"
	CategoryRetrieve Category = "token-retrieval"
)

// inflight coalesces concurrent operations of a category into a single
// shared execution: the first request runs the flow, later concurrent
// requests of the same category wait on and receive the same outcome.
// The category returns to idle when the flow settles, success or failure.
//
// A category can also be held: a redirect flow keeps its category busy for
// the rest of the page lifetime so no competing navigation starts.  Holds
// and coalesced executions share one per-category state: a hold is refused
// while an execution is running, and an execution is refused while a hold
// is pending.
type inflight struct {
	group singleflight.Group

	mu     sync.Mutex
	held   map[Category]bool
	active map[Category]int
}

func newInflight() *inflight {
	return &inflight{
		held:   make(map[Category]bool),
		active: make(map[Category]int),
	}
}

// do runs fn under the category, coalescing concurrent callers.
func (f *inflight) do(cat Category, fn func() (*Token, error)) (*Token, error) {
	const op = "inflight.do"
	f.mu.Lock()
	if f.held[cat] {
		f.mu.Unlock()
		return nil, fmt.Errorf("%s: %s: %w", op, cat, ErrOperationInFlight)
	}
	f.active[cat]++
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active[cat]--
		f.mu.Unlock()
	}()

	v, err, _ := f.group.Do(string(cat), func() (interface{}, error) {
		return fn()
	})
	tok, _ := v.(*Token)
	return tok, err
}

// hold marks the category busy until release.  It fails while the category
// is already held or has a coalesced execution in flight.
func (f *inflight) hold(cat Category) error {
	const op = "inflight.hold"
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[cat] || f.active[cat] > 0 {
		return fmt.Errorf("%s: %s: %w", op, cat, ErrOperationInFlight)
	}
	f.held[cat] = true
	return nil
}

// release returns a held category to idle.
func (f *inflight) release(cat Category) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, cat)
}
