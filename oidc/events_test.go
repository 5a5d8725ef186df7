package oidc

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []EventKind
}

func (b *recordingBroadcaster) Broadcast(kind EventKind, _ error, _ *Token) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, kind)
}

func (b *recordingBroadcaster) recorded() []EventKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]EventKind(nil), b.events...)
}

func TestEventBus_OnOff(t *testing.T) {
	t.Parallel()
	t.Run("register-and-remove", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		b := newEventBus(nil, nil)
		id1, err := b.on(EventLogin, func(error, *Token) {})
		require.NoError(err)
		id2, err := b.on(EventLogin, func(error, *Token) {})
		require.NoError(err)
		require.NotEqual(id1, id2)

		require.NoError(b.off(EventLogin, id1))
		err = b.off(EventLogin, id1)
		require.Error(err)
		assert.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("unknown-kind", func(t *testing.T) {
		t.Parallel()
		b := newEventBus(nil, nil)
		_, err := b.on(EventKind("unknown"), func(error, *Token) {})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownEventKind)

		err = b.off(EventKind("unknown"), 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownEventKind)
	})
	t.Run("nil-listener", func(t *testing.T) {
		t.Parallel()
		b := newEventBus(nil, nil)
		_, err := b.on(EventLogin, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNilParameter)
	})
}

func TestEventBus_Fire(t *testing.T) {
	t.Parallel()
	t.Run("registration-order", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		b := newEventBus(nil, nil)
		var order []int
		for i := 1; i <= 3; i++ {
			i := i
			_, err := b.on(EventLogin, func(error, *Token) { order = append(order, i) })
			require.NoError(err)
		}
		b.fire(EventLogin, nil, nil)
		assert.Equal(t, []int{1, 2, 3}, order)
	})
	t.Run("delivers-payload", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		b := newEventBus(nil, nil)
		wantErr := errors.New("boom")
		wantTok := &Token{AccessToken: "at"}
		var gotErr error
		var gotTok *Token
		_, err := b.on(EventRefresh, func(err error, tok *Token) {
			gotErr, gotTok = err, tok
		})
		require.NoError(err)
		b.fire(EventRefresh, wantErr, wantTok)
		assert.Equal(t, wantErr, gotErr)
		assert.Equal(t, wantTok, gotTok)
	})
	t.Run("panicking-listener-is-isolated", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		b := newEventBus(nil, nil)
		_, err := b.on(EventLogin, func(error, *Token) { panic("listener bug") })
		require.NoError(err)
		var called bool
		_, err = b.on(EventLogin, func(error, *Token) { called = true })
		require.NoError(err)
		require.NotPanics(func() { b.fire(EventLogin, nil, nil) })
		assert.True(t, called)
	})
	t.Run("removed-listener-does-not-run", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		b := newEventBus(nil, nil)
		var called bool
		id, err := b.on(EventLogout, func(error, *Token) { called = true })
		require.NoError(err)
		require.NoError(b.off(EventLogout, id))
		b.fire(EventLogout, nil, nil)
		assert.False(t, called)
	})
	t.Run("mirrors-to-broadcaster", func(t *testing.T) {
		t.Parallel()
		bc := &recordingBroadcaster{}
		b := newEventBus(bc, nil)
		b.fire(EventLogin, nil, nil)
		b.fire(EventExpired, nil, nil)
		assert.Equal(t, []EventKind{EventLogin, EventExpired}, bc.recorded())
	})
	t.Run("kinds-are-independent", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		b := newEventBus(nil, nil)
		var loginCalled, logoutCalled bool
		_, err := b.on(EventLogin, func(error, *Token) { loginCalled = true })
		require.NoError(err)
		_, err = b.on(EventLogout, func(error, *Token) { logoutCalled = true })
		require.NoError(err)
		b.fire(EventLogin, nil, nil)
		assert.True(t, loginCalled)
		assert.False(t, logoutCalled)
	})
}
