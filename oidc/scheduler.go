package oidc

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// renewalScheduler arms two timers against the session's expiration: a
// refresh timer that fires autoRefreshBuffer ahead of expiry (or
// immediately when that point has passed) and an expired timer that fires
// at expiry.  Re-arming fully supersedes earlier timers.  While paused the
// timers stay cancelled and arm requests are ignored until resume; a hidden
// page must not hold armed timers even when a background flow settles in
// the meantime.
type renewalScheduler struct {
	mu     sync.Mutex
	clock  Clock
	logger hclog.Logger
	buffer time.Duration
	paused bool

	refreshTimer Timer
	expiredTimer Timer

	// onRefresh runs when the refresh timer fires.  Its failures are the
	// callback's to report; the scheduler only logs them.
	onRefresh func()

	// onExpired runs when the expired timer fires, regardless of the
	// auto-refresh configuration.
	onExpired func()
}

func newRenewalScheduler(clock Clock, logger hclog.Logger, buffer time.Duration, onRefresh, onExpired func()) *renewalScheduler {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &renewalScheduler{
		clock:     clock,
		logger:    logger,
		buffer:    buffer,
		onRefresh: onRefresh,
		onExpired: onExpired,
	}
}

// arm cancels any existing timers and schedules fresh ones for the given
// expiry.  A zero expiry just cancels; while paused nothing is scheduled.
func (s *renewalScheduler) arm(expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	if s.paused || expiry.IsZero() {
		return
	}
	timeToExpiration := expiry.Sub(s.clock.Now())

	refreshIn := timeToExpiration - s.buffer
	if refreshIn < 0 {
		refreshIn = 0
	}
	expiredIn := timeToExpiration
	if expiredIn < 0 {
		expiredIn = 0
	}
	s.logger.Debug("arming renewal timers", "refresh_in", refreshIn, "expired_in", expiredIn)
	s.refreshTimer = s.clock.AfterFunc(refreshIn, s.onRefresh)
	s.expiredTimer = s.clock.AfterFunc(expiredIn, s.onExpired)
}

// pause cancels the timers and suppresses arming until resume; the session
// keeps its expiration state.
func (s *renewalScheduler) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	s.stopLocked()
}

// resume lifts a pause; the next arm schedules timers again.
func (s *renewalScheduler) resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

// stop cancels the timers without suppressing future arming; used when the
// session itself goes away.
func (s *renewalScheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *renewalScheduler) stopLocked() {
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
		s.refreshTimer = nil
	}
	if s.expiredTimer != nil {
		s.expiredTimer.Stop()
		s.expiredTimer = nil
	}
}
