package oidc

import "time"

// Timer is a stoppable scheduled callback.
type Timer interface {
	// Stop prevents the timer from firing; it reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// Clock abstracts time for the renewal scheduler so tests can drive timers
// deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// SystemClock returns the real wall clock.
func SystemClock() Clock {
	return systemClock{}
}
