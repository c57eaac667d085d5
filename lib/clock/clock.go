// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so that
// timer-driven code (the status poll loop, retry backoff) can be
// tested deterministically.
//
// Production code accepts a Clock instead of calling the time package
// directly: Real() gives standard library behavior, Fake() gives a
// clock that only advances when the test calls Advance. Goroutines
// that register timers on a FakeClock can be synchronized with
// WaitForTimers before advancing, which removes the race between
// timer registration and time advancement.
package clock

import "time"

// Clock abstracts the time operations used by agentpilot. Production
// code injects Real(); tests inject Fake() with deterministic control.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once
	// duration d has elapsed. If d <= 0 the channel receives
	// immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker delivering ticks on its C channel at
	// the given interval. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker

	// Sleep pauses the calling goroutine for at least duration d.
	Sleep(d time.Duration)
}

// Ticker wraps a periodic timer. Read ticks from C; call Stop when
// done. C is buffered with capacity 1 — if the consumer falls behind,
// ticks are dropped rather than queued, matching time.Ticker.
type Ticker struct {
	C <-chan time.Time

	stopFunc func()
}

// Stop turns off the ticker. No ticks are delivered after Stop
// returns. Stop does not close C.
func (t *Ticker) Stop() { t.stopFunc() }
