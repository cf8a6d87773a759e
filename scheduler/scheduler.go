// Package scheduler abstracts deferred execution of background work so the
// feeding pipeline can be driven by real timers in production and stepped
// synchronously in tests.
package scheduler

import "time"

// Scheduler runs a function after a delay. Implementations decide where and
// when the function executes; callers must not assume it runs on any
// particular goroutine.
type Scheduler interface {
	Schedule(delay time.Duration, run func())
}

// Async executes scheduled work on its own goroutines backed by timers.
type Async struct{}

func (Async) Schedule(delay time.Duration, run func()) {
	if delay <= 0 {
		go run()
		return
	}
	time.AfterFunc(delay, run)
}
