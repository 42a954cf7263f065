// Package stopwatch provides the elapsed-time timer used by the
// time-bounded autonomous operations. The clock is injectable so tests
// can drive time deterministically.
package stopwatch

import "time"

// Clock returns the current time. The zero value of Stopwatch uses
// time.Now.
type Clock func() time.Time

// Stopwatch measures elapsed time between Start and Stop. It is not
// safe for concurrent use; each subsystem owns exactly one and mutates
// it only from the control loop.
type Stopwatch struct {
	clock   Clock
	started time.Time
	stopped time.Time
	running bool
}

// New creates a Stopwatch backed by time.Now.
func New() *Stopwatch {
	return NewWithClock(time.Now)
}

// NewWithClock creates a Stopwatch with a custom clock.
func NewWithClock(clock Clock) *Stopwatch {
	return &Stopwatch{clock: clock}
}

// Start begins (or restarts) timing from now.
func (s *Stopwatch) Start() {
	s.started = s.clock()
	s.running = true
}

// Stop freezes the elapsed time.
func (s *Stopwatch) Stop() {
	if s.running {
		s.stopped = s.clock()
		s.running = false
	}
}

// Running reports whether the stopwatch is currently timing.
func (s *Stopwatch) Running() bool { return s.running }

// Elapsed returns the time since Start, or the frozen duration if the
// stopwatch was stopped. Returns zero if never started.
func (s *Stopwatch) Elapsed() time.Duration {
	if s.started.IsZero() {
		return 0
	}
	if s.running {
		return s.clock().Sub(s.started)
	}
	return s.stopped.Sub(s.started)
}

// ElapsedSeconds returns the elapsed time in seconds.
func (s *Stopwatch) ElapsedSeconds() float64 {
	return s.Elapsed().Seconds()
}
