package build

import (
	"sync"
	"time"
)

// Signal is a manual-reset event: once set it stays set, releasing every
// waiter, until Reset is called
type Signal struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

// NewSignal returns an unset signal
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Set signals all current and future waiters until Reset
func (s *Signal) Set() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		close(s.ch)
		s.set = true
	}
}

// Reset returns the signal to the unset state
func (s *Signal) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		s.ch = make(chan struct{})
		s.set = false
	}
}

// IsSet reports whether the signal is set
func (s *Signal) IsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// Done returns a channel closed when the signal is set. A Reset after the
// channel was obtained does not reopen it.
func (s *Signal) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}

// Wait blocks until the signal is set or timeout elapses. A negative
// timeout waits forever. It reports whether the signal was observed.
func (s *Signal) Wait(timeout time.Duration) bool {
	done := s.Done()
	if timeout < 0 {
		<-done
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
