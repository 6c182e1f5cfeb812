// Package timer provides a one-shot, re-armable timer with race-free
// cancellation: the same shape as the Win32 soft-timer a completion loop
// checks on each wakeup, expressed with the Go runtime's own timers.
package timer

import (
	"sync"
	"time"
)

// Soft is a one-shot timer guarded against the classic Stop/fire race: a
// Cancel that loses the race to a firing timer is guaranteed not to let a
// stale fire observe as a live one, via a generation counter checked
// inside the callback.
type Soft struct {
	mu  sync.Mutex
	t   *time.Timer
	gen uint64
}

// Set arms the timer to invoke fire after d elapses. Any previously armed
// fire is replaced (re-arming cancels the old one first). A zero or
// negative d still delivers fire asynchronously on its own goroutine,
// never synchronously inside Set.
func (s *Soft) Set(d time.Duration, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.t != nil {
		s.t.Stop()
	}
	s.gen++
	gen := s.gen
	s.t = time.AfterFunc(d, func() {
		s.mu.Lock()
		current := s.gen == gen
		s.mu.Unlock()
		if current {
			fire()
		}
	})
}

// Cancel disarms the timer. If the timer already fired (or is in the
// process of firing), Cancel guarantees fire will not be invoked for any
// call racing after this point, but it does not undo a fire already in
// flight.
func (s *Soft) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.t != nil {
		s.t.Stop()
	}
	s.gen++
}
