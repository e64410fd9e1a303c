// internal/control/selector.go
package control

import (
	"fmt"
	"sync"
)

// Selector tracks the active screen. Select is called by the control
// surface; Observe is sampled once per coordination cycle.
type Selector struct {
	mu       sync.Mutex
	current  Screen
	previous Screen
	observed Screen
}

// NewSelector starts on Home with nothing pending.
func NewSelector() *Selector {
	return &Selector{}
}

// Select switches to screen and returns the screen it replaced.
func (s *Selector) Select(screen Screen) (previous Screen, changed bool, err error) {
	if !screen.Valid() {
		return ScreenHome, false, fmt.Errorf("%w: %d", ErrInvalidScreen, uint8(screen))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous = s.current
	if previous == screen {
		return previous, false, nil
	}
	s.previous = previous
	s.current = screen
	return previous, true, nil
}

func (s *Selector) Current() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Previous returns the screen shown before the last switch.
func (s *Selector) Previous() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previous
}

// Observe returns the screen seen by the previous cycle and the current one,
// then marks the current one as seen. Several switches between two cycles
// collapse into one observation.
func (s *Selector) Observe() (last, current Screen, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last = s.observed
	current = s.current
	s.observed = current
	return last, current, last != current
}
