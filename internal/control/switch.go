package control

import "go.uber.org/atomic"

// Switch is the operator's connect/disconnect intent.
type Switch struct {
	connected atomic.Bool
}

func NewSwitch() *Switch {
	return &Switch{}
}

// Connect reports whether the state changed.
func (s *Switch) Connect() bool {
	return !s.connected.Swap(true)
}

// Disconnect reports whether the state changed.
func (s *Switch) Disconnect() bool {
	return s.connected.Swap(false)
}

func (s *Switch) Connected() bool {
	return s.connected.Load()
}
