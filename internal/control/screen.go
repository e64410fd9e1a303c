// internal/control/screen.go
package control

import (
	"fmt"
	"strings"

	"link-service/internal/task"
)

// Screen is the page the operator is looking at.
type Screen uint8

const (
	ScreenHome Screen = iota
	ScreenResponder
	ScreenInitiator
)

var screenNames = map[Screen]string{
	ScreenHome:      "home",
	ScreenResponder: "responder",
	ScreenInitiator: "initiator",
}

func (s Screen) String() string {
	if name, ok := screenNames[s]; ok {
		return name
	}
	return fmt.Sprintf("screen(%d)", uint8(s))
}

func (s Screen) Valid() bool {
	_, ok := screenNames[s]
	return ok
}

// Role returns the role a screen implies. Home implies none.
func (s Screen) Role() (task.Role, bool) {
	switch s {
	case ScreenResponder:
		return task.RoleResponder, true
	case ScreenInitiator:
		return task.RoleInitiator, true
	default:
		return task.RoleResponder, false
	}
}

// RoleOrDefault is Role with Home mapped to the responder role.
func (s Screen) RoleOrDefault() task.Role {
	role, _ := s.Role()
	return role
}

// ParseScreen accepts the screen names plus "slave"/"master" for the two role screens.
func ParseScreen(v string) (Screen, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "home":
		return ScreenHome, nil
	case "responder", "slave":
		return ScreenResponder, nil
	case "initiator", "master":
		return ScreenInitiator, nil
	default:
		return ScreenHome, fmt.Errorf("%w: %q", ErrInvalidScreen, v)
	}
}

func (s Screen) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScreen, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Screen) UnmarshalText(text []byte) error {
	parsed, err := ParseScreen(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
