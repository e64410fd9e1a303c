// internal/task/role.go
package task

import (
	"fmt"
	"strings"
)

// Role is which of the two operating modes a worker performs.
type Role int32

const (
	// RoleResponder is the passive role and the default.
	RoleResponder Role = iota
	// RoleInitiator drives the exchange.
	RoleInitiator
)

func (r Role) String() string {
	switch r {
	case RoleResponder:
		return "responder"
	case RoleInitiator:
		return "initiator"
	default:
		return fmt.Sprintf("role(%d)", int32(r))
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r == RoleResponder || r == RoleInitiator
}

// ParseRole accepts "responder"/"initiator" and the aliases "slave"/"master".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "responder", "slave":
		return RoleResponder, nil
	case "initiator", "master":
		return RoleInitiator, nil
	default:
		return RoleResponder, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRole, int32(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
