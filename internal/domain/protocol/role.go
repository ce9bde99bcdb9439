package protocol

import "fmt"

// Role identifies the party an event flag or confirmation belongs to.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Roles lists both parties in dispatch order.
var Roles = []Role{RoleDoctor, RolePatient}

// ParseRole validates a role string coming from a URL path.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleDoctor:
		return RoleDoctor, nil
	case RolePatient:
		return RolePatient, nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}
