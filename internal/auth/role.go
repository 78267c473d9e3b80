package auth

import (
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleAccountant Role = "accountant"
	RoleOperator   Role = "operator"
)

var ErrUnknownRole = errors.New("unknown role")

// unknownRequiredLevel is above every real role so an unrecognised requirement never passes.
const unknownRequiredLevel = 999

var roleLevels = map[Role]int{
	RoleAdmin:      4,
	RoleSupervisor: 3,
	RoleAccountant: 2,
	RoleOperator:   1,
}

// Roles lists every role from most to least privileged.
func Roles() []Role {
	return []Role{RoleAdmin, RoleSupervisor, RoleAccountant, RoleOperator}
}

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// ParseRole accepts either the stored value or the upper-case name ("ADMIN").
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Level returns the numeric rank of a role, 0 for unknown roles.
func Level(r Role) int {
	return roleLevels[r]
}

// MeetsOrExceeds reports whether actual ranks at least as high as required.
func MeetsOrExceeds(actual, required Role) bool {
	req, ok := roleLevels[required]
	if !ok {
		req = unknownRequiredLevel
	}
	return Level(actual) >= req
}

// StrictlyExceeds reports whether actual ranks above target. Unknown targets never pass.
func StrictlyExceeds(actual, target Role) bool {
	t, ok := roleLevels[target]
	if !ok {
		return false
	}
	return Level(actual) > t
}
