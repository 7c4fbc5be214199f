package enums

import "fmt"

// CircleRole represents a member's standing within a circle.
type CircleRole string

const (
	CircleRoleOwner  CircleRole = "owner"
	CircleRoleAdmin  CircleRole = "admin"
	CircleRoleMember CircleRole = "member"
)

var validCircleRoles = []CircleRole{
	CircleRoleOwner,
	CircleRoleAdmin,
	CircleRoleMember,
}

// String implements fmt.Stringer.
func (r CircleRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known CircleRole.
func (r CircleRole) IsValid() bool {
	for _, candidate := range validCircleRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseCircleRole converts raw input into a CircleRole.
func ParseCircleRole(value string) (CircleRole, error) {
	for _, candidate := range validCircleRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid circle role %q", value)
}
