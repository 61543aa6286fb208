package user

import "fmt"

// Role is the organisational role of an employee. It drives every
// approval and administration capability in the leave workflow.
type Role string

const (
	RoleJuniorStaff Role = "junior_staff"
	RoleSeniorStaff Role = "senior_staff"
	RoleManager     Role = "manager" // First approval stage
	RoleHR          Role = "hr"      // Second approval stage, entitlement administration
	RoleCEO         Role = "ceo"     // Final approval stage
	RoleAdmin       Role = "admin"   // Override at any stage
)

// AllRoles returns every valid role in display order.
func AllRoles() []Role {
	return []Role{
		RoleJuniorStaff,
		RoleSeniorStaff,
		RoleManager,
		RoleHR,
		RoleCEO,
		RoleAdmin,
	}
}

// ParseRole converts a stored or transmitted role code into a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// IsElevated reports whether the role receives the higher default
// entitlements.
func (r Role) IsElevated() bool {
	return r == RoleManager || r == RoleAdmin || r == RoleHR
}

// IsAdmin checks if the role can override the approval chain
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Display returns a human readable label.
func (r Role) Display() string {
	switch r {
	case RoleJuniorStaff:
		return "Junior Staff"
	case RoleSeniorStaff:
		return "Senior Staff"
	case RoleManager:
		return "Manager"
	case RoleHR:
		return "HR"
	case RoleCEO:
		return "CEO"
	case RoleAdmin:
		return "Admin"
	default:
		return string(r)
	}
}
