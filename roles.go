package portal

import "strings"

// Role is a principal's role within the portal
type Role string

const (
	// RoleAdmin manages users, courses and enrollment approvals
	RoleAdmin Role = "admin"
	// RoleInstructor teaches courses
	RoleInstructor Role = "instructor"
	// RoleStudent enrolls in courses
	RoleStudent Role = "student"
)

// Navigation destinations shared by the gates.
const (
	DestinationLogin          = "/login"
	DestinationChangePassword = "/change-password"
	DestinationAdminHome      = "/admin/dashboard"
	DestinationInstructorHome = "/instructor/dashboard"
	DestinationStudentHome    = "/student/dashboard"
)

// NormalizeRole lowercases and trims a role value. The backend does not
// guarantee casing, so every comparison in the system goes through this.
func NormalizeRole(role string) Role {
	return Role(strings.ToLower(strings.TrimSpace(role)))
}

// ParseRole normalizes a raw role value and reports whether it is one of the
// known roles.
func ParseRole(raw string) (Role, bool) {
	role := NormalizeRole(raw)
	return role, role.IsValid()
}

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return true
	default:
		return false
	}
}

// HomeDestination returns the dashboard destination for a role. The second
// return is false for roles outside the known set; such principals are
// routed to the login entry point instead.
func HomeDestination(role Role) (string, bool) {
	switch NormalizeRole(string(role)) {
	case RoleAdmin:
		return DestinationAdminHome, true
	case RoleInstructor:
		return DestinationInstructorHome, true
	case RoleStudent:
		return DestinationStudentHome, true
	default:
		return "", false
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleInstructor,
		RoleStudent,
	}
}
