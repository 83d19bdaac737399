package models

import "fmt"

// Role is the closed set of platform roles. New roles must be added here and
// every switch over Role revisited.
type Role string

const (
	RoleAttorney      Role = "attorney"
	RoleCourtReporter Role = "court_reporter"
	RoleLegalStaff    Role = "legal_staff"
	RoleAdministrator Role = "administrator"
	RoleVideographer  Role = "videographer"
	RoleScopist       Role = "scopist"
)

// Roles lists every valid role, in display order.
var Roles = []Role{
	RoleAttorney,
	RoleCourtReporter,
	RoleLegalStaff,
	RoleAdministrator,
	RoleVideographer,
	RoleScopist,
}

func ParseRole(value string) (Role, error) {
	for _, role := range Roles {
		if string(role) == value {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", value)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}
