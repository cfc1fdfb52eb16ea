package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTechnician
}

// ParseRole converts a stored or transported role name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Actor is the authenticated user on whose behalf an operation runs.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanWorkOn reports whether the actor may register maintenance on equipment
// assigned to technicianID.
func (a Actor) CanWorkOn(technicianID uuid.UUID) bool {
	return a.IsAdmin() || a.ID == technicianID
}

// CanModifyRecord reports whether the actor may edit or delete a maintenance
// record created by creatorID.
func (a Actor) CanModifyRecord(creatorID uuid.UUID) bool {
	return a.IsAdmin() || a.ID == creatorID
}
