package types

import (
	"slices"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleSupervisor Role = "supervisor"
	RoleInspector  Role = "inspector"
	RoleCleaner    Role = "cleaner"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSupervisor, RoleInspector, RoleCleaner:
		return true
	}
	return false
}

// Actor is the authenticated caller of a lifecycle operation. It is resolved
// once at the request boundary and handed to the operation explicitly.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

func (a Actor) Is(roles ...Role) bool {
	return slices.Contains(roles, a.Role)
}

func (a Actor) Require(roles ...Role) error {
	if a.ID == uuid.Nil {
		return Forbidden("authenticated actor required")
	}
	if !a.Is(roles...) {
		return Forbidden("role %s may not perform this operation", a.Role)
	}
	return nil
}

// RequireMember checks the actor has one of the roles and appears in members.
func (a Actor) RequireMember(members []uuid.UUID, roles ...Role) error {
	if err := a.Require(roles...); err != nil {
		return err
	}
	if !slices.Contains(members, a.ID) {
		return Forbidden("%s %s is not assigned to this record", a.Role, a.ID)
	}
	return nil
}
