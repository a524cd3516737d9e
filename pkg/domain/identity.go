package domain

import (
	"github.com/google/uuid"

	dErrors "custodia/pkg/domain-errors"
)

// Role distinguishes the two principal kinds the engine knows about.
type Role string

const (
	RoleGuardian Role = "guardian"
	RoleChild    Role = "child"
)

// ParseRole constructs a Role from external input (token claims).
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleGuardian, RoleChild:
		return Role(s), nil
	case "":
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
}

func (r Role) IsValid() bool {
	return r == RoleGuardian || r == RoleChild
}

// Identity is the authenticated principal attached to a connection after
// token verification. Immutable for the life of the connection.
type Identity struct {
	ID   uuid.UUID
	Role Role
}

// GuardianID returns the identity as a guardian id. Callers must check Role first.
func (i Identity) GuardianID() GuardianID { return GuardianID(i.ID) }

// ChildID returns the identity as a child id. Callers must check Role first.
func (i Identity) ChildID() ChildID { return ChildID(i.ID) }
