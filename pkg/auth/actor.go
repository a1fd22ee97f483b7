package auth

import (
	"github.com/google/uuid"

	"github.com/fineshyttt/commerce-backend/pkg/enums"
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// NewActor builds an actor for an authenticated user.
func NewActor(userID uuid.UUID, role enums.UserRole) Actor {
	return Actor{UserID: userID, Role: role}
}

// System is the actor used by background jobs.
func System() Actor {
	return Actor{Role: enums.UserRoleSystem}
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

func (a Actor) IsSystem() bool {
	return a.Role == enums.UserRoleSystem
}

// Owns reports whether the actor is the given user.
func (a Actor) Owns(userID uuid.UUID) bool {
	return a.UserID != uuid.Nil && a.UserID == userID
}

// UserRef returns the user id for attribution, nil for the system actor.
func (a Actor) UserRef() *uuid.UUID {
	if a.IsSystem() || a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
