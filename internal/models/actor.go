package models

import "github.com/golang-jwt/jwt/v5"

// ActorRole identifies which party performs a workflow operation.
type ActorRole string

const (
	RoleAdmin         ActorRole = "ADMIN"
	RoleSchoolTeacher ActorRole = "TEACHER"
	RoleInstructor    ActorRole = "INSTRUCTOR"
	RoleSystem        ActorRole = "SYSTEM"
)

// Actor is the identity attached to every mutating operation.
type Actor struct {
	ID   string    `json:"id"`
	Role ActorRole `json:"role"`
}

// SystemActor is used by the scheduled transition trigger.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// ActorClaims are the JWT claims the gateway issues; this service only
// parses them, it never signs tokens.
type ActorClaims struct {
	UserID string    `json:"uid"`
	Name   string    `json:"name"`
	Role   ActorRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts claims into the workflow actor identity.
func (c *ActorClaims) Actor() Actor {
	return Actor{ID: c.UserID, Role: c.Role}
}
