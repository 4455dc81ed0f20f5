// domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a member's role within one workspace. Capability sets form a
// strict chain: guest ⊂ member ⊂ admin ⊂ owner.
type Role string

const (
	RoleGuest  Role = "guest"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// Roles returns every role in ascending capability order.
func Roles() []Role {
	return []Role{RoleGuest, RoleMember, RoleAdmin, RoleOwner}
}

// IsValid reports whether r is one of the defined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleGuest, RoleMember, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

// MemberStatus is the lifecycle state of a membership.
type MemberStatus string

const (
	MemberInvited   MemberStatus = "invited"
	MemberActive    MemberStatus = "active"
	MemberSuspended MemberStatus = "suspended"
	MemberArchived  MemberStatus = "archived"
)

// IsValid reports whether s is one of the defined member statuses.
func (s MemberStatus) IsValid() bool {
	switch s {
	case MemberInvited, MemberActive, MemberSuspended, MemberArchived:
		return true
	}
	return false
}

// CanTransitionTo reports whether a membership may move from s to next.
// Transitions are monotonic (invited → active → archived) except that
// suspension is reversible: active ↔ suspended.
func (s MemberStatus) CanTransitionTo(next MemberStatus) bool {
	if !next.IsValid() || s == next {
		return false
	}
	switch s {
	case MemberInvited:
		return next == MemberActive || next == MemberArchived
	case MemberActive:
		return next == MemberSuspended || next == MemberArchived
	case MemberSuspended:
		return next == MemberActive || next == MemberArchived
	case MemberArchived:
		return false
	}
	return false
}

// Member links an account to a workspace with a role, a status, and any
// custom permission grants beyond the role defaults. Exactly one member
// row exists per (account, workspace) pair.
type Member struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	AccountID   primitive.ObjectID `bson:"account_id" json:"account_id"`
	Role        Role               `bson:"role" json:"role"`
	Status      MemberStatus       `bson:"status" json:"status"`

	// CustomPermissions are additive capability grants on top of the role
	// defaults. They never revoke a role-granted capability.
	CustomPermissions []string `bson:"custom_permissions,omitempty" json:"custom_permissions,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EntityID returns the cache key for this member.
func (m Member) EntityID() primitive.ObjectID { return m.ID }
