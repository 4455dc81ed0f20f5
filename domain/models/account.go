// domain/models/account.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountKind discriminates the identity union. The set is closed: code that
// branches on kind must handle every constant and reject anything else.
type AccountKind string

const (
	KindUser         AccountKind = "user"
	KindOrganization AccountKind = "organization"
	KindTeam         AccountKind = "team"
	KindPartner      AccountKind = "partner"
	KindBot          AccountKind = "bot"
)

// Kinds returns every account kind in a stable order.
func Kinds() []AccountKind {
	return []AccountKind{KindUser, KindOrganization, KindTeam, KindPartner, KindBot}
}

// IsValid reports whether k is one of the defined kinds.
func (k AccountKind) IsValid() bool {
	switch k {
	case KindUser, KindOrganization, KindTeam, KindPartner, KindBot:
		return true
	}
	return false
}

// CanOwnWorkspace reports whether accounts of this kind may own workspaces.
// Teams, partners, and bots are membership-only constructs.
func (k AccountKind) CanOwnWorkspace() bool {
	switch k {
	case KindUser, KindOrganization:
		return true
	case KindTeam, KindPartner, KindBot:
		return false
	}
	return false
}

// RequiresOrganization reports whether accounts of this kind must belong to
// an owning organization.
func (k AccountKind) RequiresOrganization() bool {
	switch k {
	case KindTeam, KindPartner, KindBot:
		return true
	case KindUser, KindOrganization:
		return false
	}
	return false
}

// Account statuses.
const (
	AccountActive    = "active"
	AccountSuspended = "suspended"
)

// Account is one identity: a person, an organization, or one of the
// organization-owned constructs (team, partner, bot). Kind is immutable
// after creation.
type Account struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind   AccountKind        `bson:"kind" json:"kind"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Email  string             `bson:"email,omitempty" json:"email,omitempty"` // users only

	// OrganizationID ties team/partner/bot accounts to their owning
	// organization. Optional for users, never set for organizations.
	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`

	Status string `bson:"status" json:"status"` // active | suspended

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EntityID returns the cache key for this account.
func (a Account) EntityID() primitive.ObjectID { return a.ID }

// Suspended reports whether the account is suspended.
func (a Account) Suspended() bool { return a.Status == AccountSuspended }
