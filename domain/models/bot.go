// domain/models/bot.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bot statuses.
const (
	BotActive   = "active"
	BotDisabled = "disabled"
)

// Bot is an organization-scoped automation principal. Token is assigned by
// the backend on create and is opaque to the core; a bot's Account row
// (kind bot) shares its ID.
type Bot struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Name           string             `bson:"name" json:"name"`
	NameCI         string             `bson:"name_ci" json:"name_ci"`
	Token          string             `bson:"token,omitempty" json:"token,omitempty"`
	Status         string             `bson:"status" json:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EntityID returns the cache key for this bot.
func (b Bot) EntityID() primitive.ObjectID { return b.ID }
