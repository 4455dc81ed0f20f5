// domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an account-scoped message. Notifications follow the
// identity, not the workspace: they survive workspace switches and clear
// only when the identity scope changes.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID primitive.ObjectID `bson:"account_id" json:"account_id"`
	Kind      string             `bson:"kind" json:"kind"`
	Message   string             `bson:"message" json:"message"`
	Read      bool               `bson:"read" json:"read"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// EntityID returns the cache key for this notification.
func (n Notification) EntityID() primitive.ObjectID { return n.ID }
