// domain/models/document.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is a workspace-scoped rich-text document. Body is stored as
// sanitized HTML; callers must sanitize before writing.
type Document struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"title_ci"`
	Body        string             `bson:"body,omitempty" json:"body,omitempty"`
	Starred     bool               `bson:"starred" json:"starred"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EntityID returns the cache key for this document.
func (d Document) EntityID() primitive.ObjectID { return d.ID }
