// domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task statuses.
const (
	TaskOpen = "open"
	TaskDone = "done"
)

// Task is a workspace-scoped work item, optionally assigned to an account.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID  `bson:"workspace_id" json:"workspace_id"`
	CreatedBy   primitive.ObjectID  `bson:"created_by" json:"created_by"`
	AssigneeID  *primitive.ObjectID `bson:"assignee_id,omitempty" json:"assignee_id,omitempty"`
	Title       string              `bson:"title" json:"title"`
	Status      string              `bson:"status" json:"status"` // open | done
	Due         *time.Time          `bson:"due,omitempty" json:"due,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EntityID returns the cache key for this task.
func (t Task) EntityID() primitive.ObjectID { return t.ID }

// Overdue reports whether the task is open with a due time before now.
func (t Task) Overdue(now time.Time) bool {
	return t.Status == TaskOpen && t.Due != nil && t.Due.Before(now)
}
