// domain/models/workspace.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ModuleKey names a workspace feature toggle. The set is closed; the
// permission gate treats capabilities of a disabled module as absent.
type ModuleKey string

const (
	ModuleDocuments     ModuleKey = "documents"
	ModuleTasks         ModuleKey = "tasks"
	ModuleMembers       ModuleKey = "members"
	ModuleNotifications ModuleKey = "notifications"
	ModuleBots          ModuleKey = "bots"
)

// ModuleKeys returns every module key in a stable order.
func ModuleKeys() []ModuleKey {
	return []ModuleKey{ModuleDocuments, ModuleTasks, ModuleMembers, ModuleNotifications, ModuleBots}
}

// IsValid reports whether m is one of the defined module keys.
func (m ModuleKey) IsValid() bool {
	switch m {
	case ModuleDocuments, ModuleTasks, ModuleMembers, ModuleNotifications, ModuleBots:
		return true
	}
	return false
}

// Workspace statuses.
const (
	WorkspaceActive         = "active"
	WorkspaceArchived       = "archived"
	WorkspaceDeletedPending = "deleted-pending"
)

// Workspace is an owned container of modules. OwnerID always resolves to an
// account whose kind may own workspaces (user or organization).
type Workspace struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name"`
	NameCI  string             `bson:"name_ci" json:"name_ci"`
	OwnerID primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Modules []ModuleKey        `bson:"modules" json:"modules"`
	Status  string             `bson:"status" json:"status"` // active | archived | deleted-pending

	// LastAccessedAt feeds the "current workspace" view: when no workspace
	// is explicitly selected, the most recently accessed active one wins.
	LastAccessedAt time.Time `bson:"last_accessed_at" json:"last_accessed_at"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EntityID returns the cache key for this workspace.
func (w Workspace) EntityID() primitive.ObjectID { return w.ID }

// HasModule reports whether the given module is enabled on this workspace.
func (w Workspace) HasModule(m ModuleKey) bool {
	for _, key := range w.Modules {
		if key == m {
			return true
		}
	}
	return false
}

// Active reports whether the workspace is in the active state.
func (w Workspace) Active() bool { return w.Status == WorkspaceActive }
