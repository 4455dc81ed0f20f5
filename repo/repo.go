// repo/repo.go

// Package repo defines the repository ports the synchronization core uses
// to reach remote persistence, one interface per aggregate. Adapters live
// in repo/memory (tests, development) and repo/mongo (production).
//
// Every operation takes a context and returns an error last. Create
// operations return the stored entity with server-assigned fields (id,
// timestamps, bot tokens) filled in; the entity stores reconcile those
// into their optimistic cache entries on commit. Absence is always
// reported as ErrNotFound, never as a driver-specific error.
package repo

import (
	"context"
	"errors"

	"github.com/dalemusser/statehub/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by any port when the requested entity is absent.
var ErrNotFound = errors.New("not found")

// Accounts is the port for the identity aggregate. All five kinds live in
// one collection; kind-filtered views are served by the Teams and Partners
// ports over the same data.
type Accounts interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Account, error)
	ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Account, error)
	Create(ctx context.Context, a models.Account) (models.Account, error)
	Update(ctx context.Context, id primitive.ObjectID, a models.Account) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Teams is the kind-filtered port over team accounts of one organization.
type Teams interface {
	ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Account, error)
}

// Partners is the kind-filtered port over partner accounts of one
// organization.
type Partners interface {
	ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Account, error)
}

// Workspaces is the port for the workspace aggregate.
type Workspaces interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error)
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Workspace, error)
	Create(ctx context.Context, ws models.Workspace) (models.Workspace, error)
	Update(ctx context.Context, id primitive.ObjectID, ws models.Workspace) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Members is the port for workspace memberships.
type Members interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Member, error)
	ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Member, error)
	Create(ctx context.Context, m models.Member) (models.Member, error)
	Update(ctx context.Context, id primitive.ObjectID, m models.Member) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Documents is the port for workspace documents.
type Documents interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Document, error)
	ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Document, error)
	Create(ctx context.Context, d models.Document) (models.Document, error)
	Update(ctx context.Context, id primitive.ObjectID, d models.Document) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Tasks is the port for workspace tasks.
type Tasks interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error)
	ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Task, error)
	Create(ctx context.Context, tk models.Task) (models.Task, error)
	Update(ctx context.Context, id primitive.ObjectID, tk models.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Notifications is the port for account-scoped notifications.
type Notifications interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Notification, error)
	ListByAccount(ctx context.Context, accountID primitive.ObjectID) ([]models.Notification, error)
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	Update(ctx context.Context, id primitive.ObjectID, n models.Notification) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Bots is the port for organization-scoped bots.
type Bots interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Bot, error)
	ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Bot, error)
	Create(ctx context.Context, b models.Bot) (models.Bot, error)
	Update(ctx context.Context, id primitive.ObjectID, b models.Bot) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
