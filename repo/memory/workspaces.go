// repo/memory/workspaces.go
package memrepo

import (
	"context"

	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/repo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workspaces is the in-memory workspace adapter.
type Workspaces struct{ db *DB }

// Workspaces returns the workspace adapter over this database.
func (d *DB) Workspaces() *Workspaces { return &Workspaces{db: d} }

func (r *Workspaces) GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error) {
	if err := r.db.enter(ctx, "workspaces.get"); err != nil {
		return models.Workspace{}, err
	}
	defer r.db.mu.Unlock()

	ws, ok := r.db.workspaces[id]
	if !ok {
		return models.Workspace{}, repo.ErrNotFound
	}
	return ws, nil
}

func (r *Workspaces) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Workspace, error) {
	if err := r.db.enter(ctx, "workspaces.list"); err != nil {
		return nil, err
	}
	defer r.db.mu.Unlock()

	var out []models.Workspace
	for _, ws := range r.db.workspaces {
		if ws.OwnerID == ownerID {
			out = append(out, ws)
		}
	}
	return out, nil
}

func (r *Workspaces) Create(ctx context.Context, ws models.Workspace) (models.Workspace, error) {
	if err := r.db.enter(ctx, "workspaces.create"); err != nil {
		return models.Workspace{}, err
	}
	defer r.db.mu.Unlock()

	now := r.db.now()
	ws.ID = primitive.NewObjectID()
	ws.NameCI = text.Fold(ws.Name)
	if ws.Status == "" {
		ws.Status = models.WorkspaceActive
	}
	ws.LastAccessedAt = now
	ws.CreatedAt = now
	ws.UpdatedAt = now

	for _, existing := range r.db.workspaces {
		if existing.OwnerID == ws.OwnerID && existing.NameCI == ws.NameCI {
			return models.Workspace{}, ErrDuplicate
		}
	}
	r.db.workspaces[ws.ID] = ws
	return ws, nil
}

func (r *Workspaces) Update(ctx context.Context, id primitive.ObjectID, ws models.Workspace) error {
	if err := r.db.enter(ctx, "workspaces.update"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	prev, ok := r.db.workspaces[id]
	if !ok {
		return repo.ErrNotFound
	}
	ws.ID = id
	ws.OwnerID = prev.OwnerID
	ws.NameCI = text.Fold(ws.Name)
	ws.CreatedAt = prev.CreatedAt
	ws.UpdatedAt = r.db.now()
	r.db.workspaces[id] = ws
	return nil
}

func (r *Workspaces) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := r.db.enter(ctx, "workspaces.delete"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	if _, ok := r.db.workspaces[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.db.workspaces, id)
	return nil
}

// SeedWorkspace inserts a workspace directly, bypassing call accounting.
func (d *DB) SeedWorkspace(ws models.Workspace) models.Workspace {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ws.ID.IsZero() {
		ws.ID = primitive.NewObjectID()
	}
	ws.NameCI = text.Fold(ws.Name)
	if ws.Status == "" {
		ws.Status = models.WorkspaceActive
	}
	now := d.now()
	if ws.LastAccessedAt.IsZero() {
		ws.LastAccessedAt = now
	}
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = now
	}
	if ws.UpdatedAt.IsZero() {
		ws.UpdatedAt = now
	}
	d.workspaces[ws.ID] = ws
	return ws
}
