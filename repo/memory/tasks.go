// repo/memory/tasks.go
package memrepo

import (
	"context"

	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tasks is the in-memory task adapter.
type Tasks struct{ db *DB }

// Tasks returns the task adapter over this database.
func (d *DB) Tasks() *Tasks { return &Tasks{db: d} }

func (r *Tasks) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	if err := r.db.enter(ctx, "tasks.get"); err != nil {
		return models.Task{}, err
	}
	defer r.db.mu.Unlock()

	tk, ok := r.db.tasks[id]
	if !ok {
		return models.Task{}, repo.ErrNotFound
	}
	return tk, nil
}

func (r *Tasks) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Task, error) {
	if err := r.db.enter(ctx, "tasks.list"); err != nil {
		return nil, err
	}
	defer r.db.mu.Unlock()

	var out []models.Task
	for _, tk := range r.db.tasks {
		if tk.WorkspaceID == workspaceID {
			out = append(out, tk)
		}
	}
	return out, nil
}

func (r *Tasks) Create(ctx context.Context, tk models.Task) (models.Task, error) {
	if err := r.db.enter(ctx, "tasks.create"); err != nil {
		return models.Task{}, err
	}
	defer r.db.mu.Unlock()

	now := r.db.now()
	tk.ID = primitive.NewObjectID()
	if tk.Status == "" {
		tk.Status = models.TaskOpen
	}
	tk.CreatedAt = now
	tk.UpdatedAt = now
	r.db.tasks[tk.ID] = tk
	return tk, nil
}

func (r *Tasks) Update(ctx context.Context, id primitive.ObjectID, tk models.Task) error {
	if err := r.db.enter(ctx, "tasks.update"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	prev, ok := r.db.tasks[id]
	if !ok {
		return repo.ErrNotFound
	}
	tk.ID = id
	tk.WorkspaceID = prev.WorkspaceID
	tk.CreatedBy = prev.CreatedBy
	tk.CreatedAt = prev.CreatedAt
	tk.UpdatedAt = r.db.now()
	r.db.tasks[id] = tk
	return nil
}

func (r *Tasks) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := r.db.enter(ctx, "tasks.delete"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	if _, ok := r.db.tasks[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.db.tasks, id)
	return nil
}

// SeedTask inserts a task directly, bypassing call accounting.
func (d *DB) SeedTask(tk models.Task) models.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	if tk.ID.IsZero() {
		tk.ID = primitive.NewObjectID()
	}
	if tk.Status == "" {
		tk.Status = models.TaskOpen
	}
	now := d.now()
	if tk.CreatedAt.IsZero() {
		tk.CreatedAt = now
	}
	if tk.UpdatedAt.IsZero() {
		tk.UpdatedAt = now
	}
	d.tasks[tk.ID] = tk
	return tk
}
