// store/tasks/taskstore.go

// Package taskstore caches the tasks of the active workspace.
package taskstore

import (
	"context"
	"sort"
	"time"

	"github.com/dalemusser/statehub/authz"
	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/internal/normalize"
	"github.com/dalemusser/statehub/internal/timeouts"
	"github.com/dalemusser/statehub/repo"
	"github.com/dalemusser/statehub/scope"
	entitystore "github.com/dalemusser/statehub/store/entity"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the task scope store.
type Store struct {
	cache  *entitystore.Store[models.Task]
	port   repo.Tasks
	gate   authz.Gate
	scopes *scope.Store
	unsub  func()
}

// New builds the store and registers it on the context store's change
// channel. Close unregisters.
func New(scopes *scope.Store, port repo.Tasks, gate authz.Gate, logger *zap.Logger) *Store {
	s := &Store{
		cache:  entitystore.New[models.Task]("tasks", logger),
		port:   port,
		gate:   gate,
		scopes: scopes,
	}
	s.unsub = scopes.Subscribe(s.onContextChange)
	return s
}

// Close unregisters from the context store and drops the cache.
func (s *Store) Close() {
	s.unsub()
	s.cache.Clear()
}

func (s *Store) onContextChange(ch scope.Change) {
	// The departing scope's entries must never be readable under the new
	// one, not even while the replacement load is in flight.
	s.cache.Clear()
	if ch.New.State != scope.WorkspaceActive {
		return
	}
	wsID := ch.New.WorkspaceID
	s.cache.Load(context.Background(), func(ctx context.Context) ([]models.Task, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()
		return s.port.ListByWorkspace(ctx, wsID)
	})
}

// Get returns the cached task for id.
func (s *Store) Get(id primitive.ObjectID) (models.Task, bool) { return s.cache.Get(id) }

// Open returns open tasks, oldest first.
func (s *Store) Open() []models.Task {
	return s.byStatus(models.TaskOpen)
}

// Done returns completed tasks, oldest first.
func (s *Store) Done() []models.Task {
	return s.byStatus(models.TaskDone)
}

func (s *Store) byStatus(status string) []models.Task {
	tasks := s.cache.Select(func(t models.Task) bool { return t.Status == status })
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	return tasks
}

// AssignedTo returns the tasks assigned to one account.
func (s *Store) AssignedTo(accountID primitive.ObjectID) []models.Task {
	tasks := s.cache.Select(func(t models.Task) bool {
		return t.AssigneeID != nil && *t.AssigneeID == accountID
	})
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	return tasks
}

// Overdue returns open tasks whose due time is before now.
func (s *Store) Overdue(now time.Time) []models.Task {
	tasks := s.cache.Select(func(t models.Task) bool { return t.Overdue(now) })
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Due.Before(*tasks[j].Due) })
	return tasks
}

// Len returns the number of cached tasks.
func (s *Store) Len() int { return s.cache.Len() }

// Loading reports whether a scoped load is in flight.
func (s *Store) Loading() bool { return s.cache.Loading() }

// Persisting reports whether any mutation is in flight.
func (s *Store) Persisting() bool { return s.cache.Persisting() }

// LastError returns the retained failure, if any.
func (s *Store) LastError() error { return s.cache.LastError() }

// ClearError drops the retained failure.
func (s *Store) ClearError() { s.cache.ClearError() }

// Wait blocks until in-flight loads settle.
func (s *Store) Wait() { s.cache.Wait() }

// Create adds an open task to the active workspace.
func (s *Store) Create(ctx context.Context, title string, due *time.Time) (models.Task, error) {
	if err := s.gate(authz.TasksCreate); err != nil {
		return models.Task{}, err
	}
	title = normalize.Name(title)
	if title == "" {
		return models.Task{}, &entitystore.ValidationError{Field: "title", Reason: "required"}
	}
	snap := s.scopes.Current()
	if snap.State != scope.WorkspaceActive {
		return models.Task{}, &entitystore.ValidationError{Field: "workspace", Reason: "no workspace active"}
	}

	now := time.Now().UTC()
	tk := models.Task{
		ID:          primitive.NewObjectID(), // provisional, replaced on commit
		WorkspaceID: snap.WorkspaceID,
		CreatedBy:   snap.AccountID,
		Title:       title,
		Status:      models.TaskOpen,
		Due:         due,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.cache.Create(ctx, tk, func(ctx context.Context) (models.Task, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Create(ctx, tk)
	})
}

// SetStatus moves a task between open and done.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if err := s.gate(authz.TasksUpdate); err != nil {
		return err
	}
	if status != models.TaskOpen && status != models.TaskDone {
		return &entitystore.ValidationError{Field: "status", Reason: "must be open or done"}
	}
	return s.update(ctx, id, func(t models.Task) models.Task {
		t.Status = status
		t.UpdatedAt = time.Now().UTC()
		return t
	})
}

// Assign sets (or, with a nil assignee, clears) a task's assignee.
func (s *Store) Assign(ctx context.Context, id primitive.ObjectID, assignee *primitive.ObjectID) error {
	if err := s.gate(authz.TasksAssign); err != nil {
		return err
	}
	return s.update(ctx, id, func(t models.Task) models.Task {
		t.AssigneeID = assignee
		t.UpdatedAt = time.Now().UTC()
		return t
	})
}

// Delete removes a task.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.gate(authz.TasksDelete); err != nil {
		return err
	}
	return s.cache.Delete(ctx, id, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Delete(ctx, id)
	})
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, apply func(models.Task) models.Task) error {
	return s.cache.Update(ctx, id, apply, func(ctx context.Context, t models.Task) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Update(ctx, id, t)
	})
}
