// store/workspaces/workspacestore.go

// Package workspacestore caches the workspaces owned by the active
// identity scope (the identity itself, or the owning organization for
// team and partner scopes).
package workspacestore

import (
	"context"
	"sort"
	"time"

	"github.com/dalemusser/statehub/authz"
	"github.com/dalemusser/statehub/bus"
	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/internal/normalize"
	"github.com/dalemusser/statehub/internal/timeouts"
	"github.com/dalemusser/statehub/repo"
	"github.com/dalemusser/statehub/scope"
	entitystore "github.com/dalemusser/statehub/store/entity"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the workspace scope store.
type Store struct {
	cache  *entitystore.Store[models.Workspace]
	port   repo.Workspaces
	gate   authz.Gate
	scopes *scope.Store
	events *bus.Bus
	unsub  func()
}

// New builds the store and registers it on the context store's change
// channel. Close unregisters.
func New(scopes *scope.Store, port repo.Workspaces, gate authz.Gate, events *bus.Bus, logger *zap.Logger) *Store {
	s := &Store{
		cache:  entitystore.New[models.Workspace]("workspaces", logger),
		port:   port,
		gate:   gate,
		scopes: scopes,
		events: events,
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
	if ch.New.State == scope.Uninitialized {
		s.cache.Clear()
		return
	}
	if ch.Old.SameIdentity(ch.New) {
		// Workspace-only change; the owned-workspace list stands.
		return
	}
	owner := ch.New.OwnerID()
	if owner.IsZero() {
		s.cache.Clear()
		return
	}
	s.cache.Load(context.Background(), func(ctx context.Context) ([]models.Workspace, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()
		return s.port.ListByOwner(ctx, owner)
	})
}

// Get returns the cached workspace for id.
func (s *Store) Get(id primitive.ObjectID) (models.Workspace, bool) { return s.cache.Get(id) }

// All returns every cached workspace sorted by folded name.
func (s *Store) All() []models.Workspace {
	list := s.cache.All()
	sort.Slice(list, func(i, j int) bool { return list[i].NameCI < list[j].NameCI })
	return list
}

// Active returns the active workspaces sorted by folded name.
func (s *Store) Active() []models.Workspace {
	list := s.cache.Select(func(w models.Workspace) bool { return w.Active() })
	sort.Slice(list, func(i, j int) bool { return list[i].NameCI < list[j].NameCI })
	return list
}

// Current returns the workspace the context has selected, or — when none
// is selected — the most recently accessed active workspace. The second
// return is false when neither exists.
func (s *Store) Current() (models.Workspace, bool) {
	snap := s.scopes.Current()
	if snap.State == scope.WorkspaceActive {
		if ws, ok := s.cache.Get(snap.WorkspaceID); ok {
			return ws, true
		}
	}
	var best models.Workspace
	found := false
	for _, ws := range s.cache.Select(func(w models.Workspace) bool { return w.Active() }) {
		if !found || ws.LastAccessedAt.After(best.LastAccessedAt) {
			best = ws
			found = true
		}
	}
	return best, found
}

// Len returns the number of cached workspaces.
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

// Create adds a workspace owned by the active identity scope. Only user
// and organization scopes may own workspaces; ownership eligibility is a
// pure function of the account kind.
func (s *Store) Create(ctx context.Context, name string, modules []models.ModuleKey) (models.Workspace, error) {
	name = normalize.Name(name)
	if name == "" {
		return models.Workspace{}, &entitystore.ValidationError{Field: "name", Reason: "required"}
	}
	for _, m := range modules {
		if !m.IsValid() {
			return models.Workspace{}, &entitystore.ValidationError{Field: "modules", Reason: "unknown module " + string(m)}
		}
	}
	snap := s.scopes.Current()
	if snap.State == scope.Uninitialized {
		return models.Workspace{}, &entitystore.ValidationError{Field: "scope", Reason: "no identity active"}
	}
	switch snap.Kind {
	case scope.KindUser, scope.KindOrganization:
	default:
		return models.Workspace{}, &entitystore.ValidationError{Field: "scope", Reason: string(snap.Kind) + " scopes cannot own workspaces"}
	}

	now := time.Now().UTC()
	ws := models.Workspace{
		ID:             primitive.NewObjectID(), // provisional, replaced on commit
		Name:           name,
		NameCI:         text.Fold(name),
		OwnerID:        snap.AccountID,
		Modules:        modules,
		Status:         models.WorkspaceActive,
		LastAccessedAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return s.cache.Create(ctx, ws, func(ctx context.Context) (models.Workspace, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Create(ctx, ws)
	})
}

// Rename changes a workspace's name.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	if err := s.gate(authz.WorkspaceManage); err != nil {
		return err
	}
	name = normalize.Name(name)
	if name == "" {
		return &entitystore.ValidationError{Field: "name", Reason: "required"}
	}
	return s.update(ctx, id, func(w models.Workspace) models.Workspace {
		w.Name = name
		w.NameCI = text.Fold(name)
		w.UpdatedAt = time.Now().UTC()
		return w
	})
}

// SetModules replaces a workspace's enabled module set.
func (s *Store) SetModules(ctx context.Context, id primitive.ObjectID, modules []models.ModuleKey) error {
	if err := s.gate(authz.WorkspaceManage); err != nil {
		return err
	}
	for _, m := range modules {
		if !m.IsValid() {
			return &entitystore.ValidationError{Field: "modules", Reason: "unknown module " + string(m)}
		}
	}
	return s.update(ctx, id, func(w models.Workspace) models.Workspace {
		w.Modules = modules
		w.UpdatedAt = time.Now().UTC()
		return w
	})
}

// Archive moves a workspace to the archived state and publishes
// workspace.archived on success.
func (s *Store) Archive(ctx context.Context, id primitive.ObjectID) error {
	if err := s.gate(authz.WorkspaceArchive); err != nil {
		return err
	}
	err := s.update(ctx, id, func(w models.Workspace) models.Workspace {
		w.Status = models.WorkspaceArchived
		w.UpdatedAt = time.Now().UTC()
		return w
	})
	if err != nil {
		return err
	}
	if s.events != nil {
		s.events.Publish(bus.Event{Name: bus.EventWorkspaceArchived, Subject: id})
	}
	return nil
}

// Touch records an access to a workspace, keeping LastAccessedAt honest
// for the Current view. Called by the hub on every workspace switch; it
// is bookkeeping, not a user mutation, so it bypasses the gate.
func (s *Store) Touch(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	err := s.update(ctx, id, func(w models.Workspace) models.Workspace {
		w.LastAccessedAt = now
		return w
	})
	if err == nil && s.events != nil {
		s.events.Publish(bus.Event{Name: bus.EventWorkspaceTouched, Subject: id})
	}
	return err
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, apply func(models.Workspace) models.Workspace) error {
	return s.cache.Update(ctx, id, apply, func(ctx context.Context, w models.Workspace) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Update(ctx, id, w)
	})
}
