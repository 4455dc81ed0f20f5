// store/bots/botstore.go

// Package botstore caches the bots of the active organization scope. The
// scope is undefined under user, team, and partner scopes, so the cache
// clears there.
package botstore

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
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the bot scope store.
type Store struct {
	cache  *entitystore.Store[models.Bot]
	port   repo.Bots
	gate   authz.Gate
	scopes *scope.Store
	unsub  func()
}

// New builds the store and registers it on the context store's change
// channel. Close unregisters.
func New(scopes *scope.Store, port repo.Bots, gate authz.Gate, logger *zap.Logger) *Store {
	s := &Store{
		cache:  entitystore.New[models.Bot]("bots", logger),
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
	if ch.New.State == scope.Uninitialized || ch.New.Kind != scope.KindOrganization {
		s.cache.Clear()
		return
	}
	if ch.Old.SameIdentity(ch.New) {
		// Workspace-only change within the organization scope.
		return
	}
	orgID := ch.New.AccountID
	s.cache.Load(context.Background(), func(ctx context.Context) ([]models.Bot, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()
		return s.port.ListByOrganization(ctx, orgID)
	})
}

// Get returns the cached bot for id.
func (s *Store) Get(id primitive.ObjectID) (models.Bot, bool) { return s.cache.Get(id) }

// All returns every cached bot sorted by folded name.
func (s *Store) All() []models.Bot {
	list := s.cache.All()
	sort.Slice(list, func(i, j int) bool { return list[i].NameCI < list[j].NameCI })
	return list
}

// Active returns the active bots sorted by folded name.
func (s *Store) Active() []models.Bot {
	list := s.cache.Select(func(b models.Bot) bool { return b.Status == models.BotActive })
	sort.Slice(list, func(i, j int) bool { return list[i].NameCI < list[j].NameCI })
	return list
}

// Len returns the number of cached bots.
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

// Create adds a bot to the active organization. The backend assigns the
// token; the optimistic cache entry carries none until the commit
// reconciles it.
func (s *Store) Create(ctx context.Context, name string) (models.Bot, error) {
	if err := s.gate(authz.BotsManage); err != nil {
		return models.Bot{}, err
	}
	name = normalize.Name(name)
	if name == "" {
		return models.Bot{}, &entitystore.ValidationError{Field: "name", Reason: "required"}
	}
	snap := s.scopes.Current()
	if snap.State == scope.Uninitialized || snap.Kind != scope.KindOrganization {
		return models.Bot{}, &entitystore.ValidationError{Field: "scope", Reason: "no organization scope active"}
	}

	now := time.Now().UTC()
	b := models.Bot{
		ID:             primitive.NewObjectID(), // provisional, replaced on commit
		OrganizationID: snap.AccountID,
		Name:           name,
		NameCI:         text.Fold(name),
		Status:         models.BotActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return s.cache.Create(ctx, b, func(ctx context.Context) (models.Bot, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Create(ctx, b)
	})
}

// Rename changes a bot's name.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	if err := s.gate(authz.BotsManage); err != nil {
		return err
	}
	name = normalize.Name(name)
	if name == "" {
		return &entitystore.ValidationError{Field: "name", Reason: "required"}
	}
	return s.update(ctx, id, func(b models.Bot) models.Bot {
		b.Name = name
		b.NameCI = text.Fold(name)
		b.UpdatedAt = time.Now().UTC()
		return b
	})
}

// Disable stops a bot without deleting it.
func (s *Store) Disable(ctx context.Context, id primitive.ObjectID) error {
	if err := s.gate(authz.BotsManage); err != nil {
		return err
	}
	return s.update(ctx, id, func(b models.Bot) models.Bot {
		b.Status = models.BotDisabled
		b.UpdatedAt = time.Now().UTC()
		return b
	})
}

// Delete removes a bot.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.gate(authz.BotsManage); err != nil {
		return err
	}
	return s.cache.Delete(ctx, id, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Delete(ctx, id)
	})
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, apply func(models.Bot) models.Bot) error {
	return s.cache.Update(ctx, id, apply, func(ctx context.Context, b models.Bot) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Update(ctx, id, b)
	})
}
