// store/accounts/accountstore.go

// Package accountstore caches the signed-in identity and the scopes
// reachable from it: the owning organization (if any) plus that
// organization's teams and partners. The scope-switcher UI of a host
// renders directly from these views.
package accountstore

import (
	"context"
	"sort"
	"time"

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

// Store is the account scope store.
type Store struct {
	cache    *entitystore.Store[models.Account]
	port     repo.Accounts
	teams    repo.Teams
	partners repo.Partners
	scopes   *scope.Store
	events   *bus.Bus
	unsub    func()
}

// New builds the store and registers it on the context store's change
// channel. The teams and partners ports serve the kind-filtered halves of
// the identity graph. Close unregisters.
func New(scopes *scope.Store, port repo.Accounts, teams repo.Teams, partners repo.Partners, events *bus.Bus, logger *zap.Logger) *Store {
	s := &Store{
		cache:    entitystore.New[models.Account]("accounts", logger),
		port:     port,
		teams:    teams,
		partners: partners,
		scopes:   scopes,
		events:   events,
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
		// Workspace-only change; the identity graph stands.
		return
	}
	accountID := ch.New.AccountID
	s.cache.Load(context.Background(), func(ctx context.Context) ([]models.Account, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()
		return s.fetchGraph(ctx, accountID)
	})
}

// fetchGraph loads the identity plus every scope reachable from it.
func (s *Store) fetchGraph(ctx context.Context, accountID primitive.ObjectID) ([]models.Account, error) {
	self, err := s.port.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := []models.Account{self}

	var orgID primitive.ObjectID
	switch {
	case self.Kind == models.KindOrganization:
		orgID = self.ID
	case self.OrganizationID != nil:
		orgID = *self.OrganizationID
	default:
		return out, nil
	}

	if orgID != self.ID {
		org, err := s.port.GetByID(ctx, orgID)
		if err != nil {
			return nil, err
		}
		out = append(out, org)
	}

	teams, err := s.teams.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	partners, err := s.partners.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for _, a := range append(teams, partners...) {
		if a.ID != self.ID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Current returns the account of the active identity scope.
func (s *Store) Current() (models.Account, bool) {
	snap := s.scopes.Current()
	if snap.State == scope.Uninitialized {
		return models.Account{}, false
	}
	return s.cache.Get(snap.AccountID)
}

// Get returns the cached account for id.
func (s *Store) Get(id primitive.ObjectID) (models.Account, bool) { return s.cache.Get(id) }

// Organizations returns the cached organization accounts, name-sorted.
func (s *Store) Organizations() []models.Account { return s.byKind(models.KindOrganization) }

// Teams returns the cached team accounts, name-sorted.
func (s *Store) Teams() []models.Account { return s.byKind(models.KindTeam) }

// Partners returns the cached partner accounts, name-sorted.
func (s *Store) Partners() []models.Account { return s.byKind(models.KindPartner) }

func (s *Store) byKind(kind models.AccountKind) []models.Account {
	list := s.cache.Select(func(a models.Account) bool { return a.Kind == kind })
	sort.Slice(list, func(i, j int) bool { return list[i].NameCI < list[j].NameCI })
	return list
}

// Len returns the number of cached accounts.
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

// UpdateName renames an account. Kind is immutable; only the display
// name moves.
func (s *Store) UpdateName(ctx context.Context, id primitive.ObjectID, name string) error {
	name = normalize.Name(name)
	if name == "" {
		return &entitystore.ValidationError{Field: "name", Reason: "required"}
	}
	return s.update(ctx, id, func(a models.Account) models.Account {
		a.Name = name
		a.NameCI = text.Fold(name)
		a.UpdatedAt = time.Now().UTC()
		return a
	})
}

// Suspend marks an account suspended and publishes account.suspended on
// success. The hub reacts by resetting the context when the suspended
// account is the active scope — the bus breaks what would otherwise be a
// static cycle between this store and the context store.
func (s *Store) Suspend(ctx context.Context, id primitive.ObjectID) error {
	err := s.update(ctx, id, func(a models.Account) models.Account {
		a.Status = models.AccountSuspended
		a.UpdatedAt = time.Now().UTC()
		return a
	})
	if err != nil {
		return err
	}
	if s.events != nil {
		s.events.Publish(bus.Event{Name: bus.EventAccountSuspended, Subject: id})
	}
	return nil
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, apply func(models.Account) models.Account) error {
	return s.cache.Update(ctx, id, apply, func(ctx context.Context, a models.Account) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Update(ctx, id, a)
	})
}
