// store/members/memberstore.go

// Package memberstore caches the memberships of the active workspace.
// The permission gate reads its Of view to resolve the current identity's
// effective role.
package memberstore

import (
	"context"
	"sort"
	"time"

	"github.com/dalemusser/statehub/authz"
	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/internal/timeouts"
	"github.com/dalemusser/statehub/repo"
	"github.com/dalemusser/statehub/scope"
	entitystore "github.com/dalemusser/statehub/store/entity"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the membership scope store.
type Store struct {
	cache  *entitystore.Store[models.Member]
	port   repo.Members
	gate   authz.Gate
	scopes *scope.Store
	unsub  func()
}

// New builds the store and registers it on the context store's change
// channel. Close unregisters.
func New(scopes *scope.Store, port repo.Members, gate authz.Gate, logger *zap.Logger) *Store {
	s := &Store{
		cache:  entitystore.New[models.Member]("members", logger),
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
	s.cache.Load(context.Background(), func(ctx context.Context) ([]models.Member, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()
		return s.port.ListByWorkspace(ctx, wsID)
	})
}

// Get returns the cached membership for id.
func (s *Store) Get(id primitive.ObjectID) (models.Member, bool) { return s.cache.Get(id) }

// Of returns the membership of one account in the active workspace.
func (s *Store) Of(accountID primitive.ObjectID) (models.Member, bool) {
	matches := s.cache.Select(func(m models.Member) bool { return m.AccountID == accountID })
	if len(matches) == 0 {
		return models.Member{}, false
	}
	return matches[0], true
}

// Active returns members with active status, oldest membership first.
func (s *Store) Active() []models.Member { return s.byStatus(models.MemberActive) }

// Suspended returns members with suspended status.
func (s *Store) Suspended() []models.Member { return s.byStatus(models.MemberSuspended) }

// Invited returns members who have not yet accepted.
func (s *Store) Invited() []models.Member { return s.byStatus(models.MemberInvited) }

func (s *Store) byStatus(status models.MemberStatus) []models.Member {
	members := s.cache.Select(func(m models.Member) bool { return m.Status == status })
	sort.Slice(members, func(i, j int) bool { return members[i].CreatedAt.Before(members[j].CreatedAt) })
	return members
}

// ByRole returns members holding the given role.
func (s *Store) ByRole(role models.Role) []models.Member {
	members := s.cache.Select(func(m models.Member) bool { return m.Role == role })
	sort.Slice(members, func(i, j int) bool { return members[i].CreatedAt.Before(members[j].CreatedAt) })
	return members
}

// Len returns the number of cached memberships.
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

// Invite adds an invited membership for an account in the active
// workspace.
func (s *Store) Invite(ctx context.Context, accountID primitive.ObjectID, role models.Role) (models.Member, error) {
	if err := s.gate(authz.MembersInvite); err != nil {
		return models.Member{}, err
	}
	if accountID.IsZero() {
		return models.Member{}, &entitystore.ValidationError{Field: "account_id", Reason: "required"}
	}
	if !role.IsValid() {
		return models.Member{}, &entitystore.ValidationError{Field: "role", Reason: "unknown role"}
	}
	snap := s.scopes.Current()
	if snap.State != scope.WorkspaceActive {
		return models.Member{}, &entitystore.ValidationError{Field: "workspace", Reason: "no workspace active"}
	}
	if _, exists := s.Of(accountID); exists {
		return models.Member{}, &entitystore.ValidationError{Field: "account_id", Reason: "already a member"}
	}

	now := time.Now().UTC()
	m := models.Member{
		ID:          primitive.NewObjectID(), // provisional, replaced on commit
		WorkspaceID: snap.WorkspaceID,
		AccountID:   accountID,
		Role:        role,
		Status:      models.MemberInvited,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.cache.Create(ctx, m, func(ctx context.Context) (models.Member, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Create(ctx, m)
	})
}

// SetRole changes a membership's role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) error {
	if err := s.gate(authz.MembersManage); err != nil {
		return err
	}
	if !role.IsValid() {
		return &entitystore.ValidationError{Field: "role", Reason: "unknown role"}
	}
	return s.update(ctx, id, func(m models.Member) models.Member {
		m.Role = role
		m.UpdatedAt = time.Now().UTC()
		return m
	})
}

// SetStatus moves a membership along the status transition table.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status models.MemberStatus) error {
	if err := s.gate(authz.MembersManage); err != nil {
		return err
	}
	cur, ok := s.cache.Get(id)
	if !ok {
		return &entitystore.NotFoundError{Store: "members", ID: id}
	}
	if !cur.Status.CanTransitionTo(status) {
		return &entitystore.ValidationError{Field: "status", Reason: string(cur.Status) + " cannot transition to " + string(status)}
	}
	return s.update(ctx, id, func(m models.Member) models.Member {
		m.Status = status
		m.UpdatedAt = time.Now().UTC()
		return m
	})
}

// SetCustomPermissions replaces a membership's additive capability
// grants. Unknown atoms are rejected.
func (s *Store) SetCustomPermissions(ctx context.Context, id primitive.ObjectID, perms []string) error {
	if err := s.gate(authz.MembersManage); err != nil {
		return err
	}
	for _, p := range perms {
		if !authz.Capability(p).IsValid() {
			return &entitystore.ValidationError{Field: "custom_permissions", Reason: "unknown capability " + p}
		}
	}
	return s.update(ctx, id, func(m models.Member) models.Member {
		m.CustomPermissions = perms
		m.UpdatedAt = time.Now().UTC()
		return m
	})
}

// Remove deletes a membership.
func (s *Store) Remove(ctx context.Context, id primitive.ObjectID) error {
	if err := s.gate(authz.MembersRemove); err != nil {
		return err
	}
	return s.cache.Delete(ctx, id, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Delete(ctx, id)
	})
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, apply func(models.Member) models.Member) error {
	return s.cache.Update(ctx, id, apply, func(ctx context.Context, m models.Member) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Update(ctx, id, m)
	})
}
