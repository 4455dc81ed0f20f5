// store/notifications/notificationstore.go

// Package notificationstore caches the signed-in identity's
// notifications. The scope is the identity, not the workspace: the cache
// survives workspace switches and clears only when the identity scope
// changes or tears down.
package notificationstore

import (
	"context"
	"sort"

	"github.com/dalemusser/statehub/authz"
	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/internal/timeouts"
	"github.com/dalemusser/statehub/repo"
	"github.com/dalemusser/statehub/scope"
	entitystore "github.com/dalemusser/statehub/store/entity"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the notification scope store.
type Store struct {
	cache  *entitystore.Store[models.Notification]
	port   repo.Notifications
	gate   authz.Gate
	scopes *scope.Store
	unsub  func()
}

// New builds the store and registers it on the context store's change
// channel. Close unregisters.
func New(scopes *scope.Store, port repo.Notifications, gate authz.Gate, logger *zap.Logger) *Store {
	s := &Store{
		cache:  entitystore.New[models.Notification]("notifications", logger),
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
	if ch.New.State == scope.Uninitialized {
		s.cache.Clear()
		return
	}
	if ch.Old.SameIdentity(ch.New) {
		// Workspace-only change; the identity's notifications stand.
		return
	}
	accountID := ch.New.AccountID
	s.cache.Load(context.Background(), func(ctx context.Context) ([]models.Notification, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()
		return s.port.ListByAccount(ctx, accountID)
	})
}

// Get returns the cached notification for id.
func (s *Store) Get(id primitive.ObjectID) (models.Notification, bool) { return s.cache.Get(id) }

// All returns every cached notification, newest first.
func (s *Store) All() []models.Notification {
	list := s.cache.All()
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

// Unread returns unread notifications, newest first.
func (s *Store) Unread() []models.Notification {
	list := s.cache.Select(func(n models.Notification) bool { return !n.Read })
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount() int {
	return len(s.cache.Select(func(n models.Notification) bool { return !n.Read }))
}

// Len returns the number of cached notifications.
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

// MarkRead marks one notification read.
func (s *Store) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	if err := s.gate(authz.NotificationsManage); err != nil {
		return err
	}
	return s.update(ctx, id, func(n models.Notification) models.Notification {
		n.Read = true
		return n
	})
}

// MarkAllRead marks every unread notification read, stopping at the
// first failure.
func (s *Store) MarkAllRead(ctx context.Context) error {
	if err := s.gate(authz.NotificationsManage); err != nil {
		return err
	}
	for _, n := range s.Unread() {
		if err := s.update(ctx, n.ID, func(n models.Notification) models.Notification {
			n.Read = true
			return n
		}); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a notification.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.gate(authz.NotificationsManage); err != nil {
		return err
	}
	return s.cache.Delete(ctx, id, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Delete(ctx, id)
	})
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, apply func(models.Notification) models.Notification) error {
	return s.cache.Update(ctx, id, apply, func(ctx context.Context, n models.Notification) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Update(ctx, id, n)
	})
}
