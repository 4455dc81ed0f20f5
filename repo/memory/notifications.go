// repo/memory/notifications.go
package memrepo

import (
	"context"

	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifications is the in-memory notification adapter.
type Notifications struct{ db *DB }

// Notifications returns the notification adapter over this database.
func (d *DB) Notifications() *Notifications { return &Notifications{db: d} }

func (r *Notifications) GetByID(ctx context.Context, id primitive.ObjectID) (models.Notification, error) {
	if err := r.db.enter(ctx, "notifications.get"); err != nil {
		return models.Notification{}, err
	}
	defer r.db.mu.Unlock()

	n, ok := r.db.notifications[id]
	if !ok {
		return models.Notification{}, repo.ErrNotFound
	}
	return n, nil
}

func (r *Notifications) ListByAccount(ctx context.Context, accountID primitive.ObjectID) ([]models.Notification, error) {
	if err := r.db.enter(ctx, "notifications.list"); err != nil {
		return nil, err
	}
	defer r.db.mu.Unlock()

	var out []models.Notification
	for _, n := range r.db.notifications {
		if n.AccountID == accountID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *Notifications) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	if err := r.db.enter(ctx, "notifications.create"); err != nil {
		return models.Notification{}, err
	}
	defer r.db.mu.Unlock()

	n.ID = primitive.NewObjectID()
	n.CreatedAt = r.db.now()
	r.db.notifications[n.ID] = n
	return n, nil
}

func (r *Notifications) Update(ctx context.Context, id primitive.ObjectID, n models.Notification) error {
	if err := r.db.enter(ctx, "notifications.update"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	prev, ok := r.db.notifications[id]
	if !ok {
		return repo.ErrNotFound
	}
	n.ID = id
	n.AccountID = prev.AccountID
	n.CreatedAt = prev.CreatedAt
	r.db.notifications[id] = n
	return nil
}

func (r *Notifications) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := r.db.enter(ctx, "notifications.delete"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	if _, ok := r.db.notifications[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.db.notifications, id)
	return nil
}

// SeedNotification inserts a notification directly, bypassing call
// accounting.
func (d *DB) SeedNotification(n models.Notification) models.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.now()
	}
	d.notifications[n.ID] = n
	return n
}
