// repo/memory/bots.go
package memrepo

import (
	"context"

	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/repo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bots is the in-memory bot adapter.
type Bots struct{ db *DB }

// Bots returns the bot adapter over this database.
func (d *DB) Bots() *Bots { return &Bots{db: d} }

func (r *Bots) GetByID(ctx context.Context, id primitive.ObjectID) (models.Bot, error) {
	if err := r.db.enter(ctx, "bots.get"); err != nil {
		return models.Bot{}, err
	}
	defer r.db.mu.Unlock()

	b, ok := r.db.bots[id]
	if !ok {
		return models.Bot{}, repo.ErrNotFound
	}
	return b, nil
}

func (r *Bots) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Bot, error) {
	if err := r.db.enter(ctx, "bots.list"); err != nil {
		return nil, err
	}
	defer r.db.mu.Unlock()

	var out []models.Bot
	for _, b := range r.db.bots {
		if b.OrganizationID == orgID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *Bots) Create(ctx context.Context, b models.Bot) (models.Bot, error) {
	if err := r.db.enter(ctx, "bots.create"); err != nil {
		return models.Bot{}, err
	}
	defer r.db.mu.Unlock()

	now := r.db.now()
	b.ID = primitive.NewObjectID()
	b.NameCI = text.Fold(b.Name)
	b.Token = uuid.NewString() // server-assigned, opaque to the core
	if b.Status == "" {
		b.Status = models.BotActive
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	r.db.bots[b.ID] = b
	return b, nil
}

func (r *Bots) Update(ctx context.Context, id primitive.ObjectID, b models.Bot) error {
	if err := r.db.enter(ctx, "bots.update"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	prev, ok := r.db.bots[id]
	if !ok {
		return repo.ErrNotFound
	}
	b.ID = id
	b.OrganizationID = prev.OrganizationID
	b.Token = prev.Token // tokens never change through the port
	b.NameCI = text.Fold(b.Name)
	b.CreatedAt = prev.CreatedAt
	b.UpdatedAt = r.db.now()
	r.db.bots[id] = b
	return nil
}

func (r *Bots) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := r.db.enter(ctx, "bots.delete"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	if _, ok := r.db.bots[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.db.bots, id)
	return nil
}

// SeedBot inserts a bot directly, bypassing call accounting.
func (d *DB) SeedBot(b models.Bot) models.Bot {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	b.NameCI = text.Fold(b.Name)
	if b.Token == "" {
		b.Token = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = models.BotActive
	}
	now := d.now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
	d.bots[b.ID] = b
	return b
}
