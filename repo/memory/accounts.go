// repo/memory/accounts.go
package memrepo

import (
	"context"

	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/repo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Accounts is the in-memory identity adapter.
type Accounts struct{ db *DB }

// Accounts returns the identity adapter over this database.
func (d *DB) Accounts() *Accounts { return &Accounts{db: d} }

func (r *Accounts) GetByID(ctx context.Context, id primitive.ObjectID) (models.Account, error) {
	if err := r.db.enter(ctx, "accounts.get"); err != nil {
		return models.Account{}, err
	}
	defer r.db.mu.Unlock()

	a, ok := r.db.accounts[id]
	if !ok {
		return models.Account{}, repo.ErrNotFound
	}
	return a, nil
}

func (r *Accounts) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Account, error) {
	if err := r.db.enter(ctx, "accounts.list"); err != nil {
		return nil, err
	}
	defer r.db.mu.Unlock()

	var out []models.Account
	for _, a := range r.db.accounts {
		if a.OrganizationID != nil && *a.OrganizationID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *Accounts) Create(ctx context.Context, a models.Account) (models.Account, error) {
	if err := r.db.enter(ctx, "accounts.create"); err != nil {
		return models.Account{}, err
	}
	defer r.db.mu.Unlock()

	now := r.db.now()
	a.ID = primitive.NewObjectID()
	a.NameCI = text.Fold(a.Name)
	if a.Status == "" {
		a.Status = models.AccountActive
	}
	a.CreatedAt = now
	a.UpdatedAt = now

	for _, existing := range r.db.accounts {
		if existing.Kind == a.Kind && existing.NameCI == a.NameCI {
			return models.Account{}, ErrDuplicate
		}
	}
	r.db.accounts[a.ID] = a
	return a, nil
}

func (r *Accounts) Update(ctx context.Context, id primitive.ObjectID, a models.Account) error {
	if err := r.db.enter(ctx, "accounts.update"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	prev, ok := r.db.accounts[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.ID = id
	a.Kind = prev.Kind // kind is immutable after creation
	a.NameCI = text.Fold(a.Name)
	a.CreatedAt = prev.CreatedAt
	a.UpdatedAt = r.db.now()
	r.db.accounts[id] = a
	return nil
}

func (r *Accounts) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := r.db.enter(ctx, "accounts.delete"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	if _, ok := r.db.accounts[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.db.accounts, id)
	return nil
}

// Teams is the kind-filtered adapter over team accounts.
type Teams struct{ db *DB }

// Teams returns the team adapter over this database.
func (d *DB) Teams() *Teams { return &Teams{db: d} }

func (r *Teams) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Account, error) {
	if err := r.db.enter(ctx, "teams.list"); err != nil {
		return nil, err
	}
	defer r.db.mu.Unlock()
	return r.db.listKindLocked(models.KindTeam, orgID), nil
}

// Partners is the kind-filtered adapter over partner accounts.
type Partners struct{ db *DB }

// Partners returns the partner adapter over this database.
func (d *DB) Partners() *Partners { return &Partners{db: d} }

func (r *Partners) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Account, error) {
	if err := r.db.enter(ctx, "partners.list"); err != nil {
		return nil, err
	}
	defer r.db.mu.Unlock()
	return r.db.listKindLocked(models.KindPartner, orgID), nil
}

// listKindLocked filters accounts by kind and organization; callers hold
// d.mu.
func (d *DB) listKindLocked(kind models.AccountKind, orgID primitive.ObjectID) []models.Account {
	var out []models.Account
	for _, a := range d.accounts {
		if a.Kind == kind && a.OrganizationID != nil && *a.OrganizationID == orgID {
			out = append(out, a)
		}
	}
	return out
}

// SeedAccount inserts an account directly, bypassing call accounting.
// Intended for fixtures.
func (d *DB) SeedAccount(a models.Account) models.Account {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.NameCI = text.Fold(a.Name)
	if a.Status == "" {
		a.Status = models.AccountActive
	}
	now := d.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	d.accounts[a.ID] = a
	return a
}
