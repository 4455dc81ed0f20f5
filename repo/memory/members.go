// repo/memory/members.go
package memrepo

import (
	"context"

	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Members is the in-memory membership adapter.
type Members struct{ db *DB }

// Members returns the membership adapter over this database.
func (d *DB) Members() *Members { return &Members{db: d} }

func (r *Members) GetByID(ctx context.Context, id primitive.ObjectID) (models.Member, error) {
	if err := r.db.enter(ctx, "members.get"); err != nil {
		return models.Member{}, err
	}
	defer r.db.mu.Unlock()

	m, ok := r.db.members[id]
	if !ok {
		return models.Member{}, repo.ErrNotFound
	}
	return m, nil
}

func (r *Members) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Member, error) {
	if err := r.db.enter(ctx, "members.list"); err != nil {
		return nil, err
	}
	defer r.db.mu.Unlock()

	var out []models.Member
	for _, m := range r.db.members {
		if m.WorkspaceID == workspaceID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *Members) Create(ctx context.Context, m models.Member) (models.Member, error) {
	if err := r.db.enter(ctx, "members.create"); err != nil {
		return models.Member{}, err
	}
	defer r.db.mu.Unlock()

	// One membership per (account, workspace) pair.
	for _, existing := range r.db.members {
		if existing.AccountID == m.AccountID && existing.WorkspaceID == m.WorkspaceID {
			return models.Member{}, ErrDuplicate
		}
	}

	now := r.db.now()
	m.ID = primitive.NewObjectID()
	if m.Status == "" {
		m.Status = models.MemberInvited
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	r.db.members[m.ID] = m
	return m, nil
}

func (r *Members) Update(ctx context.Context, id primitive.ObjectID, m models.Member) error {
	if err := r.db.enter(ctx, "members.update"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	prev, ok := r.db.members[id]
	if !ok {
		return repo.ErrNotFound
	}
	m.ID = id
	m.AccountID = prev.AccountID
	m.WorkspaceID = prev.WorkspaceID
	m.CreatedAt = prev.CreatedAt
	m.UpdatedAt = r.db.now()
	r.db.members[id] = m
	return nil
}

func (r *Members) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := r.db.enter(ctx, "members.delete"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	if _, ok := r.db.members[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.db.members, id)
	return nil
}

// SeedMember inserts a membership directly, bypassing call accounting.
func (d *DB) SeedMember(m models.Member) models.Member {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.Status == "" {
		m.Status = models.MemberActive
	}
	now := d.now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}
	d.members[m.ID] = m
	return m
}
