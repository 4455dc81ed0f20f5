// repo/memory/documents.go
package memrepo

import (
	"context"

	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/repo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Documents is the in-memory document adapter.
type Documents struct{ db *DB }

// Documents returns the document adapter over this database.
func (d *DB) Documents() *Documents { return &Documents{db: d} }

func (r *Documents) GetByID(ctx context.Context, id primitive.ObjectID) (models.Document, error) {
	if err := r.db.enter(ctx, "documents.get"); err != nil {
		return models.Document{}, err
	}
	defer r.db.mu.Unlock()

	doc, ok := r.db.documents[id]
	if !ok {
		return models.Document{}, repo.ErrNotFound
	}
	return doc, nil
}

func (r *Documents) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Document, error) {
	if err := r.db.enter(ctx, "documents.list"); err != nil {
		return nil, err
	}
	defer r.db.mu.Unlock()

	var out []models.Document
	for _, doc := range r.db.documents {
		if doc.WorkspaceID == workspaceID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (r *Documents) Create(ctx context.Context, doc models.Document) (models.Document, error) {
	if err := r.db.enter(ctx, "documents.create"); err != nil {
		return models.Document{}, err
	}
	defer r.db.mu.Unlock()

	now := r.db.now()
	doc.ID = primitive.NewObjectID()
	doc.TitleCI = text.Fold(doc.Title)
	doc.CreatedAt = now
	doc.UpdatedAt = now
	r.db.documents[doc.ID] = doc
	return doc, nil
}

func (r *Documents) Update(ctx context.Context, id primitive.ObjectID, doc models.Document) error {
	if err := r.db.enter(ctx, "documents.update"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	prev, ok := r.db.documents[id]
	if !ok {
		return repo.ErrNotFound
	}
	doc.ID = id
	doc.WorkspaceID = prev.WorkspaceID
	doc.CreatedBy = prev.CreatedBy
	doc.TitleCI = text.Fold(doc.Title)
	doc.CreatedAt = prev.CreatedAt
	doc.UpdatedAt = r.db.now()
	r.db.documents[id] = doc
	return nil
}

func (r *Documents) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := r.db.enter(ctx, "documents.delete"); err != nil {
		return err
	}
	defer r.db.mu.Unlock()

	if _, ok := r.db.documents[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.db.documents, id)
	return nil
}

// SeedDocument inserts a document directly, bypassing call accounting.
func (d *DB) SeedDocument(doc models.Document) models.Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	doc.TitleCI = text.Fold(doc.Title)
	now := d.now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}
	d.documents[doc.ID] = doc
	return doc
}
