// store/documents/docstore.go

// Package docstore caches the documents of the active workspace and owns
// their optimistic mutations. Derived views (starred, recent) are
// computed from the canonical cache on every read, never stored.
package docstore

import (
	"context"
	"sort"
	"time"

	"github.com/dalemusser/statehub/authz"
	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/internal/htmlsanitize"
	"github.com/dalemusser/statehub/internal/normalize"
	"github.com/dalemusser/statehub/internal/timeouts"
	"github.com/dalemusser/statehub/repo"
	"github.com/dalemusser/statehub/scope"
	entitystore "github.com/dalemusser/statehub/store/entity"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the document scope store.
type Store struct {
	cache  *entitystore.Store[models.Document]
	port   repo.Documents
	gate   authz.Gate
	scopes *scope.Store
	unsub  func()
}

// New builds the store and registers it on the context store's change
// channel. Close unregisters.
func New(scopes *scope.Store, port repo.Documents, gate authz.Gate, logger *zap.Logger) *Store {
	s := &Store{
		cache:  entitystore.New[models.Document]("documents", logger),
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

// onContextChange implements the reactive reload protocol: no workspace →
// synchronous clear; otherwise exactly one fresh scoped load (the engine
// cancels any in-flight predecessor).
func (s *Store) onContextChange(ch scope.Change) {
	// The departing scope's entries must never be readable under the new
	// one, not even while the replacement load is in flight.
	s.cache.Clear()
	if ch.New.State != scope.WorkspaceActive {
		return
	}
	wsID := ch.New.WorkspaceID
	s.cache.Load(context.Background(), func(ctx context.Context) ([]models.Document, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()
		return s.port.ListByWorkspace(ctx, wsID)
	})
}

// Get returns the cached document for id.
func (s *Store) Get(id primitive.ObjectID) (models.Document, bool) { return s.cache.Get(id) }

// All returns every cached document sorted by folded title.
func (s *Store) All() []models.Document {
	docs := s.cache.All()
	sort.Slice(docs, func(i, j int) bool { return docs[i].TitleCI < docs[j].TitleCI })
	return docs
}

// Starred returns the starred documents sorted by folded title.
func (s *Store) Starred() []models.Document {
	docs := s.cache.Select(func(d models.Document) bool { return d.Starred })
	sort.Slice(docs, func(i, j int) bool { return docs[i].TitleCI < docs[j].TitleCI })
	return docs
}

// Recent returns up to n documents by most recent update.
func (s *Store) Recent(n int) []models.Document {
	docs := s.cache.All()
	sort.Slice(docs, func(i, j int) bool { return docs[i].UpdatedAt.After(docs[j].UpdatedAt) })
	if len(docs) > n {
		docs = docs[:n]
	}
	return docs
}

// Len returns the number of cached documents.
func (s *Store) Len() int { return s.cache.Len() }

// Loading reports whether a scoped load is in flight.
func (s *Store) Loading() bool { return s.cache.Loading() }

// Persisting reports whether any mutation is in flight.
func (s *Store) Persisting() bool { return s.cache.Persisting() }

// LastError returns the retained failure, if any.
func (s *Store) LastError() error { return s.cache.LastError() }

// ClearError drops the retained failure.
func (s *Store) ClearError() { s.cache.ClearError() }

// Wait blocks until in-flight loads settle. For hosts and tests.
func (s *Store) Wait() { s.cache.Wait() }

// Create adds a document to the active workspace. The body is sanitized
// before the optimistic apply.
func (s *Store) Create(ctx context.Context, title, body string) (models.Document, error) {
	if err := s.gate(authz.DocumentsCreate); err != nil {
		return models.Document{}, err
	}
	title = normalize.Name(title)
	if title == "" {
		return models.Document{}, &entitystore.ValidationError{Field: "title", Reason: "required"}
	}
	snap := s.scopes.Current()
	if snap.State != scope.WorkspaceActive {
		return models.Document{}, &entitystore.ValidationError{Field: "workspace", Reason: "no workspace active"}
	}

	now := time.Now().UTC()
	doc := models.Document{
		ID:          primitive.NewObjectID(), // provisional, replaced on commit
		WorkspaceID: snap.WorkspaceID,
		CreatedBy:   snap.AccountID,
		Title:       title,
		TitleCI:     text.Fold(title),
		Body:        htmlsanitize.Sanitize(body),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.cache.Create(ctx, doc, func(ctx context.Context) (models.Document, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Create(ctx, doc)
	})
}

// Rename changes a document's title.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, title string) error {
	if err := s.gate(authz.DocumentsUpdate); err != nil {
		return err
	}
	title = normalize.Name(title)
	if title == "" {
		return &entitystore.ValidationError{Field: "title", Reason: "required"}
	}
	return s.update(ctx, id, func(d models.Document) models.Document {
		d.Title = title
		d.TitleCI = text.Fold(title)
		d.UpdatedAt = time.Now().UTC()
		return d
	})
}

// SetBody replaces a document's body with a sanitized copy.
func (s *Store) SetBody(ctx context.Context, id primitive.ObjectID, body string) error {
	if err := s.gate(authz.DocumentsUpdate); err != nil {
		return err
	}
	clean := htmlsanitize.Sanitize(body)
	return s.update(ctx, id, func(d models.Document) models.Document {
		d.Body = clean
		d.UpdatedAt = time.Now().UTC()
		return d
	})
}

// Star marks a document starred.
func (s *Store) Star(ctx context.Context, id primitive.ObjectID) error {
	return s.setStarred(ctx, id, true)
}

// Unstar clears a document's starred mark.
func (s *Store) Unstar(ctx context.Context, id primitive.ObjectID) error {
	return s.setStarred(ctx, id, false)
}

func (s *Store) setStarred(ctx context.Context, id primitive.ObjectID, starred bool) error {
	if err := s.gate(authz.DocumentsUpdate); err != nil {
		return err
	}
	return s.update(ctx, id, func(d models.Document) models.Document {
		d.Starred = starred
		d.UpdatedAt = time.Now().UTC()
		return d
	})
}

// Delete removes a document. Because every view is computed from the
// canonical cache, the id leaves starred/recent atomically with the
// primary removal.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.gate(authz.DocumentsDelete); err != nil {
		return err
	}
	return s.cache.Delete(ctx, id, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Delete(ctx, id)
	})
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, apply func(models.Document) models.Document) error {
	return s.cache.Update(ctx, id, apply, func(ctx context.Context, d models.Document) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		return s.port.Update(ctx, id, d)
	})
}
