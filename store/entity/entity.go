// store/entity/entity.go

// Package entitystore implements the generic normalized cache underlying
// every scope store: an id-keyed map of one entity type with the
// optimistic mutation protocol, load epochs, and per-id in-flight
// tracking.
//
// Mutations apply to the cache immediately, then issue the repository
// port call; on failure the cache rolls back to its pre-mutation snapshot
// and the error is retained until cleared. A second mutation on an id
// whose first mutation is still in flight is rejected with ErrConflict.
//
// Loads carry an epoch: beginning a new load (or clearing the cache)
// bumps it, and any completion — load result, mutation commit, or
// rollback — that observes a stale epoch is discarded instead of applied.
// That keeps data from a superseded scope out of a freshly switched
// cache (last-context-wins).
package entitystore

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/statehub/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Entity is anything cacheable by object id.
type Entity interface {
	EntityID() primitive.ObjectID
}

// Store is a normalized cache of one entity type. Each instance is owned
// by exactly one scope store; cross-store reads go through that owner's
// computed views. Safe for concurrent use.
type Store[T Entity] struct {
	name   string
	logger *zap.Logger

	mu         sync.Mutex
	items      map[primitive.ObjectID]T
	epoch      uint64
	loading    bool
	loadCancel context.CancelFunc
	inflight   map[primitive.ObjectID]struct{}
	persisting int
	lastErr    error

	wg sync.WaitGroup
}

// New returns an empty store. The name tags errors and log entries.
func New[T Entity](name string, logger *zap.Logger) *Store[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store[T]{
		name:     name,
		logger:   logger.With(zap.String("store", name)),
		items:    make(map[primitive.ObjectID]T),
		inflight: make(map[primitive.ObjectID]struct{}),
	}
}

// Name returns the store's tag.
func (s *Store[T]) Name() string { return s.name }

// Get returns the cached entity for id.
func (s *Store[T]) Get(id primitive.ObjectID) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	return v, ok
}

// All returns a copy of every cached entity in unspecified order.
func (s *Store[T]) All() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	return out
}

// Select returns every cached entity matching the predicate.
func (s *Store[T]) Select(pred func(T) bool) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []T
	for _, v := range s.items {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// Len returns the number of cached entities.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Loading reports whether a scoped load is in flight.
func (s *Store[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Persisting reports whether any mutation is in flight.
func (s *Store[T]) Persisting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persisting > 0
}

// LastError returns the most recent failure, retained until ClearError.
func (s *Store[T]) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError drops the retained failure.
func (s *Store[T]) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// Clear synchronously empties the cache, cancels any in-flight load, and
// bumps the epoch so in-flight completions are discarded. Called when a
// context change makes this store's scope undefined, and on teardown.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	if s.loadCancel != nil {
		s.loadCancel()
		s.loadCancel = nil
	}
	s.items = make(map[primitive.ObjectID]T)
	s.epoch++
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Debug("cache cleared")
}

// Load issues one scoped load. Any previous in-flight load is cancelled
// and its eventual completion discarded; at most one load is active per
// store. The fetch runs on its own goroutine — Load returns immediately.
// A failed load keeps the prior cache contents (stale-but-present) and
// retains a TransportError.
func (s *Store[T]) Load(parent context.Context, fetch func(context.Context) ([]T, error)) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if s.loadCancel != nil {
		s.loadCancel()
	}
	s.loadCancel = cancel
	s.epoch++
	epoch := s.epoch
	s.loading = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		list, err := fetch(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.epoch != epoch {
			// Superseded by a newer load or a clear; discard.
			s.logger.Debug("discarding stale load result")
			return
		}
		s.loading = false
		s.loadCancel = nil
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.lastErr = &TransportError{Store: s.name, Op: "load", Err: err}
			s.logger.Error("load failed, keeping prior cache", zap.Error(err))
			return
		}
		items := make(map[primitive.ObjectID]T, len(list))
		for _, v := range list {
			items[v.EntityID()] = v
		}
		s.items = items
		s.logger.Debug("cache loaded", zap.Int("count", len(items)))
	}()
}

// Wait blocks until every in-flight load has completed or been discarded.
// Intended for hosts and tests that need a settled cache.
func (s *Store[T]) Wait() { s.wg.Wait() }

// Create applies the optimistic entity (which must carry a provisional
// id) to the cache, then runs persist. On success the provisional entry
// is replaced by the stored entity, reconciling server-assigned fields;
// on failure the provisional entry is removed and the error retained.
// The caller blocks until the final outcome; concurrent readers observe
// the optimistic entry immediately.
func (s *Store[T]) Create(ctx context.Context, optimistic T, persist func(context.Context) (T, error)) (T, error) {
	var zero T
	provisional := optimistic.EntityID()
	if provisional.IsZero() {
		return zero, &ValidationError{Field: "id", Reason: "optimistic entity needs a provisional id"}
	}

	s.mu.Lock()
	if _, busy := s.inflight[provisional]; busy {
		s.mu.Unlock()
		return zero, &ConflictError{Store: s.name, ID: provisional}
	}
	s.items[provisional] = optimistic
	s.inflight[provisional] = struct{}{}
	s.persisting++
	epoch := s.epoch
	s.mu.Unlock()

	stored, err := persist(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.persisting--
	delete(s.inflight, provisional)

	if err != nil {
		werr := s.translate("create", err)
		if s.epoch == epoch {
			delete(s.items, provisional)
			s.lastErr = werr
		}
		s.logger.Warn("create rolled back", zap.Error(err))
		return zero, werr
	}
	if s.epoch == epoch {
		delete(s.items, provisional)
		s.items[stored.EntityID()] = stored
	}
	return stored, nil
}

// Update snapshots the cached entity, applies the mutation optimistically,
// then runs persist with the optimistic value. Rollback restores the
// snapshot unless the cache moved to a new epoch mid-flight.
func (s *Store[T]) Update(ctx context.Context, id primitive.ObjectID, apply func(T) T, persist func(context.Context, T) error) error {
	s.mu.Lock()
	prev, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return &NotFoundError{Store: s.name, ID: id}
	}
	if _, busy := s.inflight[id]; busy {
		s.mu.Unlock()
		return &ConflictError{Store: s.name, ID: id}
	}
	next := apply(prev)
	s.items[id] = next
	s.inflight[id] = struct{}{}
	s.persisting++
	epoch := s.epoch
	s.mu.Unlock()

	err := persist(ctx, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.persisting--
	delete(s.inflight, id)

	if err != nil {
		werr := s.translate("update", err)
		if s.epoch == epoch {
			s.items[id] = prev
			s.lastErr = werr
		}
		s.logger.Warn("update rolled back", zap.String("id", id.Hex()), zap.Error(err))
		return werr
	}
	return nil
}

// Delete removes the entity optimistically, then runs persist. Rollback
// reinserts the snapshot unless the cache moved to a new epoch mid-flight.
func (s *Store[T]) Delete(ctx context.Context, id primitive.ObjectID, persist func(context.Context) error) error {
	s.mu.Lock()
	prev, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return &NotFoundError{Store: s.name, ID: id}
	}
	if _, busy := s.inflight[id]; busy {
		s.mu.Unlock()
		return &ConflictError{Store: s.name, ID: id}
	}
	delete(s.items, id)
	s.inflight[id] = struct{}{}
	s.persisting++
	epoch := s.epoch
	s.mu.Unlock()

	err := persist(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.persisting--
	delete(s.inflight, id)

	if err != nil {
		werr := s.translate("delete", err)
		if s.epoch == epoch {
			s.items[id] = prev
			s.lastErr = werr
		}
		s.logger.Warn("delete rolled back", zap.String("id", id.Hex()), zap.Error(err))
		return werr
	}
	return nil
}

// translate maps port errors into the store taxonomy. Absence becomes
// NotFoundError; anything else is a TransportError (transient and
// permanent failures are both mutation failures to the core).
func (s *Store[T]) translate(op string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return &NotFoundError{Store: s.name}
	}
	return &TransportError{Store: s.name, Op: op, Err: err}
}
