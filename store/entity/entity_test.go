package entitystore_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/statehub/repo"
	entitystore "github.com/dalemusser/statehub/store/entity"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type thing struct {
	ID   primitive.ObjectID
	Name string
}

func (t thing) EntityID() primitive.ObjectID { return t.ID }

func newStore(t *testing.T) *entitystore.Store[thing] {
	t.Helper()
	return entitystore.New[thing]("things", zap.NewNop())
}

func seed(t *testing.T, s *entitystore.Store[thing], items ...thing) {
	t.Helper()
	s.Load(context.Background(), func(context.Context) ([]thing, error) {
		return items, nil
	})
	s.Wait()
}

func TestLoad_PopulatesCache(t *testing.T) {
	s := newStore(t)
	a := thing{ID: primitive.NewObjectID(), Name: "a"}
	b := thing{ID: primitive.NewObjectID(), Name: "b"}

	seed(t, s, a, b)

	if s.Len() != 2 {
		t.Fatalf("expected 2 cached entities, got %d", s.Len())
	}
	if got, ok := s.Get(a.ID); !ok || got.Name != "a" {
		t.Error("cache should hold entity a")
	}
	if s.Loading() {
		t.Error("loading flag should clear after completion")
	}
}

func TestLoad_FailureKeepsPriorCache(t *testing.T) {
	s := newStore(t)
	a := thing{ID: primitive.NewObjectID(), Name: "a"}
	seed(t, s, a)

	s.Load(context.Background(), func(context.Context) ([]thing, error) {
		return nil, errors.New("connection reset")
	})
	s.Wait()

	if s.Len() != 1 {
		t.Error("failed load should keep prior cache contents")
	}
	if !errors.Is(s.LastError(), entitystore.ErrTransport) {
		t.Errorf("expected transport error, got %v", s.LastError())
	}

	s.ClearError()
	if s.LastError() != nil {
		t.Error("ClearError should drop the retained error")
	}
}

func TestLoad_NewerLoadSupersedesOlder(t *testing.T) {
	s := newStore(t)
	stale := thing{ID: primitive.NewObjectID(), Name: "stale"}
	fresh := thing{ID: primitive.NewObjectID(), Name: "fresh"}

	release := make(chan struct{})
	s.Load(context.Background(), func(ctx context.Context) ([]thing, error) {
		<-release
		return []thing{stale}, nil
	})
	s.Load(context.Background(), func(context.Context) ([]thing, error) {
		return []thing{fresh}, nil
	})
	close(release)
	s.Wait()

	if _, ok := s.Get(stale.ID); ok {
		t.Error("superseded load's data must not appear in the cache")
	}
	if _, ok := s.Get(fresh.ID); !ok {
		t.Error("newest load's data should populate the cache")
	}
}

func TestLoad_ClearDiscardsInFlightResult(t *testing.T) {
	s := newStore(t)
	stale := thing{ID: primitive.NewObjectID(), Name: "stale"}

	release := make(chan struct{})
	s.Load(context.Background(), func(ctx context.Context) ([]thing, error) {
		<-release
		return []thing{stale}, nil
	})
	s.Clear()
	close(release)
	s.Wait()

	if s.Len() != 0 {
		t.Error("load completing after a clear must not repopulate the cache")
	}
}

func TestCreate_ReconcilesServerAssignedFields(t *testing.T) {
	s := newStore(t)
	provisional := thing{ID: primitive.NewObjectID(), Name: "draft"}
	serverID := primitive.NewObjectID()

	stored, err := s.Create(context.Background(), provisional, func(context.Context) (thing, error) {
		return thing{ID: serverID, Name: "draft"}, nil
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if stored.ID != serverID {
		t.Error("Create should return the stored entity")
	}
	if _, ok := s.Get(provisional.ID); ok {
		t.Error("provisional entry should be replaced on commit")
	}
	if _, ok := s.Get(serverID); !ok {
		t.Error("stored entity should be cached under the server id")
	}
}

func TestCreate_FailureRemovesProvisionalEntry(t *testing.T) {
	s := newStore(t)
	provisional := thing{ID: primitive.NewObjectID(), Name: "draft"}

	_, err := s.Create(context.Background(), provisional, func(context.Context) (thing, error) {
		return thing{}, errors.New("write refused")
	})
	if !errors.Is(err, entitystore.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if _, ok := s.Get(provisional.ID); ok {
		t.Error("provisional entry should roll back on failure")
	}
	if !errors.Is(s.LastError(), entitystore.ErrTransport) {
		t.Error("store should retain the failure")
	}
}

func TestUpdate_OptimisticThenCommit(t *testing.T) {
	s := newStore(t)
	d1 := thing{ID: primitive.NewObjectID(), Name: "A"}
	seed(t, s, d1)

	observed := ""
	err := s.Update(context.Background(), d1.ID,
		func(v thing) thing { v.Name = "B"; return v },
		func(_ context.Context, v thing) error {
			// The optimistic value is already visible while persisting.
			got, _ := s.Get(d1.ID)
			observed = got.Name
			return nil
		})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if observed != "B" {
		t.Errorf("optimistic value should be visible during persist, saw %q", observed)
	}
	if got, _ := s.Get(d1.ID); got.Name != "B" {
		t.Error("commit should keep the optimistic value")
	}
}

func TestUpdate_RollbackOnTransportFailure(t *testing.T) {
	s := newStore(t)
	d1 := thing{ID: primitive.NewObjectID(), Name: "A"}
	seed(t, s, d1)

	err := s.Update(context.Background(), d1.ID,
		func(v thing) thing { v.Name = "B"; return v },
		func(context.Context, thing) error { return errors.New("timeout") })

	if !errors.Is(err, entitystore.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if got, _ := s.Get(d1.ID); got.Name != "A" {
		t.Errorf("cache should revert to the pre-mutation snapshot, got %q", got.Name)
	}
	if !errors.Is(s.LastError(), entitystore.ErrTransport) {
		t.Error("store should retain the failure until cleared")
	}
}

func TestUpdate_MissingEntity(t *testing.T) {
	s := newStore(t)
	err := s.Update(context.Background(), primitive.NewObjectID(),
		func(v thing) thing { return v },
		func(context.Context, thing) error { return nil })
	if !errors.Is(err, entitystore.ErrNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestUpdate_ConcurrentMutationRejected(t *testing.T) {
	s := newStore(t)
	d1 := thing{ID: primitive.NewObjectID(), Name: "A"}
	seed(t, s, d1)

	hold := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Update(context.Background(), d1.ID,
			func(v thing) thing { v.Name = "B"; return v },
			func(context.Context, thing) error {
				close(started)
				<-hold
				return nil
			})
	}()
	<-started

	if !s.Persisting() {
		t.Error("persisting flag should be set while a mutation is in flight")
	}

	err := s.Update(context.Background(), d1.ID,
		func(v thing) thing { v.Name = "C"; return v },
		func(context.Context, thing) error { return nil })
	if !errors.Is(err, entitystore.ErrConflict) {
		t.Errorf("second mutation on an in-flight id should be rejected, got %v", err)
	}

	close(hold)
	wg.Wait()

	if got, _ := s.Get(d1.ID); got.Name != "B" {
		t.Errorf("first mutation should commit, got %q", got.Name)
	}
	if s.Persisting() {
		t.Error("persisting flag should clear after commit")
	}
}

func TestUpdate_RollbackSkippedAfterClear(t *testing.T) {
	s := newStore(t)
	d1 := thing{ID: primitive.NewObjectID(), Name: "A"}
	seed(t, s, d1)

	hold := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Update(context.Background(), d1.ID,
			func(v thing) thing { v.Name = "B"; return v },
			func(context.Context, thing) error {
				close(started)
				<-hold
				return errors.New("timeout")
			})
	}()
	<-started

	// The scope moved on while the mutation was in flight.
	s.Clear()
	close(hold)
	wg.Wait()

	if s.Len() != 0 {
		t.Error("rollback must not resurrect entities into a cleared cache")
	}
}

func TestDelete_OptimisticThenRollback(t *testing.T) {
	s := newStore(t)
	d1 := thing{ID: primitive.NewObjectID(), Name: "A"}
	seed(t, s, d1)

	err := s.Delete(context.Background(), d1.ID, func(context.Context) error {
		if _, ok := s.Get(d1.ID); ok {
			t.Error("entity should be removed optimistically while persisting")
		}
		return errors.New("timeout")
	})
	if !errors.Is(err, entitystore.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if _, ok := s.Get(d1.ID); !ok {
		t.Error("failed delete should reinsert the snapshot")
	}
}

func TestDelete_Commit(t *testing.T) {
	s := newStore(t)
	d1 := thing{ID: primitive.NewObjectID(), Name: "A"}
	seed(t, s, d1)

	if err := s.Delete(context.Background(), d1.ID, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Len() != 0 {
		t.Error("committed delete should leave the cache empty")
	}
}

func TestTranslate_PortNotFound(t *testing.T) {
	s := newStore(t)
	d1 := thing{ID: primitive.NewObjectID(), Name: "A"}
	seed(t, s, d1)

	err := s.Update(context.Background(), d1.ID,
		func(v thing) thing { return v },
		func(context.Context, thing) error { return repo.ErrNotFound })
	if !errors.Is(err, entitystore.ErrNotFound) {
		t.Errorf("port absence should translate to the store's not-found error, got %v", err)
	}
}
