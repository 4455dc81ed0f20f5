// repo/memory/memory.go

// Package memrepo provides map-backed repository adapters for tests and
// development. Beyond the port contracts it offers deterministic clocks,
// scripted failure injection (FailNext), call counting (Calls), and
// blocking holds (Hold) so tests can freeze a port call mid-flight and
// exercise the optimistic and last-context-wins protocols.
package memrepo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/statehub/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrDuplicate mirrors the unique indexes of the production adapter.
var ErrDuplicate = errors.New("duplicate key")

// DB is the shared in-memory document store behind every adapter.
type DB struct {
	mu  sync.Mutex
	now func() time.Time

	accounts      map[primitive.ObjectID]models.Account
	workspaces    map[primitive.ObjectID]models.Workspace
	members       map[primitive.ObjectID]models.Member
	documents     map[primitive.ObjectID]models.Document
	tasks         map[primitive.ObjectID]models.Task
	notifications map[primitive.ObjectID]models.Notification
	bots          map[primitive.ObjectID]models.Bot

	failNext map[string]error
	holds    map[string]chan struct{}
	calls    map[string]int
}

// NewDB returns an empty in-memory store.
func NewDB() *DB {
	return &DB{
		now:           func() time.Time { return time.Now().UTC() },
		accounts:      make(map[primitive.ObjectID]models.Account),
		workspaces:    make(map[primitive.ObjectID]models.Workspace),
		members:       make(map[primitive.ObjectID]models.Member),
		documents:     make(map[primitive.ObjectID]models.Document),
		tasks:         make(map[primitive.ObjectID]models.Task),
		notifications: make(map[primitive.ObjectID]models.Notification),
		bots:          make(map[primitive.ObjectID]models.Bot),
		failNext:      make(map[string]error),
		holds:         make(map[string]chan struct{}),
		calls:         make(map[string]int),
	}
}

// SetNow overrides the adapter clock for deterministic timestamps.
func (d *DB) SetNow(fn func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = fn
}

// FailNext makes the next call of the named operation (e.g.
// "documents.update") return err instead of executing.
func (d *DB) FailNext(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext[op] = err
}

// Hold blocks every call of the named operation until the returned release
// function is invoked (or the caller's context is cancelled).
func (d *DB) Hold(op string) (release func()) {
	ch := make(chan struct{})
	d.mu.Lock()
	d.holds[op] = ch
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			if d.holds[op] == ch {
				delete(d.holds, op)
			}
			d.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many times the named operation has been invoked.
func (d *DB) Calls(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[op]
}

// enter records the call, honors holds and scripted failures, and leaves
// d.mu held for the operation body on a nil return.
func (d *DB) enter(ctx context.Context, op string) error {
	d.mu.Lock()
	d.calls[op]++
	hold := d.holds[op]
	d.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	if err, ok := d.failNext[op]; ok {
		delete(d.failNext, op)
		d.mu.Unlock()
		return err
	}
	return nil
}
