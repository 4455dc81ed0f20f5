// bus/bus.go

// Package bus provides a typed synchronous publish/subscribe channel keyed
// by event name. It exists to break static dependency cycles between stores
// that must react to each other's changes; it is not a durable queue.
// Delivery is at-most-once, synchronous fan-out to the subscribers present
// at publish time. Ordering within one event name follows publish order;
// no ordering holds across distinct names.
package bus

import (
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Well-known event names.
const (
	EventContextChanged    = "context.changed"
	EventContextReset      = "context.reset"
	EventAccountSuspended  = "account.suspended"
	EventWorkspaceArchived = "workspace.archived"
	EventWorkspaceTouched  = "workspace.touched"
)

// Event is one published occurrence. Subject identifies the entity the
// event is about; Fields carries ad hoc detail.
type Event struct {
	Name    string
	Time    time.Time
	Subject primitive.ObjectID
	Fields  map[string]any
}

// Handler receives published events for one name.
type Handler func(Event)

type subscriber struct {
	id int
	fn Handler
}

// Bus is a synchronous in-process event bus. The zero value is not usable;
// construct with New.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]subscriber
	logger *zap.Logger
}

// New returns an empty bus. Pass zap.NewNop() when no logging is wanted.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{subs: make(map[string][]subscriber), logger: logger}
}

// Subscribe registers a handler for one event name and returns a cancel
// function that removes it. Handlers run synchronously on the publisher's
// goroutine, in registration order.
func (b *Bus) Subscribe(name string, fn Handler) (cancel func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscriber{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[name]
		for i, s := range list {
			if s.id == id {
				b.subs[name] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to every current subscriber of its name.
// Missing Time is filled with the current UTC time.
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	b.mu.Lock()
	list := make([]subscriber, len(b.subs[ev.Name]))
	copy(list, b.subs[ev.Name])
	b.mu.Unlock()

	b.logger.Debug("publishing event",
		zap.String("event", ev.Name),
		zap.Int("subscribers", len(list)))

	for _, s := range list {
		s.fn(ev)
	}
}
