// scope/scope.go

// Package scope implements the context store: the canonical single source
// of truth for which identity scope (and optionally which workspace) is
// currently active. Every scope store subscribes to it and reacts to
// changes by clearing or reloading its cache.
//
// The state machine is {Uninitialized, IdentityActive,
// IdentityActive+WorkspaceActive}. Transitions are synchronous with
// respect to this store; downstream reactions (cache clears, reloads) run
// in the subscribers.
package scope

import (
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Kind is the identity-scope discriminator. Bots are not interactive
// scopes; they authenticate out of band.
type Kind string

const (
	KindUser         Kind = "user"
	KindOrganization Kind = "organization"
	KindTeam         Kind = "team"
	KindPartner      Kind = "partner"
)

// IsValid reports whether k is one of the switchable scope kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindUser, KindOrganization, KindTeam, KindPartner:
		return true
	}
	return false
}

// State is the context store's state-machine position.
type State int

const (
	Uninitialized State = iota
	IdentityActive
	WorkspaceActive
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case IdentityActive:
		return "identity-active"
	case WorkspaceActive:
		return "workspace-active"
	}
	return "unknown"
}

// Target describes a switch request: an identity scope plus an optional
// workspace selection (NilObjectID means none). Team and partner scopes
// must name their owning organization; user and organization scopes leave
// it unset.
type Target struct {
	Kind           Kind
	AccountID      primitive.ObjectID
	OrganizationID primitive.ObjectID
	WorkspaceID    primitive.ObjectID
}

// Result reports the outcome of a switch request.
type Result int

const (
	// Switched means the context changed and a change was emitted.
	Switched Result = iota
	// AlreadyActive means the target equals the current context; nothing
	// changed and no change was emitted.
	AlreadyActive
)

var (
	// ErrInvalidTarget is returned for a malformed switch target.
	ErrInvalidTarget = errors.New("invalid scope target")
	// ErrNoIdentity is returned when a workspace switch is requested
	// while no identity scope is active.
	ErrNoIdentity = errors.New("no identity scope active")
)

// Snapshot is an immutable copy of the active context. Epoch increments on
// every change; stale asynchronous completions compare epochs to detect
// that the world moved on underneath them.
type Snapshot struct {
	State          State
	Kind           Kind
	AccountID      primitive.ObjectID
	OrganizationID primitive.ObjectID
	WorkspaceID    primitive.ObjectID
	Epoch          uint64
}

// OwnerID returns the account eligible to own workspaces in this scope:
// the identity itself for user and organization scopes, the owning
// organization for team and partner scopes.
func (s Snapshot) OwnerID() primitive.ObjectID {
	switch s.Kind {
	case KindUser, KindOrganization:
		return s.AccountID
	case KindTeam, KindPartner:
		return s.OrganizationID
	}
	return primitive.NilObjectID
}

// SameIdentity reports whether both snapshots name the same identity
// scope, ignoring workspace selection.
func (s Snapshot) SameIdentity(other Snapshot) bool {
	if s.State == Uninitialized || other.State == Uninitialized {
		return s.State == other.State
	}
	return s.Kind == other.Kind && s.AccountID == other.AccountID
}

// Change carries the old and new snapshots so subscribers can decide
// between clearing and reloading.
type Change struct {
	Old Snapshot
	New Snapshot
}

type subscription struct {
	id int
	fn func(Change)
}

// Store is the context store. Construct with New; the zero value is not
// usable.
type Store struct {
	mu     sync.Mutex
	cur    Snapshot
	nextID int
	subs   []subscription
	logger *zap.Logger
}

// New returns a context store in the Uninitialized state.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// Current returns a copy of the active context.
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Subscribe registers a change handler and returns a cancel function.
// Handlers run synchronously on the switching goroutine, in registration
// order; they must not call back into switch operations.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// SwitchContext activates the target identity scope (and its optional
// workspace selection). A target equal to the current context is a no-op
// reported as AlreadyActive with no change emitted. Switching to a
// different identity drops the previous workspace selection unless the
// target names one.
func (s *Store) SwitchContext(t Target) (Result, error) {
	if !t.Kind.IsValid() || t.AccountID.IsZero() {
		return 0, ErrInvalidTarget
	}
	switch t.Kind {
	case KindTeam, KindPartner:
		if t.OrganizationID.IsZero() {
			return 0, ErrInvalidTarget
		}
	default:
		t.OrganizationID = primitive.NilObjectID
	}

	s.mu.Lock()
	if s.cur.State != Uninitialized &&
		s.cur.Kind == t.Kind &&
		s.cur.AccountID == t.AccountID &&
		s.cur.WorkspaceID == t.WorkspaceID {
		s.mu.Unlock()
		return AlreadyActive, nil
	}

	old := s.cur
	next := Snapshot{
		State:          IdentityActive,
		Kind:           t.Kind,
		AccountID:      t.AccountID,
		OrganizationID: t.OrganizationID,
		WorkspaceID:    t.WorkspaceID,
		Epoch:          old.Epoch + 1,
	}
	if !next.WorkspaceID.IsZero() {
		next.State = WorkspaceActive
	}
	s.cur = next
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.logger.Info("context switched",
		zap.String("kind", string(t.Kind)),
		zap.String("account_id", t.AccountID.Hex()),
		zap.String("state", next.State.String()))

	s.emit(subs, Change{Old: old, New: next})
	return Switched, nil
}

// SwitchWorkspace selects a workspace within the active identity scope.
// Requires an active identity; the same workspace id is a no-op reported
// as AlreadyActive.
func (s *Store) SwitchWorkspace(id primitive.ObjectID) (Result, error) {
	if id.IsZero() {
		return 0, ErrInvalidTarget
	}

	s.mu.Lock()
	if s.cur.State == Uninitialized {
		s.mu.Unlock()
		return 0, ErrNoIdentity
	}
	if s.cur.WorkspaceID == id {
		s.mu.Unlock()
		return AlreadyActive, nil
	}

	old := s.cur
	next := old
	next.State = WorkspaceActive
	next.WorkspaceID = id
	next.Epoch = old.Epoch + 1
	s.cur = next
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.logger.Info("workspace switched", zap.String("workspace_id", id.Hex()))

	s.emit(subs, Change{Old: old, New: next})
	return Switched, nil
}

// Reset tears the context down to Uninitialized (sign-out). Emits a change
// so every scope store clears; a reset of an already-uninitialized store
// is a silent no-op.
func (s *Store) Reset() {
	s.mu.Lock()
	if s.cur.State == Uninitialized {
		s.mu.Unlock()
		return
	}
	old := s.cur
	next := Snapshot{Epoch: old.Epoch + 1}
	s.cur = next
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.logger.Info("context reset")

	s.emit(subs, Change{Old: old, New: next})
}

// snapshotSubs copies the subscriber list; callers hold s.mu.
func (s *Store) snapshotSubs() []subscription {
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	return subs
}

func (s *Store) emit(subs []subscription, ch Change) {
	for _, sub := range subs {
		sub.fn(ch)
	}
}
