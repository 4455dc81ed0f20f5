// statehub.go

// Package statehub is a reactive, context-scoped state synchronization
// core. A Hub owns the context store (which identity scope and workspace
// are active), a set of entity caches that reload or clear reactively on
// context changes, a capability gate resolved from workspace membership,
// and an event bus that breaks dependency cycles between stores.
//
// The hub is transport-agnostic: persistence goes through the repository
// ports in package repo, with adapters for MongoDB (repo/mongo) and
// memory (repo/memory). Hosts embed the hub and render from its store
// views; mutations apply optimistically and roll back on persistence
// failure.
package statehub

import (
	"github.com/dalemusser/statehub/auth"
	"github.com/dalemusser/statehub/repo"
	"go.uber.org/zap"
)

// Ports bundles the repository adapters the hub persists through. Every
// field is required.
type Ports struct {
	Accounts      repo.Accounts
	Teams         repo.Teams
	Partners      repo.Partners
	Workspaces    repo.Workspaces
	Members       repo.Members
	Documents     repo.Documents
	Tasks         repo.Tasks
	Notifications repo.Notifications
	Bots          repo.Bots
}

func (p Ports) validate() error {
	switch {
	case p.Accounts == nil:
		return errMissingPort("accounts")
	case p.Teams == nil:
		return errMissingPort("teams")
	case p.Partners == nil:
		return errMissingPort("partners")
	case p.Workspaces == nil:
		return errMissingPort("workspaces")
	case p.Members == nil:
		return errMissingPort("members")
	case p.Documents == nil:
		return errMissingPort("documents")
	case p.Tasks == nil:
		return errMissingPort("tasks")
	case p.Notifications == nil:
		return errMissingPort("notifications")
	case p.Bots == nil:
		return errMissingPort("bots")
	}
	return nil
}

// Options configures optional hub collaborators.
type Options struct {
	// Logger receives structured diagnostics. Nil means no logging.
	Logger *zap.Logger

	// Auth, when set, binds identity changes to context transitions:
	// sign-in switches the context to the identity's scope and sign-out
	// resets it. Without a provider the host drives SwitchContext and
	// Reset directly.
	Auth auth.Provider
}
