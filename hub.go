// hub.go
package statehub

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/statehub/auth"
	"github.com/dalemusser/statehub/authz"
	"github.com/dalemusser/statehub/bus"
	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/internal/timeouts"
	"github.com/dalemusser/statehub/scope"
	accountstore "github.com/dalemusser/statehub/store/accounts"
	botstore "github.com/dalemusser/statehub/store/bots"
	docstore "github.com/dalemusser/statehub/store/documents"
	entitystore "github.com/dalemusser/statehub/store/entity"
	memberstore "github.com/dalemusser/statehub/store/members"
	notificationstore "github.com/dalemusser/statehub/store/notifications"
	taskstore "github.com/dalemusser/statehub/store/tasks"
	workspacestore "github.com/dalemusser/statehub/store/workspaces"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func errMissingPort(name string) error {
	return errors.New("statehub: missing " + name + " port")
}

// Hub is the application context object: the context store, the scope
// stores wired to it, the capability gate, and the event bus. Build one
// per signed-in session (or one per process for single-identity hosts).
type Hub struct {
	Scope *scope.Store
	Bus   *bus.Bus

	Accounts      *accountstore.Store
	Workspaces    *workspacestore.Store
	Members       *memberstore.Store
	Documents     *docstore.Store
	Tasks         *taskstore.Store
	Notifications *notificationstore.Store
	Bots          *botstore.Store

	auth    auth.Provider
	logger  *zap.Logger
	cancels []func()
}

// New wires a hub over the given ports. The store registration order is
// fixed: accounts and workspaces first (the gate resolves roles from
// them), then the workspace-scoped stores.
func New(ports Ports, opts Options) (*Hub, error) {
	if err := ports.validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Hub{
		Scope:  scope.New(logger),
		Bus:    bus.New(logger),
		auth:   opts.Auth,
		logger: logger,
	}
	gate := authz.Gate(h.capability)

	h.Accounts = accountstore.New(h.Scope, ports.Accounts, ports.Teams, ports.Partners, h.Bus, logger)
	h.Workspaces = workspacestore.New(h.Scope, ports.Workspaces, gate, h.Bus, logger)
	h.Members = memberstore.New(h.Scope, ports.Members, gate, logger)
	h.Documents = docstore.New(h.Scope, ports.Documents, gate, logger)
	h.Tasks = taskstore.New(h.Scope, ports.Tasks, gate, logger)
	h.Notifications = notificationstore.New(h.Scope, ports.Notifications, gate, logger)
	h.Bots = botstore.New(h.Scope, ports.Bots, gate, logger)

	// Mirror context transitions onto the bus for observers (audit log,
	// host UI) that should not subscribe to the context store directly.
	h.cancels = append(h.cancels, h.Scope.Subscribe(func(ch scope.Change) {
		name := bus.EventContextChanged
		if ch.New.State == scope.Uninitialized {
			name = bus.EventContextReset
		}
		h.Bus.Publish(bus.Event{
			Name:    name,
			Subject: ch.New.AccountID,
			Fields: map[string]any{
				"state": ch.New.State.String(),
				"kind":  string(ch.New.Kind),
			},
		})
	}))

	// A suspended account loses its scope immediately.
	h.cancels = append(h.cancels, h.Bus.Subscribe(bus.EventAccountSuspended, func(ev bus.Event) {
		snap := h.Scope.Current()
		if snap.State == scope.Uninitialized {
			return
		}
		if ev.Subject == snap.AccountID || ev.Subject == snap.OrganizationID {
			h.logger.Info("active scope suspended, resetting context",
				zap.String("account_id", ev.Subject.Hex()))
			h.Scope.Reset()
		}
	}))

	if h.auth != nil {
		h.cancels = append(h.cancels, h.auth.OnIdentityChanged(h.syncIdentity))
	}
	return h, nil
}

// Close unsubscribes the hub from its collaborators and tears the stores
// down. The hub is unusable afterwards.
func (h *Hub) Close() {
	for _, cancel := range h.cancels {
		cancel()
	}
	h.cancels = nil

	h.Bots.Close()
	h.Notifications.Close()
	h.Tasks.Close()
	h.Documents.Close()
	h.Members.Close()
	h.Workspaces.Close()
	h.Accounts.Close()
}

// Wait blocks until every store's in-flight loads settle. Tests and
// shutdown paths call it; interactive hosts render the Loading flags
// instead.
func (h *Hub) Wait() {
	h.Accounts.Wait()
	h.Workspaces.Wait()
	h.Members.Wait()
	h.Documents.Wait()
	h.Tasks.Wait()
	h.Notifications.Wait()
	h.Bots.Wait()
}

// SignIn reads the identity from the auth provider and activates its
// scope. Requires Options.Auth.
func (h *Hub) SignIn(ctx context.Context) error {
	if h.auth == nil {
		return errors.New("statehub: no auth provider configured")
	}
	a, err := h.auth.CurrentIdentity(ctx)
	if err != nil {
		return err
	}
	_, err = h.SwitchToAccount(a)
	return err
}

// SignOut resets the context; every scope store clears.
func (h *Hub) SignOut() {
	h.Scope.Reset()
}

// SwitchToAccount activates the scope for an account. Bot accounts are
// not interactive scopes and are rejected.
func (h *Hub) SwitchToAccount(a models.Account) (scope.Result, error) {
	t, err := targetFor(a)
	if err != nil {
		return 0, err
	}
	return h.Scope.SwitchContext(t)
}

// SwitchContext activates an explicit scope target.
func (h *Hub) SwitchContext(t scope.Target) (scope.Result, error) {
	return h.Scope.SwitchContext(t)
}

// SwitchWorkspace selects a workspace within the active identity scope
// and records the access so the most-recently-used view stays honest. A
// failed access record is logged, not surfaced; the switch itself stands.
func (h *Hub) SwitchWorkspace(ctx context.Context, id primitive.ObjectID) (scope.Result, error) {
	res, err := h.Scope.SwitchWorkspace(id)
	if err != nil || res != scope.Switched {
		return res, err
	}
	if err := h.Workspaces.Touch(ctx, id); err != nil {
		h.logger.Warn("workspace access record failed",
			zap.String("workspace_id", id.Hex()), zap.Error(err))
	}
	return res, nil
}

// Allowed reports whether the active context holds the capability. Hosts
// use it to disable UI affordances before dispatch.
func (h *Hub) Allowed(c authz.Capability) bool {
	return h.capability(c) == nil
}

// capability is the gate closure handed to every scope store. It resolves
// the active identity's effective role from the hub's own caches: owner
// when the identity (or its owning organization scope) owns the current
// workspace, otherwise the identity's active membership in it. Module
// toggles mask module capabilities before role resolution.
//
// The gate reads caches, not ports; callers that just switched context
// should Wait for loads to settle before mutating.
func (h *Hub) capability(c authz.Capability) error {
	snap := h.Scope.Current()
	if snap.State == scope.Uninitialized {
		return &entitystore.PermissionDeniedError{Capability: string(c)}
	}

	// Notification capabilities are identity-scoped: the cache belongs to
	// the signed-in account, not to any workspace, so they resolve for any
	// active identity and skip the workspace module toggles.
	if c.Module() == string(models.ModuleNotifications) {
		return nil
	}

	if snap.State == scope.WorkspaceActive {
		if ws, ok := h.Workspaces.Get(snap.WorkspaceID); ok {
			if key, gated := c.ModuleKey(); gated && !ws.HasModule(key) {
				return &entitystore.PermissionDeniedError{Capability: string(c)}
			}
		}
	}

	// An organization scope owns everything in it; no membership lookup.
	if snap.Kind == scope.KindOrganization {
		return nil
	}
	if snap.State != scope.WorkspaceActive {
		return &entitystore.PermissionDeniedError{Capability: string(c)}
	}

	var (
		role   models.Role
		custom []string
	)
	if ws, ok := h.Workspaces.Get(snap.WorkspaceID); ok && ws.OwnerID == snap.AccountID {
		role = models.RoleOwner
	} else {
		m, ok := h.Members.Of(snap.AccountID)
		if !ok || m.Status != models.MemberActive {
			return &entitystore.PermissionDeniedError{Capability: string(c)}
		}
		role = m.Role
		custom = m.CustomPermissions
	}
	if !authz.Has(role, c, custom) {
		return &entitystore.PermissionDeniedError{Capability: string(c)}
	}
	return nil
}

// syncIdentity re-reads the provider identity after a change notification
// and moves the context to match.
func (h *Hub) syncIdentity() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()

	a, err := h.auth.CurrentIdentity(ctx)
	if errors.Is(err, auth.ErrNotAuthenticated) {
		h.Scope.Reset()
		return
	}
	if err != nil {
		h.logger.Warn("identity read failed", zap.Error(err))
		return
	}
	if _, err := h.SwitchToAccount(a); err != nil {
		h.logger.Warn("identity switch failed", zap.Error(err))
	}
}

// targetFor maps an account to its scope target.
func targetFor(a models.Account) (scope.Target, error) {
	t := scope.Target{AccountID: a.ID}
	switch a.Kind {
	case models.KindUser:
		t.Kind = scope.KindUser
	case models.KindOrganization:
		t.Kind = scope.KindOrganization
	case models.KindTeam, models.KindPartner:
		if a.OrganizationID == nil {
			return scope.Target{}, fmt.Errorf("statehub: %s account %s has no owning organization: %w",
				a.Kind, a.ID.Hex(), scope.ErrInvalidTarget)
		}
		t.Kind = scope.Kind(a.Kind)
		t.OrganizationID = *a.OrganizationID
	default:
		return scope.Target{}, fmt.Errorf("statehub: %s accounts are not interactive scopes: %w",
			a.Kind, scope.ErrInvalidTarget)
	}
	return t, nil
}
