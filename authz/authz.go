// authz/authz.go

// Package authz resolves role-based and custom permission grants into
// capability sets. Resolution is a pure function: no I/O, no hidden state,
// deterministic for a given (role, custom) pair.
//
// Role defaults form a strict chain — guest ⊂ member ⊂ admin ⊂ owner — and
// custom permissions are additive only: they grant capabilities beyond the
// role defaults but can never revoke a role-granted one.
package authz

import (
	"strings"

	"github.com/dalemusser/statehub/domain/models"
)

// Capability is one permission atom in "<module>.<verb>" form,
// e.g. "documents.delete".
type Capability string

// Capability atoms. The set is closed; Resolve ignores unknown atoms in
// custom grants and validators reject them at the model boundary.
const (
	DocumentsView   Capability = "documents.view"
	DocumentsCreate Capability = "documents.create"
	DocumentsUpdate Capability = "documents.update"
	DocumentsDelete Capability = "documents.delete"

	TasksView   Capability = "tasks.view"
	TasksCreate Capability = "tasks.create"
	TasksUpdate Capability = "tasks.update"
	TasksDelete Capability = "tasks.delete"
	TasksAssign Capability = "tasks.assign"

	MembersView   Capability = "members.view"
	MembersInvite Capability = "members.invite"
	MembersManage Capability = "members.manage"
	MembersRemove Capability = "members.remove"

	NotificationsView   Capability = "notifications.view"
	NotificationsManage Capability = "notifications.manage"

	BotsView   Capability = "bots.view"
	BotsManage Capability = "bots.manage"

	WorkspaceView    Capability = "workspace.view"
	WorkspaceManage  Capability = "workspace.manage"
	WorkspaceArchive Capability = "workspace.archive"
)

// Capabilities returns every defined capability in a stable order.
func Capabilities() []Capability {
	return []Capability{
		DocumentsView, DocumentsCreate, DocumentsUpdate, DocumentsDelete,
		TasksView, TasksCreate, TasksUpdate, TasksDelete, TasksAssign,
		MembersView, MembersInvite, MembersManage, MembersRemove,
		NotificationsView, NotificationsManage,
		BotsView, BotsManage,
		WorkspaceView, WorkspaceManage, WorkspaceArchive,
	}
}

// IsValid reports whether c is one of the defined capabilities.
func (c Capability) IsValid() bool {
	for _, known := range Capabilities() {
		if c == known {
			return true
		}
	}
	return false
}

// Module returns the module portion of the capability ("documents" for
// "documents.delete"). The "workspace" module names the container itself,
// not a toggleable feature.
func (c Capability) Module() string {
	s := string(c)
	if i := strings.IndexByte(s, '.'); i > 0 {
		return s[:i]
	}
	return s
}

// ModuleKey returns the workspace module toggle governing this capability
// and whether one applies. Workspace-container capabilities are not gated
// by any toggle.
func (c Capability) ModuleKey() (models.ModuleKey, bool) {
	key := models.ModuleKey(c.Module())
	if key.IsValid() {
		return key, true
	}
	return "", false
}

// roleDefaults holds the incremental grants at each step of the role chain.
// Each role's full set is its own grants plus everything below it.
var roleDefaults = map[models.Role][]Capability{
	models.RoleGuest: {
		DocumentsView, TasksView, MembersView, NotificationsView, WorkspaceView,
	},
	models.RoleMember: {
		DocumentsCreate, DocumentsUpdate,
		TasksCreate, TasksUpdate,
		NotificationsManage,
	},
	models.RoleAdmin: {
		DocumentsDelete,
		TasksDelete, TasksAssign,
		MembersInvite, MembersManage,
		BotsView,
		WorkspaceManage,
	},
	models.RoleOwner: {
		MembersRemove, BotsManage, WorkspaceArchive,
	},
}

// chain lists roles from least to most capable.
var chain = []models.Role{models.RoleGuest, models.RoleMember, models.RoleAdmin, models.RoleOwner}

// Set is a resolved capability set.
type Set map[Capability]struct{}

// Contains reports whether the set includes the capability.
func (s Set) Contains(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Defaults returns the fixed default capability set for a role. Unknown
// roles resolve to the empty set.
func Defaults(role models.Role) Set {
	set := make(Set)
	for _, r := range chain {
		for _, c := range roleDefaults[r] {
			set[c] = struct{}{}
		}
		if r == role {
			return set
		}
	}
	return make(Set)
}

// Resolve returns the effective capability set for a role plus custom
// grants. Custom grants are additive; unknown atoms are ignored.
func Resolve(role models.Role, custom []string) Set {
	set := Defaults(role)
	for _, raw := range custom {
		c := Capability(raw)
		if c.IsValid() {
			set[c] = struct{}{}
		}
	}
	return set
}

// Has reports whether the role plus custom grants includes the capability.
func Has(role models.Role, c Capability, custom []string) bool {
	return Resolve(role, custom).Contains(c)
}
