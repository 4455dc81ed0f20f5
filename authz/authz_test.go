package authz_test

import (
	"testing"

	"github.com/dalemusser/statehub/authz"
	"github.com/dalemusser/statehub/domain/models"
)

func TestDefaults_RoleChainIsSubsetOrdered(t *testing.T) {
	roles := models.Roles()
	for i := 1; i < len(roles); i++ {
		lower := authz.Defaults(roles[i-1])
		higher := authz.Defaults(roles[i])
		if len(higher) <= len(lower) {
			t.Errorf("%s should grant strictly more than %s", roles[i], roles[i-1])
		}
		for c := range lower {
			if !higher.Contains(c) {
				t.Errorf("%s should include %s capability %s", roles[i], roles[i-1], c)
			}
		}
	}
}

func TestDefaults_OwnerIsSupersetOfAll(t *testing.T) {
	owner := authz.Defaults(models.RoleOwner)
	for _, c := range authz.Capabilities() {
		if !owner.Contains(c) {
			t.Errorf("owner should hold every capability, missing %s", c)
		}
	}
}

func TestDefaults_UnknownRoleResolvesEmpty(t *testing.T) {
	set := authz.Defaults(models.Role("visitor"))
	if len(set) != 0 {
		t.Errorf("unknown role should resolve to the empty set, got %d capabilities", len(set))
	}
}

func TestHas_GuestCannotDeleteDocuments(t *testing.T) {
	if authz.Has(models.RoleGuest, authz.DocumentsDelete, nil) {
		t.Error("guest should not hold documents.delete")
	}
	if !authz.Has(models.RoleGuest, authz.DocumentsView, nil) {
		t.Error("guest should hold documents.view")
	}
}

func TestResolve_CustomGrantsAreAdditive(t *testing.T) {
	custom := []string{string(authz.TasksDelete)}

	if authz.Has(models.RoleMember, authz.TasksDelete, nil) {
		t.Fatal("member role should not hold tasks.delete by default")
	}
	if !authz.Has(models.RoleMember, authz.TasksDelete, custom) {
		t.Error("custom grant should add tasks.delete")
	}

	// Removing the custom grant removes the capability; the role defaults
	// are unaffected either way.
	if authz.Has(models.RoleMember, authz.TasksDelete, nil) {
		t.Error("removing the custom grant should remove the capability")
	}
	if !authz.Has(models.RoleMember, authz.TasksUpdate, custom) {
		t.Error("role defaults should be unaffected by custom grants")
	}
}

func TestResolve_UnknownAtomsIgnored(t *testing.T) {
	set := authz.Resolve(models.RoleGuest, []string{"documents.explode", "tasks.delete"})
	if set.Contains(authz.Capability("documents.explode")) {
		t.Error("unknown atom should not enter the resolved set")
	}
	if !set.Contains(authz.TasksDelete) {
		t.Error("valid custom atom should enter the resolved set")
	}
}

func TestResolve_Deterministic(t *testing.T) {
	custom := []string{string(authz.BotsManage), string(authz.BotsManage)}
	a := authz.Resolve(models.RoleAdmin, custom)
	b := authz.Resolve(models.RoleAdmin, custom)
	if len(a) != len(b) {
		t.Fatalf("resolve should be deterministic: %d vs %d capabilities", len(a), len(b))
	}
	for c := range a {
		if !b.Contains(c) {
			t.Errorf("resolve should be deterministic, second set missing %s", c)
		}
	}
}

func TestCapability_Module(t *testing.T) {
	tests := []struct {
		cap    authz.Capability
		module string
		gated  bool
	}{
		{authz.DocumentsDelete, "documents", true},
		{authz.TasksAssign, "tasks", true},
		{authz.BotsManage, "bots", true},
		{authz.WorkspaceManage, "workspace", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.cap), func(t *testing.T) {
			if got := tt.cap.Module(); got != tt.module {
				t.Errorf("Module() = %q, want %q", got, tt.module)
			}
			_, gated := tt.cap.ModuleKey()
			if gated != tt.gated {
				t.Errorf("ModuleKey() gated = %v, want %v", gated, tt.gated)
			}
		})
	}
}
