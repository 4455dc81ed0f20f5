package accountstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/statehub/bus"
	"github.com/dalemusser/statehub/domain/models"
	memrepo "github.com/dalemusser/statehub/repo/memory"
	"github.com/dalemusser/statehub/scope"
	accountstore "github.com/dalemusser/statehub/store/accounts"
	entitystore "github.com/dalemusser/statehub/store/entity"
	"github.com/dalemusser/statehub/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newStore(t *testing.T) (*accountstore.Store, *testutil.Fixtures, *scope.Store, *bus.Bus) {
	t.Helper()
	db := memrepo.NewDB()
	scopes := scope.New(nil)
	events := bus.New(nil)
	s := accountstore.New(scopes, db.Accounts(), db.Teams(), db.Partners(), events, zap.NewNop())
	t.Cleanup(s.Close)
	return s, testutil.NewFixtures(t, db), scopes, events
}

func signIn(t *testing.T, scopes *scope.Store, target scope.Target) {
	t.Helper()
	if _, err := scopes.SwitchContext(target); err != nil {
		t.Fatalf("switch context: %v", err)
	}
}

func names(accounts []models.Account) []string {
	out := make([]string, len(accounts))
	for i, a := range accounts {
		out[i] = a.Name
	}
	return out
}

func TestStore_LoadsIdentityGraph(t *testing.T) {
	s, f, scopes, _ := newStore(t)
	org := f.CreateOrganization("Acme")
	f.CreateTeam(org.ID, "Platform")
	f.CreateTeam(org.ID, "Design")
	f.CreatePartner(org.ID, "Vendor")
	user := f.DB().SeedAccount(models.Account{
		Kind:           models.KindUser,
		Name:           "Ada",
		Email:          "ada@example.com",
		OrganizationID: &org.ID,
	})

	signIn(t, scopes, scope.Target{Kind: scope.KindUser, AccountID: user.ID})
	s.Wait()

	// Self, the organization, two teams, and a partner.
	if s.Len() != 5 {
		t.Fatalf("expected the full graph cached, got %d accounts", s.Len())
	}
	orgs := s.Organizations()
	if len(orgs) != 1 || orgs[0].ID != org.ID {
		t.Errorf("expected Acme in the organizations view, got %d entries", len(orgs))
	}
	teams := s.Teams()
	if len(teams) != 2 || teams[0].Name != "Design" || teams[1].Name != "Platform" {
		t.Errorf("expected name-sorted teams, got %v", names(teams))
	}
	if len(s.Partners()) != 1 {
		t.Errorf("expected 1 partner, got %d", len(s.Partners()))
	}
	if f.DB().Calls("teams.list") != 1 || f.DB().Calls("partners.list") != 1 {
		t.Errorf("expected one call through each kind port, got teams=%d partners=%d",
			f.DB().Calls("teams.list"), f.DB().Calls("partners.list"))
	}
}

func TestStore_SoloUserLoadsOnlySelf(t *testing.T) {
	s, f, scopes, _ := newStore(t)
	user := f.CreateUser("Ada", "ada@example.com")
	f.CreateOrganization("Unrelated")

	signIn(t, scopes, scope.Target{Kind: scope.KindUser, AccountID: user.ID})
	s.Wait()

	if s.Len() != 1 {
		t.Fatalf("expected only the identity itself, got %d", s.Len())
	}
	cur, ok := s.Current()
	if !ok || cur.ID != user.ID {
		t.Errorf("expected Current to return Ada, got ok=%v", ok)
	}
}

func TestStore_OrganizationScopeLoadsItsGraph(t *testing.T) {
	s, f, scopes, _ := newStore(t)
	org := f.CreateOrganization("Acme")
	f.CreateTeam(org.ID, "Platform")

	signIn(t, scopes, scope.Target{Kind: scope.KindOrganization, AccountID: org.ID})
	s.Wait()

	if s.Len() != 2 {
		t.Fatalf("expected organization plus team, got %d", s.Len())
	}
	cur, ok := s.Current()
	if !ok || cur.ID != org.ID {
		t.Errorf("expected the organization as the current account, got ok=%v", ok)
	}
}

func TestStore_WorkspaceSwitchKeepsGraph(t *testing.T) {
	s, f, scopes, _ := newStore(t)
	user := f.CreateUser("Ada", "ada@example.com")
	ws := f.CreateWorkspace(user.ID, "Research")

	signIn(t, scopes, scope.Target{Kind: scope.KindUser, AccountID: user.ID})
	s.Wait()
	if got := f.DB().Calls("accounts.get"); got != 1 {
		t.Fatalf("expected 1 graph fetch after sign-in, got %d", got)
	}

	if _, err := scopes.SwitchWorkspace(ws.ID); err != nil {
		t.Fatalf("switch workspace: %v", err)
	}
	s.Wait()

	if got := f.DB().Calls("accounts.get"); got != 1 {
		t.Errorf("expected no refetch on a workspace-only change, got %d", got)
	}
}

func TestStore_UpdateNameRejectsBlank(t *testing.T) {
	s, f, scopes, _ := newStore(t)
	user := f.CreateUser("Ada", "ada@example.com")
	signIn(t, scopes, scope.Target{Kind: scope.KindUser, AccountID: user.ID})
	s.Wait()

	if err := s.UpdateName(context.Background(), user.ID, "  "); !errors.Is(err, entitystore.ErrValidation) {
		t.Errorf("expected validation error for blank name, got %v", err)
	}
	if err := s.UpdateName(context.Background(), user.ID, "Ada L."); err != nil {
		t.Fatalf("update name: %v", err)
	}
	got, _ := s.Get(user.ID)
	if got.Name != "Ada L." {
		t.Errorf("expected renamed account, got %q", got.Name)
	}
}

func TestStore_SuspendPublishesEvent(t *testing.T) {
	s, f, scopes, events := newStore(t)
	user := f.CreateUser("Ada", "ada@example.com")
	signIn(t, scopes, scope.Target{Kind: scope.KindUser, AccountID: user.ID})
	s.Wait()

	var suspended []primitive.ObjectID
	cancel := events.Subscribe(bus.EventAccountSuspended, func(ev bus.Event) {
		suspended = append(suspended, ev.Subject)
	})
	defer cancel()

	if err := s.Suspend(context.Background(), user.ID); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if len(suspended) != 1 || suspended[0] != user.ID {
		t.Errorf("expected one account.suspended for Ada, got %v", suspended)
	}
}

func TestStore_SuspendFailureDoesNotPublish(t *testing.T) {
	s, f, scopes, events := newStore(t)
	user := f.CreateUser("Ada", "ada@example.com")
	signIn(t, scopes, scope.Target{Kind: scope.KindUser, AccountID: user.ID})
	s.Wait()

	var published int
	cancel := events.Subscribe(bus.EventAccountSuspended, func(bus.Event) { published++ })
	defer cancel()

	f.DB().FailNext("accounts.update", errors.New("connection reset"))
	if err := s.Suspend(context.Background(), user.ID); !errors.Is(err, entitystore.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if published != 0 {
		t.Errorf("expected no event after a failed suspend, got %d", published)
	}
}
