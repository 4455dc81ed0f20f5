package botstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/statehub/authz"
	"github.com/dalemusser/statehub/domain/models"
	memrepo "github.com/dalemusser/statehub/repo/memory"
	"github.com/dalemusser/statehub/scope"
	botstore "github.com/dalemusser/statehub/store/bots"
	entitystore "github.com/dalemusser/statehub/store/entity"
	"github.com/dalemusser/statehub/testutil"
	"go.uber.org/zap"
)

func newStore(t *testing.T, gate authz.Gate) (*botstore.Store, *testutil.Fixtures, *scope.Store) {
	t.Helper()
	db := memrepo.NewDB()
	scopes := scope.New(nil)
	s := botstore.New(scopes, db.Bots(), gate, zap.NewNop())
	t.Cleanup(s.Close)
	return s, testutil.NewFixtures(t, db), scopes
}

func signIn(t *testing.T, scopes *scope.Store, target scope.Target) {
	t.Helper()
	if _, err := scopes.SwitchContext(target); err != nil {
		t.Fatalf("switch context: %v", err)
	}
}

func TestStore_LoadsUnderOrganizationScope(t *testing.T) {
	s, f, scopes := newStore(t, authz.AllowAll)
	org := f.CreateOrganization("Acme")
	other := f.CreateOrganization("Globex")
	f.CreateBot(org.ID, "Deployer")
	f.CreateBot(org.ID, "Reporter")
	f.CreateBot(other.ID, "Not ours")

	signIn(t, scopes, scope.Target{Kind: scope.KindOrganization, AccountID: org.ID})
	s.Wait()

	bots := s.All()
	if len(bots) != 2 {
		t.Fatalf("expected 2 bots, got %d", len(bots))
	}
	if bots[0].Name != "Deployer" || bots[1].Name != "Reporter" {
		t.Errorf("expected name order, got %q then %q", bots[0].Name, bots[1].Name)
	}
}

func TestStore_StaysEmptyUnderUserScope(t *testing.T) {
	s, f, scopes := newStore(t, authz.AllowAll)
	org := f.CreateOrganization("Acme")
	user := f.CreateUser("Ada", "ada@example.com")
	f.CreateBot(org.ID, "Deployer")

	signIn(t, scopes, scope.Target{Kind: scope.KindUser, AccountID: user.ID})
	s.Wait()

	if s.Len() != 0 {
		t.Errorf("expected no bots under user scope, got %d", s.Len())
	}
	if got := f.DB().Calls("bots.list"); got != 0 {
		t.Errorf("expected no list call under user scope, got %d", got)
	}
}

func TestStore_ClearsWhenLeavingOrganizationScope(t *testing.T) {
	s, f, scopes := newStore(t, authz.AllowAll)
	org := f.CreateOrganization("Acme")
	user := f.CreateUser("Ada", "ada@example.com")
	f.CreateBot(org.ID, "Deployer")

	signIn(t, scopes, scope.Target{Kind: scope.KindOrganization, AccountID: org.ID})
	s.Wait()
	if s.Len() != 1 {
		t.Fatalf("expected 1 bot under organization scope, got %d", s.Len())
	}

	signIn(t, scopes, scope.Target{Kind: scope.KindUser, AccountID: user.ID})
	s.Wait()
	if s.Len() != 0 {
		t.Errorf("expected cache cleared after leaving organization scope, got %d", s.Len())
	}
}

func TestStore_CreateAssignsTokenOnCommit(t *testing.T) {
	s, f, scopes := newStore(t, authz.AllowAll)
	org := f.CreateOrganization("Acme")
	signIn(t, scopes, scope.Target{Kind: scope.KindOrganization, AccountID: org.ID})
	s.Wait()

	b, err := s.Create(context.Background(), "Deployer")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Token == "" {
		t.Error("expected backend-assigned token on the committed bot")
	}
	if b.OrganizationID != org.ID {
		t.Error("expected bot owned by the active organization")
	}
	if got, ok := s.Get(b.ID); !ok || got.Token != b.Token {
		t.Errorf("expected reconciled token in cache, got %q (ok=%v)", got.Token, ok)
	}
}

func TestStore_CreateRequiresOrganizationScope(t *testing.T) {
	s, f, scopes := newStore(t, authz.AllowAll)
	user := f.CreateUser("Ada", "ada@example.com")
	signIn(t, scopes, scope.Target{Kind: scope.KindUser, AccountID: user.ID})
	s.Wait()

	if _, err := s.Create(context.Background(), "Deployer"); !errors.Is(err, entitystore.ErrValidation) {
		t.Errorf("expected create rejected outside organization scope, got %v", err)
	}
	if got := f.DB().Calls("bots.create"); got != 0 {
		t.Errorf("expected no port call, got %d", got)
	}
}

func TestStore_DisableDropsFromActiveView(t *testing.T) {
	s, f, scopes := newStore(t, authz.AllowAll)
	org := f.CreateOrganization("Acme")
	b := f.CreateBot(org.ID, "Deployer")
	signIn(t, scopes, scope.Target{Kind: scope.KindOrganization, AccountID: org.ID})
	s.Wait()

	if err := s.Disable(context.Background(), b.ID); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if len(s.Active()) != 0 {
		t.Errorf("expected no active bots after disable, got %d", len(s.Active()))
	}
	got, _ := s.Get(b.ID)
	if got.Status != models.BotDisabled {
		t.Errorf("expected disabled status, got %q", got.Status)
	}
}

func TestStore_RenameKeepsToken(t *testing.T) {
	s, f, scopes := newStore(t, authz.AllowAll)
	org := f.CreateOrganization("Acme")
	b := f.CreateBot(org.ID, "Deployer")
	signIn(t, scopes, scope.Target{Kind: scope.KindOrganization, AccountID: org.ID})
	s.Wait()

	if err := s.Rename(context.Background(), b.ID, "Shipper"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, _ := s.Get(b.ID)
	if got.Name != "Shipper" {
		t.Errorf("expected renamed bot, got %q", got.Name)
	}
	if got.Token != b.Token {
		t.Errorf("expected token unchanged by rename, got %q", got.Token)
	}
}

func TestStore_GateBlocksManagement(t *testing.T) {
	deny := func(c authz.Capability) error {
		return &entitystore.PermissionDeniedError{Capability: string(c)}
	}
	s, f, scopes := newStore(t, deny)
	org := f.CreateOrganization("Acme")
	b := f.CreateBot(org.ID, "Deployer")
	signIn(t, scopes, scope.Target{Kind: scope.KindOrganization, AccountID: org.ID})
	s.Wait()

	if _, err := s.Create(context.Background(), "Another"); !errors.Is(err, entitystore.ErrPermissionDenied) {
		t.Errorf("expected create denied, got %v", err)
	}
	if err := s.Delete(context.Background(), b.ID); !errors.Is(err, entitystore.ErrPermissionDenied) {
		t.Errorf("expected delete denied, got %v", err)
	}
}
