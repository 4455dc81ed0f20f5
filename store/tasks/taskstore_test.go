package taskstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/statehub/authz"
	"github.com/dalemusser/statehub/domain/models"
	memrepo "github.com/dalemusser/statehub/repo/memory"
	"github.com/dalemusser/statehub/scope"
	entitystore "github.com/dalemusser/statehub/store/entity"
	taskstore "github.com/dalemusser/statehub/store/tasks"
	"github.com/dalemusser/statehub/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newStore(t *testing.T, gate authz.Gate) (*taskstore.Store, *testutil.Fixtures, *scope.Store) {
	t.Helper()
	db := memrepo.NewDB()
	scopes := scope.New(nil)
	s := taskstore.New(scopes, db.Tasks(), gate, zap.NewNop())
	t.Cleanup(s.Close)
	return s, testutil.NewFixtures(t, db), scopes
}

func activate(t *testing.T, scopes *scope.Store, accountID, workspaceID primitive.ObjectID) {
	t.Helper()
	if _, err := scopes.SwitchContext(scope.Target{Kind: scope.KindUser, AccountID: accountID, WorkspaceID: workspaceID}); err != nil {
		t.Fatalf("switch context: %v", err)
	}
}

func TestStore_LoadsActiveWorkspaceOnly(t *testing.T) {
	s, f, scopes := newStore(t, authz.AllowAll)
	user := f.CreateUser("Ada", "ada@example.com")
	ws := f.CreateWorkspace(user.ID, "Research")
	other := f.CreateWorkspace(user.ID, "Archive")
	f.CreateTask(ws.ID, user.ID, "Write summary", time.Time{})
	f.CreateTask(other.ID, user.ID, "Elsewhere", time.Time{})

	activate(t, scopes, user.ID, ws.ID)
	s.Wait()

	if s.Len() != 1 {
		t.Fatalf("expected 1 task, got %d", s.Len())
	}
	if len(s.Open()) != 1 {
		t.Errorf("expected the seeded task open, got %d open", len(s.Open()))
	}
}

func TestStore_CreateDefaultsOpen(t *testing.T) {
	s, f, scopes := newStore(t, authz.AllowAll)
	user := f.CreateUser("Ada", "ada@example.com")
	ws := f.CreateWorkspace(user.ID, "Research")
	activate(t, scopes, user.ID, ws.ID)
	s.Wait()

	due := time.Now().Add(24 * time.Hour).UTC()
	tk, err := s.Create(context.Background(), "Review draft", &due)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tk.Status != models.TaskOpen {
		t.Errorf("expected new task open, got %q", tk.Status)
	}
	if tk.CreatedBy != user.ID || tk.WorkspaceID != ws.ID {
		t.Error("expected creator and workspace stamped from the active scope")
	}
	if tk.Due == nil || !tk.Due.Equal(due) {
		t.Errorf("expected due carried through, got %v", tk.Due)
	}
}

func TestStore_SetStatusRejectsUnknown(t *testing.T) {
	s, f, scopes := newStore(t, authz.AllowAll)
	user := f.CreateUser("Ada", "ada@example.com")
	ws := f.CreateWorkspace(user.ID, "Research")
	tk := f.CreateTask(ws.ID, user.ID, "Review draft", time.Time{})
	activate(t, scopes, user.ID, ws.ID)
	s.Wait()

	if err := s.SetStatus(context.Background(), tk.ID, "paused"); !errors.Is(err, entitystore.ErrValidation) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
	if err := s.SetStatus(context.Background(), tk.ID, models.TaskDone); err != nil {
		t.Fatalf("set status done: %v", err)
	}
	if len(s.Done()) != 1 {
		t.Errorf("expected 1 done task, got %d", len(s.Done()))
	}
}

func TestStore_AssignAndClear(t *testing.T) {
	s, f, scopes := newStore(t, authz.AllowAll)
	user := f.CreateUser("Ada", "ada@example.com")
	helper := f.CreateUser("Grace", "grace@example.com")
	ws := f.CreateWorkspace(user.ID, "Research")
	tk := f.CreateTask(ws.ID, user.ID, "Review draft", time.Time{})
	activate(t, scopes, user.ID, ws.ID)
	s.Wait()

	if err := s.Assign(context.Background(), tk.ID, &helper.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	assigned := s.AssignedTo(helper.ID)
	if len(assigned) != 1 || assigned[0].ID != tk.ID {
		t.Fatalf("expected task assigned to Grace, got %d entries", len(assigned))
	}

	if err := s.Assign(context.Background(), tk.ID, nil); err != nil {
		t.Fatalf("clear assignee: %v", err)
	}
	if len(s.AssignedTo(helper.ID)) != 0 {
		t.Error("expected no assigned tasks after clearing")
	}
}

func TestStore_OverdueExcludesDoneAndUndated(t *testing.T) {
	s, f, scopes := newStore(t, authz.AllowAll)
	user := f.CreateUser("Ada", "ada@example.com")
	ws := f.CreateWorkspace(user.ID, "Research")
	now := time.Now().UTC()
	late := f.CreateTask(ws.ID, user.ID, "Late", now.Add(-2*time.Hour))
	finished := f.CreateTask(ws.ID, user.ID, "Finished", now.Add(-3*time.Hour))
	f.CreateTask(ws.ID, user.ID, "Future", now.Add(2*time.Hour))
	f.CreateTask(ws.ID, user.ID, "Undated", time.Time{})
	activate(t, scopes, user.ID, ws.ID)
	s.Wait()

	if err := s.SetStatus(context.Background(), finished.ID, models.TaskDone); err != nil {
		t.Fatalf("set status: %v", err)
	}

	overdue := s.Overdue(now)
	if len(overdue) != 1 || overdue[0].ID != late.ID {
		t.Fatalf("expected only the late open task overdue, got %d entries", len(overdue))
	}
}

func TestStore_GateBlocksMutations(t *testing.T) {
	deny := func(c authz.Capability) error {
		return &entitystore.PermissionDeniedError{Capability: string(c)}
	}
	s, f, scopes := newStore(t, deny)
	user := f.CreateUser("Ada", "ada@example.com")
	ws := f.CreateWorkspace(user.ID, "Research")
	tk := f.CreateTask(ws.ID, user.ID, "Review draft", time.Time{})
	activate(t, scopes, user.ID, ws.ID)
	s.Wait()

	if _, err := s.Create(context.Background(), "Another", nil); !errors.Is(err, entitystore.ErrPermissionDenied) {
		t.Errorf("expected create denied, got %v", err)
	}
	if err := s.Delete(context.Background(), tk.ID); !errors.Is(err, entitystore.ErrPermissionDenied) {
		t.Errorf("expected delete denied, got %v", err)
	}
	if got := f.DB().Calls("tasks.create"); got != 0 {
		t.Errorf("expected no create port call behind a closed gate, got %d", got)
	}
}

func TestStore_IdentitySwitchClearsBeforeReload(t *testing.T) {
	s, f, scopes := newStore(t, authz.AllowAll)
	ada := f.CreateUser("Ada", "ada@example.com")
	grace := f.CreateUser("Grace", "grace@example.com")
	adaWS := f.CreateWorkspace(ada.ID, "Research")
	graceWS := f.CreateWorkspace(grace.ID, "Planning")
	adaTask := f.CreateTask(adaWS.ID, ada.ID, "Ada's task", time.Time{})
	graceTask := f.CreateTask(graceWS.ID, grace.ID, "Grace's task", time.Time{})

	activate(t, scopes, ada.ID, adaWS.ID)
	s.Wait()

	// Hold the reload so the post-switch, pre-commit window is observable.
	release := f.DB().Hold("tasks.list")
	activate(t, scopes, grace.ID, graceWS.ID)
	if _, ok := s.Get(adaTask.ID); ok {
		t.Error("previous identity's task must not be readable after the switch")
	}
	if s.Len() != 0 {
		t.Errorf("expected an empty cache while the reload is held, got %d", s.Len())
	}

	release()
	s.Wait()
	if _, ok := s.Get(graceTask.ID); !ok {
		t.Error("expected the new identity's task after the reload")
	}
}
