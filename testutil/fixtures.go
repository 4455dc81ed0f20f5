// testutil/fixtures.go

// Package testutil provides fixture helpers for tests that exercise the
// hub and its stores over the in-memory repository.
package testutil

import (
	"testing"
	"time"

	"github.com/dalemusser/statehub/domain/models"
	memrepo "github.com/dalemusser/statehub/repo/memory"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *memrepo.DB
	t  *testing.T
}

// NewFixtures creates a Fixtures instance over the given in-memory
// database.
func NewFixtures(t *testing.T, db *memrepo.DB) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *memrepo.DB {
	return f.db
}

// CreateUser creates a test user account.
func (f *Fixtures) CreateUser(name, email string) models.Account {
	f.t.Helper()
	return f.db.SeedAccount(models.Account{
		Kind:  models.KindUser,
		Name:  name,
		Email: email,
	})
}

// CreateOrganization creates a test organization account.
func (f *Fixtures) CreateOrganization(name string) models.Account {
	f.t.Helper()
	return f.db.SeedAccount(models.Account{
		Kind: models.KindOrganization,
		Name: name,
	})
}

// CreateTeam creates a team account owned by the organization.
func (f *Fixtures) CreateTeam(orgID primitive.ObjectID, name string) models.Account {
	f.t.Helper()
	return f.db.SeedAccount(models.Account{
		Kind:           models.KindTeam,
		Name:           name,
		OrganizationID: &orgID,
	})
}

// CreatePartner creates a partner account owned by the organization.
func (f *Fixtures) CreatePartner(orgID primitive.ObjectID, name string) models.Account {
	f.t.Helper()
	return f.db.SeedAccount(models.Account{
		Kind:           models.KindPartner,
		Name:           name,
		OrganizationID: &orgID,
	})
}

// CreateWorkspace creates an active workspace owned by the given account.
// With no explicit modules, every module is enabled.
func (f *Fixtures) CreateWorkspace(ownerID primitive.ObjectID, name string, modules ...models.ModuleKey) models.Workspace {
	f.t.Helper()
	if len(modules) == 0 {
		modules = models.ModuleKeys()
	}
	return f.db.SeedWorkspace(models.Workspace{
		Name:    name,
		OwnerID: ownerID,
		Modules: modules,
	})
}

// CreateMember creates an active membership in the workspace.
func (f *Fixtures) CreateMember(workspaceID, accountID primitive.ObjectID, role models.Role) models.Member {
	f.t.Helper()
	return f.db.SeedMember(models.Member{
		WorkspaceID: workspaceID,
		AccountID:   accountID,
		Role:        role,
		Status:      models.MemberActive,
	})
}

// CreateInvitedMember creates a membership still in the invited state.
func (f *Fixtures) CreateInvitedMember(workspaceID, accountID primitive.ObjectID, role models.Role) models.Member {
	f.t.Helper()
	return f.db.SeedMember(models.Member{
		WorkspaceID: workspaceID,
		AccountID:   accountID,
		Role:        role,
		Status:      models.MemberInvited,
	})
}

// CreateDocument creates a document in the workspace.
func (f *Fixtures) CreateDocument(workspaceID primitive.ObjectID, title, body string) models.Document {
	f.t.Helper()
	return f.db.SeedDocument(models.Document{
		WorkspaceID: workspaceID,
		Title:       title,
		Body:        body,
	})
}

// CreateTask creates an open task in the workspace. A zero due time means
// no due date.
func (f *Fixtures) CreateTask(workspaceID, createdBy primitive.ObjectID, title string, due time.Time) models.Task {
	f.t.Helper()
	tk := models.Task{
		WorkspaceID: workspaceID,
		CreatedBy:   createdBy,
		Title:       title,
	}
	if !due.IsZero() {
		tk.Due = &due
	}
	return f.db.SeedTask(tk)
}

// CreateNotification creates an unread notification for the account.
func (f *Fixtures) CreateNotification(accountID primitive.ObjectID, kind, message string) models.Notification {
	f.t.Helper()
	return f.db.SeedNotification(models.Notification{
		AccountID: accountID,
		Kind:      kind,
		Message:   message,
	})
}

// CreateBot creates an active bot owned by the organization. The database
// assigns a token when none is given.
func (f *Fixtures) CreateBot(orgID primitive.ObjectID, name string) models.Bot {
	f.t.Helper()
	return f.db.SeedBot(models.Bot{
		OrganizationID: orgID,
		Name:           name,
	})
}
