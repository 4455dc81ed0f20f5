// repo/mongo/mongo.go

// Package mongorepo provides MongoDB-backed repository adapters. One DB
// wraps a mongo.Database and hands out per-aggregate adapters sharing
// its collections. EnsureIndexes is called once at startup.
package mongorepo

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/statehub/repo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicate reports a write rejected by a unique index.
var ErrDuplicate = errors.New("duplicate key")

// Collection names.
const (
	colAccounts      = "accounts"
	colWorkspaces    = "workspaces"
	colMembers       = "members"
	colDocuments     = "documents"
	colTasks         = "tasks"
	colNotifications = "notifications"
	colBots          = "bots"
)

// DB wraps a mongo database and hands out the aggregate adapters.
type DB struct {
	db *mongo.Database
}

// New returns adapters over the given database.
func New(db *mongo.Database) *DB {
	return &DB{db: db}
}

// Accounts returns the identity adapter.
func (d *DB) Accounts() *Accounts { return &Accounts{c: d.db.Collection(colAccounts)} }

// Teams returns the kind-filtered team adapter.
func (d *DB) Teams() *Teams { return &Teams{c: d.db.Collection(colAccounts)} }

// Partners returns the kind-filtered partner adapter.
func (d *DB) Partners() *Partners { return &Partners{c: d.db.Collection(colAccounts)} }

// Workspaces returns the workspace adapter.
func (d *DB) Workspaces() *Workspaces { return &Workspaces{c: d.db.Collection(colWorkspaces)} }

// Members returns the membership adapter.
func (d *DB) Members() *Members { return &Members{c: d.db.Collection(colMembers)} }

// Documents returns the document adapter.
func (d *DB) Documents() *Documents { return &Documents{c: d.db.Collection(colDocuments)} }

// Tasks returns the task adapter.
func (d *DB) Tasks() *Tasks { return &Tasks{c: d.db.Collection(colTasks)} }

// Notifications returns the notification adapter.
func (d *DB) Notifications() *Notifications {
	return &Notifications{c: d.db.Collection(colNotifications)}
}

// Bots returns the bot adapter.
func (d *DB) Bots() *Bots { return &Bots{c: d.db.Collection(colBots)} }

// notFound maps the driver's no-documents sentinel onto the port contract.
func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repo.ErrNotFound
	}
	return err
}

// EnsureIndexes creates the indexes the adapters rely on. Each call is
// idempotent; errors are aggregated so startup can fail fast with the
// full picture.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(col string, models []mongo.IndexModel) {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			problems = append(problems, col+": "+err.Error())
		}
	}

	unique := options.Index().SetUnique(true)

	ensure(colAccounts, []mongo.IndexModel{
		{Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "kind", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true)},
	})
	ensure(colWorkspaces, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "name_ci", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "last_accessed_at", Value: -1}}},
	})
	ensure(colMembers, []mongo.IndexModel{
		{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "account_id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "account_id", Value: 1}}},
	})
	ensure(colDocuments, []mongo.IndexModel{
		{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "title_ci", Value: 1}}},
		{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "updated_at", Value: -1}}},
	})
	ensure(colTasks, []mongo.IndexModel{
		{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "assignee_id", Value: 1}}},
	})
	ensure(colNotifications, []mongo.IndexModel{
		{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	ensure(colBots, []mongo.IndexModel{
		{Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "name_ci", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
	})

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
