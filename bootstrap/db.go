// bootstrap/db.go
package bootstrap

import (
	"context"

	mongorepo "github.com/dalemusser/statehub/repo/mongo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DBDeps holds the database dependencies for a StateHub deployment.
type DBDeps struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// ConnectDB connects to MongoDB per the app config and verifies the
// connection with a ping.
func ConnectDB(ctx context.Context, appCfg AppConfig) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, err
	}
	return DBDeps{
		Client:   client,
		Database: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes the mongo adapters rely on. Idempotent.
func EnsureSchema(ctx context.Context, deps DBDeps) error {
	return mongorepo.EnsureIndexes(ctx, deps.Database)
}

// Shutdown releases the database dependencies.
func Shutdown(ctx context.Context, deps DBDeps) error {
	if deps.Client == nil {
		return nil
	}
	return deps.Client.Disconnect(ctx)
}
