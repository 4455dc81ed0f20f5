// repo/mongo/workspaces.go
package mongorepo

import (
	"context"
	"time"

	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/repo"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Workspaces is the mongo adapter for the workspace aggregate.
type Workspaces struct {
	c *mongo.Collection
}

func (r *Workspaces) GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error) {
	var ws models.Workspace
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ws); err != nil {
		return models.Workspace{}, notFound(err)
	}
	return ws, nil
}

func (r *Workspaces) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Workspace, error) {
	cur, err := r.c.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Workspace
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Workspaces) Create(ctx context.Context, ws models.Workspace) (models.Workspace, error) {
	now := time.Now().UTC()
	ws.ID = primitive.NewObjectID()
	ws.NameCI = text.Fold(ws.Name)
	if ws.Status == "" {
		ws.Status = models.WorkspaceActive
	}
	if ws.LastAccessedAt.IsZero() {
		ws.LastAccessedAt = now
	}
	ws.CreatedAt = now
	ws.UpdatedAt = now

	if _, err := r.c.InsertOne(ctx, ws); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Workspace{}, ErrDuplicate
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// Update rewrites a workspace's mutable fields. The owner is immutable.
func (r *Workspaces) Update(ctx context.Context, id primitive.ObjectID, ws models.Workspace) error {
	set := bson.M{
		"name":             ws.Name,
		"name_ci":          text.Fold(ws.Name),
		"modules":          ws.Modules,
		"status":           ws.Status,
		"last_accessed_at": ws.LastAccessedAt,
		"updated_at":       time.Now().UTC(),
	}
	res, err := r.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *Workspaces) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}
