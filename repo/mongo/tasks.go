// repo/mongo/tasks.go
package mongorepo

import (
	"context"
	"time"

	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/repo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Tasks is the mongo adapter for workspace tasks.
type Tasks struct {
	c *mongo.Collection
}

func (r *Tasks) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var tk models.Task
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&tk); err != nil {
		return models.Task{}, notFound(err)
	}
	return tk, nil
}

func (r *Tasks) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Task, error) {
	cur, err := r.c.Find(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Task
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Tasks) Create(ctx context.Context, tk models.Task) (models.Task, error) {
	now := time.Now().UTC()
	tk.ID = primitive.NewObjectID()
	if tk.Status == "" {
		tk.Status = models.TaskOpen
	}
	tk.CreatedAt = now
	tk.UpdatedAt = now

	if _, err := r.c.InsertOne(ctx, tk); err != nil {
		return models.Task{}, err
	}
	return tk, nil
}

// Update rewrites a task's mutable fields. Workspace and creator are
// immutable.
func (r *Tasks) Update(ctx context.Context, id primitive.ObjectID, tk models.Task) error {
	set := bson.M{
		"title":       tk.Title,
		"assignee_id": tk.AssigneeID,
		"status":      tk.Status,
		"due":         tk.Due,
		"updated_at":  time.Now().UTC(),
	}
	res, err := r.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *Tasks) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}
