// repo/mongo/members.go
package mongorepo

import (
	"context"
	"time"

	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/repo"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Members is the mongo adapter for workspace memberships. The unique
// (workspace_id, account_id) index enforces one membership per pair.
type Members struct {
	c *mongo.Collection
}

func (r *Members) GetByID(ctx context.Context, id primitive.ObjectID) (models.Member, error) {
	var m models.Member
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return models.Member{}, notFound(err)
	}
	return m, nil
}

func (r *Members) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Member, error) {
	cur, err := r.c.Find(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Members) Create(ctx context.Context, m models.Member) (models.Member, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	if m.Status == "" {
		m.Status = models.MemberInvited
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := r.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicate
		}
		return models.Member{}, err
	}
	return m, nil
}

// Update rewrites a membership's mutable fields. The (workspace, account)
// pair is immutable.
func (r *Members) Update(ctx context.Context, id primitive.ObjectID, m models.Member) error {
	set := bson.M{
		"role":               m.Role,
		"status":             m.Status,
		"custom_permissions": m.CustomPermissions,
		"updated_at":         time.Now().UTC(),
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

func (r *Members) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}
