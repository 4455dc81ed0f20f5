// repo/mongo/bots.go
package mongorepo

import (
	"context"
	"time"

	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/repo"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Bots is the mongo adapter for organization-scoped bots.
type Bots struct {
	c *mongo.Collection
}

func (r *Bots) GetByID(ctx context.Context, id primitive.ObjectID) (models.Bot, error) {
	var b models.Bot
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return models.Bot{}, notFound(err)
	}
	return b, nil
}

func (r *Bots) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Bot, error) {
	cur, err := r.c.Find(ctx, bson.M{"organization_id": orgID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Bot
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a bot and assigns its token. The token is
// server-assigned; any caller-provided value is discarded.
func (r *Bots) Create(ctx context.Context, b models.Bot) (models.Bot, error) {
	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.NameCI = text.Fold(b.Name)
	b.Token = uuid.NewString()
	if b.Status == "" {
		b.Status = models.BotActive
	}
	b.CreatedAt = now
	b.UpdatedAt = now

	if _, err := r.c.InsertOne(ctx, b); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Bot{}, ErrDuplicate
		}
		return models.Bot{}, err
	}
	return b, nil
}

// Update rewrites a bot's mutable fields. Token and organization are
// immutable.
func (r *Bots) Update(ctx context.Context, id primitive.ObjectID, b models.Bot) error {
	set := bson.M{
		"name":       b.Name,
		"name_ci":    text.Fold(b.Name),
		"status":     b.Status,
		"updated_at": time.Now().UTC(),
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

func (r *Bots) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}
