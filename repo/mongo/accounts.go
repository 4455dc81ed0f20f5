// repo/mongo/accounts.go
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

// Accounts is the mongo adapter for the identity aggregate.
type Accounts struct {
	c *mongo.Collection
}

func (r *Accounts) GetByID(ctx context.Context, id primitive.ObjectID) (models.Account, error) {
	var a models.Account
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Account{}, notFound(err)
	}
	return a, nil
}

func (r *Accounts) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Account, error) {
	cur, err := r.c.Find(ctx, bson.M{"organization_id": orgID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Account
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Accounts) Create(ctx context.Context, a models.Account) (models.Account, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.NameCI = text.Fold(a.Name)
	if a.Status == "" {
		a.Status = models.AccountActive
	}
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := r.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Account{}, ErrDuplicate
		}
		return models.Account{}, err
	}
	return a, nil
}

// Update rewrites an account's mutable fields. Kind is immutable and is
// never part of the set.
func (r *Accounts) Update(ctx context.Context, id primitive.ObjectID, a models.Account) error {
	set := bson.M{
		"name":            a.Name,
		"name_ci":         text.Fold(a.Name),
		"email":           a.Email,
		"organization_id": a.OrganizationID,
		"status":          a.Status,
		"updated_at":      time.Now().UTC(),
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

func (r *Accounts) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// Teams is the kind-filtered adapter over team accounts.
type Teams struct {
	c *mongo.Collection
}

func (r *Teams) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Account, error) {
	return listKind(ctx, r.c, models.KindTeam, orgID)
}

// Partners is the kind-filtered adapter over partner accounts.
type Partners struct {
	c *mongo.Collection
}

func (r *Partners) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Account, error) {
	return listKind(ctx, r.c, models.KindPartner, orgID)
}

func listKind(ctx context.Context, c *mongo.Collection, kind models.AccountKind, orgID primitive.ObjectID) ([]models.Account, error) {
	cur, err := c.Find(ctx, bson.M{"organization_id": orgID, "kind": kind})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Account
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
