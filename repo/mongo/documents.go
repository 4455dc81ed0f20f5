// repo/mongo/documents.go
package mongorepo

import (
	"context"
	"time"

	"github.com/dalemusser/statehub/domain/models"
	"github.com/dalemusser/statehub/repo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Documents is the mongo adapter for workspace documents.
type Documents struct {
	c *mongo.Collection
}

func (r *Documents) GetByID(ctx context.Context, id primitive.ObjectID) (models.Document, error) {
	var doc models.Document
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return models.Document{}, notFound(err)
	}
	return doc, nil
}

func (r *Documents) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Document, error) {
	cur, err := r.c.Find(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Document
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Documents) Create(ctx context.Context, doc models.Document) (models.Document, error) {
	now := time.Now().UTC()
	doc.ID = primitive.NewObjectID()
	doc.TitleCI = text.Fold(doc.Title)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.c.InsertOne(ctx, doc); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// Update rewrites a document's mutable fields. Workspace and creator are
// immutable.
func (r *Documents) Update(ctx context.Context, id primitive.ObjectID, doc models.Document) error {
	set := bson.M{
		"title":      doc.Title,
		"title_ci":   text.Fold(doc.Title),
		"body":       doc.Body,
		"starred":    doc.Starred,
		"updated_at": time.Now().UTC(),
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

func (r *Documents) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}
