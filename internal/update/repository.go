package update

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, u *models.Update) error
	GetByID(ctx context.Context, id string) (*models.Update, error)
	ListActive(ctx context.Context, now time.Time) ([]*models.Update, error)
	ListActiveByAuthor(ctx context.Context, authorID string, now time.Time) ([]*models.Update, error)
	ListExpired(ctx context.Context, now time.Time) ([]*models.Update, error)
	Delete(ctx context.Context, id string) error
}

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepository{coll: coll}
}

func (r *mongoRepository) Insert(ctx context.Context, u *models.Update) error {
	_, err := r.coll.InsertOne(ctx, u)
	return err
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*models.Update, error) {
	var u models.Update
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Active ordering: soonest-to-expire first, then newest first within the
// same author, which keeps one author's updates grouped and in post order.
func activeOpts() *options.FindOptions {
	return options.Find().SetSort(bson.D{
		{Key: "expires_at", Value: 1},
		{Key: "created_at", Value: -1},
	})
}

func (r *mongoRepository) ListActive(ctx context.Context, now time.Time) ([]*models.Update, error) {
	return r.list(ctx, bson.M{"expires_at": bson.M{"$gt": now}}, activeOpts())
}

func (r *mongoRepository) ListActiveByAuthor(ctx context.Context, authorID string, now time.Time) ([]*models.Update, error) {
	return r.list(ctx, bson.M{"author_id": authorID, "expires_at": bson.M{"$gt": now}}, activeOpts())
}

func (r *mongoRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.Update, error) {
	return r.list(ctx, bson.M{"expires_at": bson.M{"$lte": now}}, options.Find())
}

func (r *mongoRepository) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Update, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Update
	for cur.Next(ctx) {
		var u models.Update
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}

// Delete is idempotent: removing an already-removed update is a no-op.
func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
