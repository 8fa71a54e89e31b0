package message

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByChat(ctx context.Context, chatID string) ([]*models.Message, error)
	MarkSeen(ctx context.Context, id string) error
	Tombstone(ctx context.Context, id string) error
	DeleteForChat(ctx context.Context, chatID string) (int64, error)
}

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepository{coll: coll}
}

func (r *mongoRepository) Insert(ctx context.Context, m *models.Message) error {
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	var m models.Message
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListByChat returns the full conversation ordered by sent_at ascending;
// delivery order within one chat rides on this server-side sort.
func (r *mongoRepository) ListByChat(ctx context.Context, chatID string) ([]*models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

// MarkSeen is an idempotent field flip; re-marking a seen message matches
// zero modified documents and that is fine.
func (r *mongoRepository) MarkSeen(ctx context.Context, id string) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"seen": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Tombstone replaces the content with the deletion marker instead of
// removing the row, so the peer's view keeps its ordering and anchors.
func (r *mongoRepository) Tombstone(ctx context.Context, id string) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"content":   models.TombstoneContent,
		"deleted":   true,
		"media_url": "",
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *mongoRepository) DeleteForChat(ctx context.Context, chatID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"chat_id": chatID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
