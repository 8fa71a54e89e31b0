package chat

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
	Insert(ctx context.Context, c *models.Chat) error
	GetByID(ctx context.Context, id string) (*models.Chat, error)
	ListForMember(ctx context.Context, accountID string) ([]*models.Chat, error)
	FindByMemberOverlap(ctx context.Context, accountID string, kind models.ChatKind) ([]*models.Chat, error)
	AddMember(ctx context.Context, chatID, accountID string) error
	RemoveMember(ctx context.Context, chatID, accountID string) error
	SetLastMessage(ctx context.Context, chatID string, m *models.Message) error
	Delete(ctx context.Context, id string) error
}

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepository{coll: coll}
}

func (r *mongoRepository) Insert(ctx context.Context, c *models.Chat) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, c)
	if mongo.IsDuplicateKeyError(err) {
		// deterministic id collision: the peer created it first
		return apperr.ErrValidation
	}
	return err
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	var c models.Chat
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *mongoRepository) ListForMember(ctx context.Context, accountID string) ([]*models.Chat, error) {
	filter := bson.M{"members": accountID}
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Chat
	for cur.Next(ctx) {
		var c models.Chat
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}

// FindByMemberOverlap queries by containment of one member; exact set
// equality cannot be expressed against the array field, so callers filter
// client-side.
func (r *mongoRepository) FindByMemberOverlap(ctx context.Context, accountID string, kind models.ChatKind) ([]*models.Chat, error) {
	cur, err := r.coll.Find(ctx, bson.M{"members": accountID, "kind": kind})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Chat
	for cur.Next(ctx) {
		var c models.Chat
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}

func (r *mongoRepository) AddMember(ctx context.Context, chatID, accountID string) error {
	update := bson.M{"$addToSet": bson.M{"members": accountID}, "$set": bson.M{"updated_at": time.Now().UTC()}}
	res, err := r.coll.UpdateByID(ctx, chatID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *mongoRepository) RemoveMember(ctx context.Context, chatID, accountID string) error {
	update := bson.M{"$pull": bson.M{"members": accountID}, "$set": bson.M{"updated_at": time.Now().UTC()}}
	res, err := r.coll.UpdateByID(ctx, chatID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *mongoRepository) SetLastMessage(ctx context.Context, chatID string, m *models.Message) error {
	res, err := r.coll.UpdateByID(ctx, chatID, bson.M{"$set": bson.M{
		"last_message_id":      m.ID,
		"last_message_content": m.Content,
		"last_message_at":      m.SentAt,
		"updated_at":           time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
