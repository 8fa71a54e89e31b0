package account

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/models"
)

// Repository is the account-document surface the session and presence
// services share. Accounts own their session id and presence flags
// exclusively; nothing else writes those fields.
type Repository interface {
	Insert(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateProfile(ctx context.Context, id string, fields map[string]any) error
	SetSession(ctx context.Context, id, sessionID, deviceName string, at time.Time) error
	ClearSession(ctx context.Context, id string) error
	SetOnline(ctx context.Context, id string, online bool, at time.Time) error
	SetTyping(ctx context.Context, id string, typing bool) error
	Delete(ctx context.Context, id string) error
}

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepository{coll: coll}
}

func (r *mongoRepository) Insert(ctx context.Context, a *models.Account) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, a)
	return err
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *mongoRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *mongoRepository) UpdateProfile(ctx context.Context, id string, fields map[string]any) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *mongoRepository) SetSession(ctx context.Context, id, sessionID, deviceName string, at time.Time) error {
	return r.UpdateProfile(ctx, id, map[string]any{
		"session_id":    sessionID,
		"device_name":   deviceName,
		"last_login_at": at,
	})
}

func (r *mongoRepository) ClearSession(ctx context.Context, id string) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{
		"$unset": bson.M{"session_id": "", "device_name": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *mongoRepository) SetOnline(ctx context.Context, id string, online bool, at time.Time) error {
	set := bson.M{"online": online, "updated_at": at}
	if !online {
		set["last_seen_at"] = at
	}
	_, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

func (r *mongoRepository) SetTyping(ctx context.Context, id string, typing bool) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"typing": typing}})
	return err
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
