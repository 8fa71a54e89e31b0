package update

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/models"
)

type fakeRepo struct {
	mu      sync.Mutex
	updates map[string]*models.Update

	insertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{updates: make(map[string]*models.Update)}
}

func (f *fakeRepo) Insert(ctx context.Context, u *models.Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *u
	f.updates[u.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*models.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.updates[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) ListActive(ctx context.Context, now time.Time) ([]*models.Update, error) {
	return f.list(func(u *models.Update) bool { return u.ExpiresAt.After(now) }), nil
}

func (f *fakeRepo) ListActiveByAuthor(ctx context.Context, authorID string, now time.Time) ([]*models.Update, error) {
	return f.list(func(u *models.Update) bool {
		return u.AuthorID == authorID && u.ExpiresAt.After(now)
	}), nil
}

func (f *fakeRepo) ListExpired(ctx context.Context, now time.Time) ([]*models.Update, error) {
	return f.list(func(u *models.Update) bool { return !u.ExpiresAt.After(now) }), nil
}

func (f *fakeRepo) list(keep func(*models.Update) bool) []*models.Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Update
	for _, u := range f.updates {
		if keep(u) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ExpiresAt.Before(out[j].ExpiresAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.updates, id)
	return nil
}

type fakeBlobs struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	uploadErr error
	deleted   []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{blobs: make(map[string][]byte)}
}

func (f *fakeBlobs) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.blobs[key] = cp
	return "https://blobs.test/" + key, nil
}

func (f *fakeBlobs) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	f.deleted = append(f.deleted, key)
	return nil
}
