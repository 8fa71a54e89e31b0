package message

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/models"
)

type fakeRepo struct {
	mu       sync.Mutex
	messages map[string]*models.Message

	insertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{messages: make(map[string]*models.Message)}
}

func (f *fakeRepo) Insert(ctx context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *m
	f.messages[m.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeRepo) ListByChat(ctx context.Context, chatID string) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Message
	for _, m := range f.messages {
		if m.ChatID == chatID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

func (f *fakeRepo) MarkSeen(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return apperr.ErrNotFound
	}
	m.Seen = true
	return nil
}

func (f *fakeRepo) Tombstone(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return apperr.ErrNotFound
	}
	m.Content = models.TombstoneContent
	m.Deleted = true
	m.MediaURL = ""
	return nil
}

func (f *fakeRepo) DeleteForChat(ctx context.Context, chatID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, m := range f.messages {
		if m.ChatID == chatID {
			delete(f.messages, id)
			n++
		}
	}
	return n, nil
}

// fakeChats implements just enough of chat.Repository for the pipeline.
type fakeChats struct {
	mu    sync.Mutex
	chats map[string]*models.Chat

	summaryErr error
}

func newFakeChats(chats ...*models.Chat) *fakeChats {
	f := &fakeChats{chats: make(map[string]*models.Chat)}
	for _, c := range chats {
		f.chats[c.ID] = c
	}
	return f
}

func (f *fakeChats) Insert(ctx context.Context, c *models.Chat) error { return errors.New("unused") }

func (f *fakeChats) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeChats) ListForMember(ctx context.Context, accountID string) ([]*models.Chat, error) {
	return nil, nil
}

func (f *fakeChats) FindByMemberOverlap(ctx context.Context, accountID string, kind models.ChatKind) ([]*models.Chat, error) {
	return nil, nil
}

func (f *fakeChats) AddMember(ctx context.Context, chatID, accountID string) error    { return nil }
func (f *fakeChats) RemoveMember(ctx context.Context, chatID, accountID string) error { return nil }

func (f *fakeChats) SetLastMessage(ctx context.Context, chatID string, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.summaryErr != nil {
		return f.summaryErr
	}
	c, ok := f.chats[chatID]
	if !ok {
		return apperr.ErrNotFound
	}
	c.LastMessageID = m.ID
	c.LastMessageContent = m.Content
	at := m.SentAt
	c.LastMessageAt = &at
	return nil
}

func (f *fakeChats) Delete(ctx context.Context, id string) error { return nil }

// fakeBlobs records uploads/deletes and can be told to fail.
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

// passBatch runs the batch body directly; atomicity is the mongo driver's
// job, the service only has to put both writes inside one batch.
var passBatch = BatcherFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})
