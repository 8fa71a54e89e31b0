package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/models"
)

type fakeRepo struct {
	mu    sync.Mutex
	chats map[string]*models.Chat

	insertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{chats: make(map[string]*models.Chat)}
}

func (f *fakeRepo) Insert(ctx context.Context, c *models.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.chats[c.ID]; ok {
		return errors.New("duplicate key")
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	f.chats[c.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) ListForMember(ctx context.Context, accountID string) ([]*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Chat
	for _, c := range f.chats {
		if c.HasMember(accountID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) FindByMemberOverlap(ctx context.Context, accountID string, kind models.ChatKind) ([]*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Chat
	for _, c := range f.chats {
		if c.Kind == kind && c.HasMember(accountID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) AddMember(ctx context.Context, chatID, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[chatID]
	if !ok {
		return apperr.ErrNotFound
	}
	if !c.HasMember(accountID) {
		c.Members = append(c.Members, accountID)
	}
	return nil
}

func (f *fakeRepo) RemoveMember(ctx context.Context, chatID, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[chatID]
	if !ok {
		return apperr.ErrNotFound
	}
	out := c.Members[:0]
	for _, m := range c.Members {
		if m != accountID {
			out = append(out, m)
		}
	}
	c.Members = out
	return nil
}

func (f *fakeRepo) SetLastMessage(ctx context.Context, chatID string, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
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

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.chats[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.chats, id)
	return nil
}

type fakePurger struct {
	purged []string
	err    error
}

func (f *fakePurger) DeleteForChat(ctx context.Context, chatID string) (int64, error) {
	f.purged = append(f.purged, chatID)
	if f.err != nil {
		return 1, f.err
	}
	return 2, nil
}
