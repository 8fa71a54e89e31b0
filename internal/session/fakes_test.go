package session

import (
	"context"
	"sync"
	"time"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/models"
)

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[string]*models.Account)}
}

func (f *fakeAccounts) Insert(ctx context.Context, a *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.accounts[a.ID] = &cp
	return nil
}

func (f *fakeAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if v, ok := fields["display_name"]; ok {
		a.DisplayName = v.(string)
	}
	if v, ok := fields["about_info"]; ok {
		a.AboutInfo = v.(string)
	}
	return nil
}

func (f *fakeAccounts) SetSession(ctx context.Context, id, sessionID, deviceName string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return apperr.ErrNotFound
	}
	a.SessionID = sessionID
	a.DeviceName = deviceName
	a.LastLoginAt = &at
	return nil
}

func (f *fakeAccounts) ClearSession(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return apperr.ErrNotFound
	}
	a.SessionID = ""
	a.DeviceName = ""
	return nil
}

func (f *fakeAccounts) SetOnline(ctx context.Context, id string, online bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		a.Online = online
		if !online {
			a.LastSeenAt = &at
		}
	}
	return nil
}

func (f *fakeAccounts) SetTyping(ctx context.Context, id string, typing bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		a.Typing = typing
	}
	return nil
}

func (f *fakeAccounts) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.accounts, id)
	return nil
}

// memCache is the in-process stand-in for the redis device cache.
type memCache struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newMemCache() *memCache {
	return &memCache{sessions: make(map[string]string)}
}

func (c *memCache) Put(ctx context.Context, accountID, deviceID, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[accountID+"/"+deviceID] = sessionID
	return nil
}

func (c *memCache) Get(ctx context.Context, accountID, deviceID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[accountID+"/"+deviceID], nil
}

func (c *memCache) Delete(ctx context.Context, accountID, deviceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, accountID+"/"+deviceID)
	return nil
}
