package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/logger"
	"github.com/fathima-sithara/chat-backend/internal/models"
	"github.com/fathima-sithara/chat-backend/internal/watch"
)

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]*models.Account

	onlineErr error
}

func newFakeAccounts(ids ...string) *fakeAccounts {
	f := &fakeAccounts{accounts: make(map[string]*models.Account)}
	for _, id := range ids {
		f.accounts[id] = &models.Account{ID: id}
	}
	return f
}

func (f *fakeAccounts) Insert(ctx context.Context, a *models.Account) error { return nil }

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
	return nil, apperr.ErrNotFound
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, id string, fields map[string]any) error {
	return nil
}

func (f *fakeAccounts) SetSession(ctx context.Context, id, sessionID, deviceName string, at time.Time) error {
	return nil
}

func (f *fakeAccounts) ClearSession(ctx context.Context, id string) error { return nil }

func (f *fakeAccounts) SetOnline(ctx context.Context, id string, online bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onlineErr != nil {
		return f.onlineErr
	}
	a, ok := f.accounts[id]
	if !ok {
		return apperr.ErrNotFound
	}
	a.Online = online
	if !online {
		a.LastSeenAt = &at
	}
	return nil
}

func (f *fakeAccounts) SetTyping(ctx context.Context, id string, typing bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return apperr.ErrNotFound
	}
	a.Typing = typing
	return nil
}

func (f *fakeAccounts) Delete(ctx context.Context, id string) error { return nil }

func newTestTracker(accounts *fakeAccounts) *Tracker {
	return NewTracker(accounts, watch.NewHub(nil, "watch", logger.Nop()), logger.Nop())
}

func TestSetOnlineFlipsFlag(t *testing.T) {
	accounts := newFakeAccounts("alice")
	tr := newTestTracker(accounts)

	tr.SetOnline(context.Background(), "alice", true)
	a, err := accounts.GetByID(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, a.Online)
	require.Nil(t, a.LastSeenAt, "going online does not stamp last seen")

	tr.SetOnline(context.Background(), "alice", false)
	a, err = accounts.GetByID(context.Background(), "alice")
	require.NoError(t, err)
	require.False(t, a.Online)
	require.NotNil(t, a.LastSeenAt, "going offline stamps last seen")
}

func TestFlagsAreIndependent(t *testing.T) {
	accounts := newFakeAccounts("alice")
	tr := newTestTracker(accounts)

	tr.SetOnline(context.Background(), "alice", true)
	tr.SetTyping(context.Background(), "alice", true)
	tr.SetOnline(context.Background(), "alice", false)

	a, err := accounts.GetByID(context.Background(), "alice")
	require.NoError(t, err)
	require.False(t, a.Online)
	require.True(t, a.Typing, "typing survives an unrelated online write")
}

func TestSetOnlineNeverSurfacesErrors(t *testing.T) {
	accounts := newFakeAccounts("alice")
	accounts.onlineErr = errors.New("backend down")
	tr := newTestTracker(accounts)

	// must not panic or propagate; the flag simply stays put
	tr.SetOnline(context.Background(), "alice", true)

	accounts.onlineErr = nil
	a, err := accounts.GetByID(context.Background(), "alice")
	require.NoError(t, err)
	require.False(t, a.Online)
}

func TestSubscribeStreamsFlagChanges(t *testing.T) {
	accounts := newFakeAccounts("alice")
	tr := newTestTracker(accounts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := tr.Subscribe(ctx, "alice")
	defer sub.Cancel()

	state := (<-sub.C).(State)
	require.False(t, state.Online)

	tr.SetOnline(context.Background(), "alice", true)
	for !state.Online {
		state = (<-sub.C).(State)
	}

	tr.SetTyping(context.Background(), "alice", true)
	for !state.Typing {
		state = (<-sub.C).(State)
	}
	require.True(t, state.Online)
}

func TestSubscribeUnknownAccount(t *testing.T) {
	tr := newTestTracker(newFakeAccounts())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := tr.Subscribe(ctx, "ghost")
	defer sub.Cancel()

	state := (<-sub.C).(State)
	require.Equal(t, "ghost", state.AccountID)
	require.False(t, state.Online, "missing accounts read as offline, not as an error")
}
