package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/auth"
	"github.com/fathima-sithara/chat-backend/internal/logger"
	"github.com/fathima-sithara/chat-backend/internal/watch"
)

func newTestService(accounts *fakeAccounts, cache *memCache) *Service {
	hub := watch.NewHub(nil, "watch", logger.Nop())
	tokens := auth.NewManager("test-secret", time.Hour)
	return NewService(accounts, cache, tokens, hub, logger.Nop())
}

func register(t *testing.T, s *Service, email string) string {
	t.Helper()
	a, err := s.Register(context.Background(), email, "correct horse", "Tester")
	require.NoError(t, err)
	return a.ID
}

func TestRegisterValidation(t *testing.T) {
	s := newTestService(newFakeAccounts(), newMemCache())

	cases := []struct {
		name     string
		email    string
		password string
		display  string
	}{
		{"bad email", "not-an-address", "longenough", "Tester"},
		{"short password", "a@example.com", "short", "Tester"},
		{"blank display name", "a@example.com", "longenough", "   "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tc.email, tc.password, tc.display)
			require.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	s := newTestService(newFakeAccounts(), newMemCache())
	register(t, s, "a@example.com")

	_, err := s.Register(context.Background(), "A@Example.com ", "longenough", "Other")
	require.ErrorIs(t, err, apperr.ErrValidation, "email comparison is case-insensitive")
}

func TestLoginBeforeRegister(t *testing.T) {
	s := newTestService(newFakeAccounts(), newMemCache())

	_, err := s.Login(context.Background(), "nobody@example.com", "whatever1", "dev-1", "iPhone")
	require.ErrorIs(t, err, apperr.ErrNotRegistered)
}

func TestLoginWrongPassword(t *testing.T) {
	s := newTestService(newFakeAccounts(), newMemCache())
	register(t, s, "a@example.com")

	_, err := s.Login(context.Background(), "a@example.com", "wrong password", "dev-1", "iPhone")
	require.ErrorIs(t, err, apperr.ErrAuth)
}

func TestLoginIssuesSessionAndToken(t *testing.T) {
	accounts := newFakeAccounts()
	s := newTestService(accounts, newMemCache())
	id := register(t, s, "a@example.com")

	res, err := s.Login(context.Background(), "a@example.com", "correct horse", "dev-1", "iPhone")
	require.NoError(t, err)
	require.NotEmpty(t, res.SessionID)
	require.NotEmpty(t, res.Token)

	stored, err := accounts.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, res.SessionID, stored.SessionID)
	require.Equal(t, "iPhone", stored.DeviceName)

	valid, err := s.ValidateSession(context.Background(), id, "dev-1")
	require.NoError(t, err)
	require.True(t, valid)
}

func TestSecondLoginRevokesFirstDevice(t *testing.T) {
	s := newTestService(newFakeAccounts(), newMemCache())
	id := register(t, s, "a@example.com")

	first, err := s.Login(context.Background(), "a@example.com", "correct horse", "dev-1", "iPhone")
	require.NoError(t, err)
	second, err := s.Login(context.Background(), "a@example.com", "correct horse", "dev-2", "iPad")
	require.NoError(t, err)
	require.NotEqual(t, first.SessionID, second.SessionID, "every login rotates the session id")

	valid, err := s.ValidateSession(context.Background(), id, "dev-1")
	require.NoError(t, err)
	require.False(t, valid, "older device loses the session")

	valid, err = s.ValidateSession(context.Background(), id, "dev-2")
	require.NoError(t, err)
	require.True(t, valid, "the new login is the one active session")
}

func TestInvalidationWatcher(t *testing.T) {
	cache := newMemCache()
	s := newTestService(newFakeAccounts(), cache)
	id := register(t, s, "a@example.com")

	_, err := s.Login(context.Background(), "a@example.com", "correct horse", "dev-1", "iPhone")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := s.SubscribeInvalidation(ctx, id, "dev-1")
	defer sub.Cancel()

	state := (<-sub.C).(SessionState)
	require.True(t, state.Valid, "initial snapshot reflects the live session")

	_, err = s.Login(context.Background(), "a@example.com", "correct horse", "dev-2", "iPad")
	require.NoError(t, err)

	// the rotation notification forces a refetch; the snapshot flips
	for state.Valid {
		state = (<-sub.C).(SessionState)
	}

	// forced invalidation clears only this device's local cache
	local, err := cache.Get(context.Background(), id, "dev-1")
	require.NoError(t, err)
	require.Empty(t, local)
	stored, err := s.accounts.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotEmpty(t, stored.SessionID, "server-side session belongs to the new device and stays")
}

func TestLogoutClearsLocalAndServer(t *testing.T) {
	cache := newMemCache()
	accounts := newFakeAccounts()
	s := newTestService(accounts, cache)
	id := register(t, s, "a@example.com")

	_, err := s.Login(context.Background(), "a@example.com", "correct horse", "dev-1", "iPhone")
	require.NoError(t, err)

	require.NoError(t, s.Logout(context.Background(), id, "dev-1"))

	local, err := cache.Get(context.Background(), id, "dev-1")
	require.NoError(t, err)
	require.Empty(t, local)
	stored, err := accounts.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Empty(t, stored.SessionID, "explicit logout releases the server-side session too")

	valid, err := s.ValidateSession(context.Background(), id, "dev-1")
	require.NoError(t, err)
	require.False(t, valid)
}

func TestValidateSessionMissingAccount(t *testing.T) {
	s := newTestService(newFakeAccounts(), newMemCache())

	valid, err := s.ValidateSession(context.Background(), "ghost", "dev-1")
	require.NoError(t, err)
	require.False(t, valid, "a deleted account has no valid session")
}

func TestDeleteAccount(t *testing.T) {
	accounts := newFakeAccounts()
	cache := newMemCache()
	s := newTestService(accounts, cache)
	id := register(t, s, "a@example.com")
	_, err := s.Login(context.Background(), "a@example.com", "correct horse", "dev-1", "iPhone")
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(context.Background(), id, "dev-1"))

	_, err = accounts.GetByID(context.Background(), id)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	local, err := cache.Get(context.Background(), id, "dev-1")
	require.NoError(t, err)
	require.Empty(t, local)
}
