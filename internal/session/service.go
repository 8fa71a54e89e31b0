package session

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/account"
	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/auth"
	"github.com/fathima-sithara/chat-backend/internal/models"
	"github.com/fathima-sithara/chat-backend/internal/watch"
)

const minPasswordLen = 8

// Service enforces the single-active-session-per-account policy: every
// fresh login rotates the account's session id, so the previous device's
// cached id diverges and its invalidation watcher forces a local logout.
// The rotation is last-writer-wins on one field; two near-simultaneous
// logins can both hold a valid-looking session until the next watcher tick.
type Service struct {
	accounts account.Repository
	cache    DeviceCache
	tokens   *auth.Manager
	hub      *watch.Hub
	logger   *zap.SugaredLogger
}

func NewService(accounts account.Repository, cache DeviceCache, tokens *auth.Manager, hub *watch.Hub, logger *zap.SugaredLogger) *Service {
	return &Service{accounts: accounts, cache: cache, tokens: tokens, hub: hub, logger: logger}
}

// Register creates an account for the email/password flow. Sign-in before
// sign-up is rejected by Login with ErrNotRegistered.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", apperr.ErrValidation)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("password too short: %w", apperr.ErrValidation)
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, fmt.Errorf("display name required: %w", apperr.ErrValidation)
	}

	if existing, err := s.accounts.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, fmt.Errorf("email already registered: %w", apperr.ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	a := &models.Account{
		ID:           uuid.NewString(),
		DisplayName:  strings.TrimSpace(displayName),
		Email:        email,
		PasswordHash: hash,
		AboutInfo:    "Hey there! I am using this app.",
		AuthMethod:   models.AuthEmail,
	}
	if err := s.accounts.Insert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

type LoginResult struct {
	Account   *models.Account
	SessionID string
	Token     string
}

// Login authenticates the credential, rotates the account's session id,
// records device metadata and caches the new id for this device.
func (s *Service) Login(ctx context.Context, email, password, deviceID, deviceName string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if err == apperr.ErrNotFound {
			return nil, apperr.ErrNotRegistered
		}
		return nil, err
	}
	if !auth.CheckPassword(a.PasswordHash, password) {
		return nil, apperr.ErrAuth
	}

	sessionID := uuid.NewString()
	now := time.Now().UTC()
	if err := s.accounts.SetSession(ctx, a.ID, sessionID, deviceName, now); err != nil {
		return nil, err
	}
	if err := s.cache.Put(ctx, a.ID, deviceID, sessionID); err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueToken(a.ID, sessionID)
	if err != nil {
		return nil, err
	}

	// Wake invalidation watchers on every other device logged in as this
	// account; their cached session id no longer matches.
	s.hub.Notify(ctx, watch.TopicAccount(a.ID))

	a.SessionID = sessionID
	a.DeviceName = deviceName
	a.LastLoginAt = &now
	return &LoginResult{Account: a, SessionID: sessionID, Token: token}, nil
}

// ValidateSession reports whether this device still owns the account's
// active session. A mismatch means another device logged in since.
func (s *Service) ValidateSession(ctx context.Context, accountID, deviceID string) (bool, error) {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if err == apperr.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	local, err := s.cache.Get(ctx, accountID, deviceID)
	if err != nil {
		return false, err
	}
	return local != "" && a.SessionID == local, nil
}

// SessionState is the snapshot delivered to invalidation subscribers.
type SessionState struct {
	Valid bool `json:"valid"`
}

// SubscribeInvalidation streams the session's validity for one device. The
// first snapshot after another device logs in carries Valid=false; the API
// layer turns that into a forced logout. Forced invalidation clears only
// the local cache, never the server-side id the new device now owns.
func (s *Service) SubscribeInvalidation(ctx context.Context, accountID, deviceID string) *watch.Subscription {
	return s.hub.Subscribe(ctx, watch.TopicAccount(accountID), func(ctx context.Context) (interface{}, error) {
		valid, err := s.ValidateSession(ctx, accountID, deviceID)
		if err != nil {
			return nil, err
		}
		if !valid {
			if err := s.cache.Delete(ctx, accountID, deviceID); err != nil {
				s.logger.Warnw("local session clear failed", "account", accountID, "err", err)
			}
		}
		return SessionState{Valid: valid}, nil
	})
}

// Logout clears the device's cached session and the server-side session id.
// Only an explicit logout touches the server field; see SubscribeInvalidation
// for the forced path.
func (s *Service) Logout(ctx context.Context, accountID, deviceID string) error {
	if err := s.cache.Delete(ctx, accountID, deviceID); err != nil {
		return err
	}
	if err := s.accounts.ClearSession(ctx, accountID); err != nil && err != apperr.ErrNotFound {
		return err
	}
	s.hub.Notify(ctx, watch.TopicAccount(accountID))
	return nil
}

// DeleteAccount removes the account document together with its auth
// identity (the credential hash lives on the document, so one delete covers
// both) and drops this device's session cache.
func (s *Service) DeleteAccount(ctx context.Context, accountID, deviceID string) error {
	if err := s.accounts.Delete(ctx, accountID); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, accountID, deviceID); err != nil {
		s.logger.Warnw("session cache cleanup failed", "account", accountID, "err", err)
	}
	s.hub.Notify(ctx, watch.TopicAccount(accountID))
	return nil
}
