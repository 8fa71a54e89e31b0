package presence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/account"
	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/watch"
)

// Tracker maintains the online/typing flags on the account document. Both
// flags are independent last-writer-wins booleans; out-of-order delivery is
// tolerated because neither write depends on the other. There is no TTL or
// heartbeat: a client that dies without flipping its flag stays online
// until it reconnects.
type Tracker struct {
	accounts account.Repository
	hub      *watch.Hub
	logger   *zap.SugaredLogger
}

func NewTracker(accounts account.Repository, hub *watch.Hub, logger *zap.SugaredLogger) *Tracker {
	return &Tracker{accounts: accounts, hub: hub, logger: logger}
}

// SetOnline is fire-and-forget: failures (including a missing account) are
// logged, never surfaced. Going offline also stamps last_seen_at.
func (t *Tracker) SetOnline(ctx context.Context, accountID string, online bool) {
	if err := t.accounts.SetOnline(ctx, accountID, online, time.Now().UTC()); err != nil {
		t.logger.Warnw("online flag update failed", "account", accountID, "err", err)
		return
	}
	t.hub.Notify(ctx, watch.TopicAccount(accountID))
}

func (t *Tracker) SetTyping(ctx context.Context, accountID string, typing bool) {
	if err := t.accounts.SetTyping(ctx, accountID, typing); err != nil {
		t.logger.Warnw("typing flag update failed", "account", accountID, "err", err)
		return
	}
	t.hub.Notify(ctx, watch.TopicAccount(accountID))
}

// State is the presence snapshot delivered to subscribers.
type State struct {
	AccountID  string     `json:"account_id"`
	Online     bool       `json:"online"`
	Typing     bool       `json:"typing"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// Subscribe streams the peer's presence; one snapshot per flag change.
func (t *Tracker) Subscribe(ctx context.Context, accountID string) *watch.Subscription {
	return t.hub.Subscribe(ctx, watch.TopicAccount(accountID), func(ctx context.Context) (interface{}, error) {
		a, err := t.accounts.GetByID(ctx, accountID)
		if err != nil {
			if err == apperr.ErrNotFound {
				return State{AccountID: accountID}, nil
			}
			return nil, err
		}
		return State{AccountID: a.ID, Online: a.Online, Typing: a.Typing, LastSeenAt: a.LastSeenAt}, nil
	})
}
