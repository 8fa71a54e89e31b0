package api

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fathima-sithara/chat-backend/internal/auth"
	"github.com/fathima-sithara/chat-backend/internal/chat"
	"github.com/fathima-sithara/chat-backend/internal/message"
	"github.com/fathima-sithara/chat-backend/internal/presence"
	"github.com/fathima-sithara/chat-backend/internal/session"
	"github.com/fathima-sithara/chat-backend/internal/update"
)

// WSHandler serves the live snapshot streams. Each connection owns exactly
// one subscription; closing the socket cancels it, so navigating away from
// a screen reliably detaches its listener.
type WSHandler struct {
	tokens   *auth.Manager
	sessions *session.Service
	chats    *chat.Service
	messages *message.Service
	updates  *update.Service
	presence *presence.Tracker
	logger   *zap.SugaredLogger

	pingInterval  time.Duration
	writeDeadline time.Duration
}

func NewWSHandler(tokens *auth.Manager, sessions *session.Service, chats *chat.Service, messages *message.Service, updates *update.Service, tracker *presence.Tracker, logger *zap.SugaredLogger) *WSHandler {
	return &WSHandler{
		tokens:   tokens,
		sessions: sessions,
		chats:    chats,
		messages: messages,
		updates:  updates,
		presence: tracker,
		logger:   logger,

		pingInterval:  30 * time.Second,
		writeDeadline: 10 * time.Second,
	}
}

// authenticate reads the token from the query (websocket upgrades cannot
// carry an Authorization header from browsers).
func (h *WSHandler) authenticate(c *websocket.Conn) (*auth.Claims, bool) {
	claims, err := h.tokens.ParseToken(c.Query("token"))
	if err != nil {
		_ = c.WriteJSON(map[string]string{"error": "invalid token"})
		_ = c.Close()
		return nil, false
	}
	return claims, true
}

// Chats streams the caller's full chat list on every change.
func (h *WSHandler) Chats(c *websocket.Conn) {
	claims, ok := h.authenticate(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.stream(c, ctx, cancel, h.chats.ListenChats(ctx, claims.AccountID).C, nil)
}

// Messages streams one chat's full ordered message list. Non-members are
// rejected before the subscription attaches.
func (h *WSHandler) Messages(c *websocket.Conn) {
	claims, ok := h.authenticate(c)
	if !ok {
		return
	}
	chatID := c.Params("chat_id")
	if _, err := h.chats.GetChat(context.Background(), claims.AccountID, chatID); err != nil {
		_ = c.WriteJSON(map[string]string{"error": "not a participant"})
		_ = c.Close()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.stream(c, ctx, cancel, h.messages.SubscribeMessages(ctx, chatID).C, nil)
}

// Updates streams the active (non-expired) updates, optionally filtered to
// one author.
func (h *WSHandler) Updates(c *websocket.Conn) {
	if _, ok := h.authenticate(c); !ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var sub <-chan interface{}
	if author := c.Query("author_id"); author != "" {
		sub = h.updates.SubscribeAuthorUpdates(ctx, author).C
	} else {
		sub = h.updates.SubscribeActiveUpdates(ctx).C
	}
	h.stream(c, ctx, cancel, sub, nil)
}

// Presence streams a peer's online/typing flags.
func (h *WSHandler) Presence(c *websocket.Conn) {
	if _, ok := h.authenticate(c); !ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.stream(c, ctx, cancel, h.presence.Subscribe(ctx, c.Params("account_id")).C, nil)
}

// Session streams the device's session validity; the first invalid snapshot
// is delivered and the socket closed, forcing the client to log out.
func (h *WSHandler) Session(c *websocket.Conn) {
	claims, ok := h.authenticate(c)
	if !ok {
		return
	}
	deviceID := c.Query("device_id")
	if deviceID == "" {
		deviceID = "default"
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.stream(c, ctx, cancel, h.sessions.SubscribeInvalidation(ctx, claims.AccountID, deviceID).C, func(snap interface{}) bool {
		state, ok := snap.(session.SessionState)
		return ok && !state.Valid
	})
}

// stream pumps snapshots until the peer goes away or stopAfter fires. A
// modest rate limiter keeps a hot topic from flooding slow clients.
func (h *WSHandler) stream(c *websocket.Conn, ctx context.Context, cancel context.CancelFunc, snaps <-chan interface{}, stopAfter func(interface{}) bool) {
	lim := rate.NewLimiter(rate.Limit(10), 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case <-done:
			cancel()
			return
		case <-ticker.C:
			_ = c.SetWriteDeadline(time.Now().Add(h.writeDeadline))
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
				return
			}
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			_ = lim.Wait(ctx)
			_ = c.SetWriteDeadline(time.Now().Add(h.writeDeadline))
			if err := c.WriteJSON(snap); err != nil {
				h.logger.Debugw("snapshot write failed", "err", err)
				cancel()
				return
			}
			if stopAfter != nil && stopAfter(snap) {
				cancel()
				return
			}
		}
	}
}
