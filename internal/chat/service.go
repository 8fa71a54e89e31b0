package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/events"
	"github.com/fathima-sithara/chat-backend/internal/models"
	"github.com/fathima-sithara/chat-backend/internal/watch"
)

// MessagePurger removes the messages of a chat before the chat document
// itself goes; implemented by the message repository.
type MessagePurger interface {
	DeleteForChat(ctx context.Context, chatID string) (int64, error)
}

// Service is the chat directory: it resolves or creates the chat for a
// participant set and keeps the denormalized last-message summary that the
// chat list renders from.
type Service struct {
	repo     Repository
	messages MessagePurger
	producer *events.Producer
	hub      *watch.Hub
	logger   *zap.SugaredLogger
}

func NewService(repo Repository, messages MessagePurger, producer *events.Producer, hub *watch.Hub, logger *zap.SugaredLogger) *Service {
	return &Service{repo: repo, messages: messages, producer: producer, hub: hub, logger: logger}
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, m := range a {
		set[m] = struct{}{}
	}
	for _, m := range b {
		if _, ok := set[m]; !ok {
			return false
		}
	}
	return true
}

// FindOrCreateChat resolves the single chat for an unordered pair, creating
// it lazily. Lookup-before-create first; the deterministic id makes the
// create itself idempotent when both peers race.
func (s *Service) FindOrCreateChat(ctx context.Context, memberA, memberB string) (*models.Chat, error) {
	memberA, memberB = strings.TrimSpace(memberA), strings.TrimSpace(memberB)
	if memberA == "" || memberB == "" || memberA == memberB {
		return nil, fmt.Errorf("need two distinct participants: %w", apperr.ErrValidation)
	}
	want := []string{memberA, memberB}

	// 1. Query by overlap, filter client-side for exact set equality.
	candidates, err := s.repo.FindByMemberOverlap(ctx, memberA, models.ChatSingle)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if sameMembers(c.Members, want) {
			return c, nil
		}
	}

	// 2. Create with the id both sides derive; a losing racer re-fetches.
	c := &models.Chat{
		ID:      SingleChatID(memberA, memberB),
		Kind:    models.ChatSingle,
		Members: want,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		if existing, getErr := s.repo.GetByID(ctx, c.ID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}

	s.producer.Publish(ctx, events.EventChatCreated, c.ID, map[string]any{
		"chat_id": c.ID, "kind": c.Kind, "members": c.Members,
	})
	s.notifyMembers(ctx, c.Members)
	return c, nil
}

// CreateGroupChat creates a group; groups are never deduplicated.
func (s *Service) CreateGroupChat(ctx context.Context, ownerID, name string, memberIDs []string) (*models.Chat, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("owner and name required: %w", apperr.ErrValidation)
	}
	members := []string{ownerID}
	for _, m := range memberIDs {
		if m != "" && m != ownerID {
			members = append(members, m)
		}
	}
	if len(members) < 2 {
		return nil, fmt.Errorf("a group needs at least two members: %w", apperr.ErrValidation)
	}

	c := &models.Chat{
		ID:      uuid.NewString(),
		Kind:    models.ChatGroup,
		Name:    strings.TrimSpace(name),
		OwnerID: ownerID,
		Members: members,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, err
	}
	s.producer.Publish(ctx, events.EventChatCreated, c.ID, map[string]any{
		"chat_id": c.ID, "kind": c.Kind, "members": c.Members,
	})
	s.notifyMembers(ctx, c.Members)
	return c, nil
}

// GetChat resolves a chat for one of its members; non-members are rejected
// before any content is revealed.
func (s *Service) GetChat(ctx context.Context, callerID, id string) (*models.Chat, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.HasMember(callerID) {
		return nil, fmt.Errorf("caller is not a chat member: %w", apperr.ErrAuth)
	}
	return c, nil
}

func (s *Service) ListChats(ctx context.Context, accountID string) ([]*models.Chat, error) {
	return s.repo.ListForMember(ctx, accountID)
}

// ListenChats streams the account's full chat list on every change.
func (s *Service) ListenChats(ctx context.Context, accountID string) *watch.Subscription {
	return s.hub.Subscribe(ctx, watch.TopicChats(accountID), func(ctx context.Context) (interface{}, error) {
		return s.repo.ListForMember(ctx, accountID)
	})
}

func (s *Service) AddMember(ctx context.Context, callerID, chatID, accountID string) error {
	c, err := s.repo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !c.HasMember(callerID) {
		return fmt.Errorf("caller is not a chat member: %w", apperr.ErrAuth)
	}
	if c.Kind != models.ChatGroup {
		return fmt.Errorf("members are fixed on single chats: %w", apperr.ErrValidation)
	}
	if err := s.repo.AddMember(ctx, chatID, accountID); err != nil {
		return err
	}
	s.notifyMembers(ctx, append(c.Members, accountID))
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, callerID, chatID, accountID string) error {
	c, err := s.repo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !c.HasMember(callerID) {
		return fmt.Errorf("caller is not a chat member: %w", apperr.ErrAuth)
	}
	if c.Kind != models.ChatGroup {
		return fmt.Errorf("members are fixed on single chats: %w", apperr.ErrValidation)
	}
	if err := s.repo.RemoveMember(ctx, chatID, accountID); err != nil {
		return err
	}
	s.notifyMembers(ctx, c.Members)
	return nil
}

// DeleteChat cascades over the chat's messages before removing the chat
// document. Only a member may delete. The purge is best-effort: a partial
// message delete does not roll back, the chat delete still proceeds.
func (s *Service) DeleteChat(ctx context.Context, callerID, chatID string) error {
	c, err := s.repo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !c.HasMember(callerID) {
		return fmt.Errorf("caller is not a chat member: %w", apperr.ErrAuth)
	}
	if n, err := s.messages.DeleteForChat(ctx, chatID); err != nil {
		s.logger.Warnw("message cascade incomplete", "chat", chatID, "deleted", n, "err", err)
	}
	if err := s.repo.Delete(ctx, chatID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	s.notifyMembers(ctx, c.Members)
	s.hub.Notify(ctx, watch.TopicMessages(chatID))
	return nil
}

// LastMessageSummary resolves the pair's chat and reads the denormalized
// fields. No chat or no messages yet is an empty result, not an error.
func (s *Service) LastMessageSummary(ctx context.Context, memberA, memberB string) (string, *time.Time, error) {
	c, err := s.repo.GetByID(ctx, SingleChatID(memberA, memberB))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", nil, nil
		}
		return "", nil, err
	}
	return c.LastMessageContent, c.LastMessageAt, nil
}

func (s *Service) notifyMembers(ctx context.Context, members []string) {
	for _, m := range members {
		s.hub.Notify(ctx, watch.TopicChats(m))
	}
}
