package message

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/chat"
	"github.com/fathima-sithara/chat-backend/internal/events"
	"github.com/fathima-sithara/chat-backend/internal/models"
	"github.com/fathima-sithara/chat-backend/internal/storage"
	"github.com/fathima-sithara/chat-backend/internal/watch"
)

// Batcher commits a group of document writes atomically; backed by a mongo
// transaction in production and a pass-through in tests.
type Batcher interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// BatcherFunc adapts a function to the Batcher interface.
type BatcherFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (b BatcherFunc) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return b(ctx, fn)
}

type SendTextInput struct {
	ChatID     string
	SenderID   string
	ReceiverID string
	Content    string
	ReplyToID  string
	Forwarded  bool
}

type SendMediaInput struct {
	ChatID        string
	SenderID      string
	ReceiverID    string
	Type          models.MessageType
	Caption       string
	Media         []byte
	ContentType   string
	VoiceDuration float64
}

// Service is the message pipeline: validation, participant checks, media
// upload ordering, the atomic message+summary commit and seen/tombstone
// transitions.
type Service struct {
	repo     Repository
	chats    chat.Repository
	blobs    storage.BlobStore
	batch    Batcher
	producer *events.Producer
	hub      *watch.Hub
	logger   *zap.SugaredLogger
}

func NewService(repo Repository, chats chat.Repository, blobs storage.BlobStore, batch Batcher, producer *events.Producer, hub *watch.Hub, logger *zap.SugaredLogger) *Service {
	return &Service{repo: repo, chats: chats, blobs: blobs, batch: batch, producer: producer, hub: hub, logger: logger}
}

// checkParticipants guards against stale chat references: both sender and
// receiver must belong to the chat the message targets.
func (s *Service) checkParticipants(ctx context.Context, chatID, senderID, receiverID string) (*models.Chat, error) {
	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.HasMember(senderID) || !c.HasMember(receiverID) {
		return nil, apperr.ErrInvalidParticipants
	}
	return c, nil
}

// SendText writes the message and the chat's denormalized summary in one
// batch: both persist or neither does, so the summary never references a
// message id that failed to commit.
func (s *Service) SendText(ctx context.Context, in SendTextInput) (*models.Message, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("empty message: %w", apperr.ErrValidation)
	}
	c, err := s.checkParticipants(ctx, in.ChatID, in.SenderID, in.ReceiverID)
	if err != nil {
		return nil, err
	}

	m := &models.Message{
		ID:         uuid.NewString(),
		ChatID:     in.ChatID,
		Type:       models.MessageText,
		Content:    in.Content,
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		SentAt:     time.Now().UTC(),
		ReplyToID:  in.ReplyToID,
		Forwarded:  in.Forwarded,
	}
	err = s.batch.Run(ctx, func(ctx context.Context) error {
		if err := s.repo.Insert(ctx, m); err != nil {
			return err
		}
		return s.chats.SetLastMessage(ctx, in.ChatID, m)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, c, m)
	return m, nil
}

// SendMedia uploads the blob before any document write: an upload failure
// leaves no message behind, while a write failure after the upload orphans
// the blob (logged and accepted; the update store is the path that
// compensates, not this one). The key is derived from chat and message ids
// so a retried upload is idempotent.
func (s *Service) SendMedia(ctx context.Context, in SendMediaInput) (*models.Message, error) {
	switch in.Type {
	case models.MessageImage, models.MessageVideo, models.MessageVoice:
	default:
		return nil, fmt.Errorf("type %q carries no media: %w", in.Type, apperr.ErrValidation)
	}
	if len(in.Media) == 0 {
		return nil, fmt.Errorf("empty media payload: %w", apperr.ErrValidation)
	}
	c, err := s.checkParticipants(ctx, in.ChatID, in.SenderID, in.ReceiverID)
	if err != nil {
		return nil, err
	}

	messageID := uuid.NewString()
	key := storage.MessageMediaKey(in.ChatID, messageID)
	url, err := s.blobs.Upload(ctx, key, in.ContentType, in.Media)
	if err != nil {
		return nil, err
	}
	if in.Type == models.MessageImage {
		if thumb, terr := storage.Thumbnail(in.Media); terr == nil {
			_, _ = s.blobs.Upload(ctx, key+"_thumb.jpg", "image/jpeg", thumb)
		}
	}

	m := &models.Message{
		ID:            messageID,
		ChatID:        in.ChatID,
		Type:          in.Type,
		Content:       in.Caption,
		SenderID:      in.SenderID,
		ReceiverID:    in.ReceiverID,
		SentAt:        time.Now().UTC(),
		MediaURL:      url,
		VoiceDuration: in.VoiceDuration,
	}
	err = s.batch.Run(ctx, func(ctx context.Context) error {
		if err := s.repo.Insert(ctx, m); err != nil {
			return err
		}
		return s.chats.SetLastMessage(ctx, in.ChatID, m)
	})
	if err != nil {
		s.logger.Warnw("message write failed after upload, blob orphaned", "key", key, "err", err)
		return nil, err
	}

	s.afterCommit(ctx, c, m)
	return m, nil
}

// MarkSeen flips the seen flag; calling it again is a no-op. Only the
// recipient's observation counts, the sender cannot mark their own message.
func (s *Service) MarkSeen(ctx context.Context, callerID, messageID string) error {
	m, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if m.ReceiverID != callerID {
		return fmt.Errorf("only the recipient marks a message seen: %w", apperr.ErrAuth)
	}
	if err := s.repo.MarkSeen(ctx, messageID); err != nil {
		return err
	}
	s.hub.Notify(ctx, watch.TopicMessages(m.ChatID))
	return nil
}

// DeleteMessage tombstones: the document stays, content becomes the marker.
// Only the sender may delete.
func (s *Service) DeleteMessage(ctx context.Context, callerID, messageID string) error {
	m, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if m.SenderID != callerID {
		return fmt.Errorf("message belongs to another sender: %w", apperr.ErrAuth)
	}
	if err := s.repo.Tombstone(ctx, messageID); err != nil {
		return err
	}
	s.hub.Notify(ctx, watch.TopicMessages(m.ChatID))
	return nil
}

// SubscribeMessages streams the full conversation, sent_at ascending, on
// every change.
func (s *Service) SubscribeMessages(ctx context.Context, chatID string) *watch.Subscription {
	return s.hub.Subscribe(ctx, watch.TopicMessages(chatID), func(ctx context.Context) (interface{}, error) {
		return s.repo.ListByChat(ctx, chatID)
	})
}

// ListMessages reads a conversation for one of its members.
func (s *Service) ListMessages(ctx context.Context, callerID, chatID string) ([]*models.Message, error) {
	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.HasMember(callerID) {
		return nil, fmt.Errorf("caller is not a chat member: %w", apperr.ErrAuth)
	}
	return s.repo.ListByChat(ctx, chatID)
}

func (s *Service) afterCommit(ctx context.Context, c *models.Chat, m *models.Message) {
	s.producer.Publish(ctx, events.EventMessageSent, m.ChatID, map[string]any{
		"message_id": m.ID,
		"chat_id":    m.ChatID,
		"sender_id":  m.SenderID,
		"type":       m.Type,
		"sent_at":    m.SentAt,
	})
	s.hub.Notify(ctx, watch.TopicMessages(m.ChatID))
	for _, member := range c.Members {
		s.hub.Notify(ctx, watch.TopicChats(member))
	}
}
