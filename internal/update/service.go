package update

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/events"
	"github.com/fathima-sithara/chat-backend/internal/models"
	"github.com/fathima-sithara/chat-backend/internal/storage"
	"github.com/fathima-sithara/chat-backend/internal/watch"
)

type PostInput struct {
	AuthorID    string
	Content     string
	MediaType   models.UpdateMediaType
	Media       []byte
	ContentType string
}

// Service is the ephemeral update store: 24h-lived posts, fixed expiry,
// opportunistic cleanup on the read path plus a periodic sweep.
type Service struct {
	repo     Repository
	blobs    storage.BlobStore
	producer *events.Producer
	hub      *watch.Hub
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewService(repo Repository, blobs storage.BlobStore, producer *events.Producer, hub *watch.Hub, logger *zap.SugaredLogger) *Service {
	return &Service{repo: repo, blobs: blobs, producer: producer, hub: hub, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// PostUpdate uploads media first, then writes the document. Unlike the
// message pipeline this path compensates: a failed document write deletes
// the blob it just uploaded.
func (s *Service) PostUpdate(ctx context.Context, in PostInput) (*models.Update, error) {
	if in.MediaType == models.UpdateText && strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("empty update: %w", apperr.ErrValidation)
	}
	if in.MediaType != models.UpdateText && len(in.Media) == 0 {
		return nil, fmt.Errorf("media required for %q updates: %w", in.MediaType, apperr.ErrValidation)
	}

	id := uuid.NewString()
	var mediaURL, mediaKey string
	if in.MediaType != models.UpdateText {
		mediaKey = storage.UpdateMediaKey(in.AuthorID, id)
		url, err := s.blobs.Upload(ctx, mediaKey, in.ContentType, in.Media)
		if err != nil {
			return nil, err
		}
		mediaURL = url
	}

	now := s.now()
	u := &models.Update{
		ID:        id,
		AuthorID:  in.AuthorID,
		Content:   in.Content,
		MediaType: in.MediaType,
		MediaURL:  mediaURL,
		MediaKey:  mediaKey,
		CreatedAt: now,
		ExpiresAt: now.Add(models.UpdateTTL),
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		if mediaKey != "" {
			if derr := s.blobs.Delete(ctx, mediaKey); derr != nil {
				s.logger.Warnw("compensating media delete failed", "key", mediaKey, "err", derr)
			}
		}
		return nil, err
	}

	s.producer.Publish(ctx, events.EventUpdatePosted, u.AuthorID, map[string]any{
		"update_id": u.ID, "author_id": u.AuthorID, "expires_at": u.ExpiresAt,
	})
	s.hub.Notify(ctx, watch.TopicUpdates)
	return u, nil
}

// SubscribeActiveUpdates streams all non-expired updates. Anything observed
// past expiry at delivery time is reaped as a side effect and never reaches
// the subscriber.
func (s *Service) SubscribeActiveUpdates(ctx context.Context) *watch.Subscription {
	return s.hub.Subscribe(ctx, watch.TopicUpdates, func(ctx context.Context) (interface{}, error) {
		return s.ListActive(ctx)
	})
}

// SubscribeAuthorUpdates is the author-filtered variant.
func (s *Service) SubscribeAuthorUpdates(ctx context.Context, authorID string) *watch.Subscription {
	return s.hub.Subscribe(ctx, watch.TopicUpdates, func(ctx context.Context) (interface{}, error) {
		return s.ListActiveByAuthor(ctx, authorID)
	})
}

func (s *Service) ListActive(ctx context.Context) ([]*models.Update, error) {
	now := s.now()
	s.reapExpired(ctx, now)
	out, err := s.repo.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}
	return filterActive(out, now), nil
}

func (s *Service) ListActiveByAuthor(ctx context.Context, authorID string) ([]*models.Update, error) {
	now := s.now()
	s.reapExpired(ctx, now)
	out, err := s.repo.ListActiveByAuthor(ctx, authorID, now)
	if err != nil {
		return nil, err
	}
	return filterActive(out, now), nil
}

// filterActive drops anything that crossed its expiry between query and
// delivery; the reaper already queued it for deletion.
func filterActive(in []*models.Update, now time.Time) []*models.Update {
	out := in[:0]
	for _, u := range in {
		if !u.Expired(now) {
			out = append(out, u)
		}
	}
	return out
}

// DeleteUpdate is the author-initiated removal: media first, then document.
// Only the author may delete; re-deleting an already-deleted id is a no-op.
func (s *Service) DeleteUpdate(ctx context.Context, callerID, id string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == apperr.ErrNotFound {
			return nil
		}
		return err
	}
	if u.AuthorID != callerID {
		return fmt.Errorf("update belongs to another author: %w", apperr.ErrAuth)
	}
	s.deleteWithMedia(ctx, u)
	s.hub.Notify(ctx, watch.TopicUpdates)
	return nil
}

// reapExpired deletes whatever is already past expiry. Best-effort and
// idempotent; failures are logged and retried by the next read or sweep.
func (s *Service) reapExpired(ctx context.Context, now time.Time) int {
	expired, err := s.repo.ListExpired(ctx, now)
	if err != nil {
		s.logger.Warnw("expired scan failed", "err", err)
		return 0
	}
	for _, u := range expired {
		s.deleteWithMedia(ctx, u)
		s.producer.Publish(ctx, events.EventUpdateExpired, u.AuthorID, map[string]any{
			"update_id": u.ID, "author_id": u.AuthorID,
		})
	}
	return len(expired)
}

func (s *Service) deleteWithMedia(ctx context.Context, u *models.Update) {
	if u.MediaKey != "" {
		if err := s.blobs.Delete(ctx, u.MediaKey); err != nil {
			s.logger.Warnw("update media delete failed", "update", u.ID, "err", err)
		}
	}
	if err := s.repo.Delete(ctx, u.ID); err != nil {
		s.logger.Warnw("update delete failed", "update", u.ID, "err", err)
	}
}
