package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
)

// BlobStore is the object-storage surface the pipelines depend on. Paths are
// derived from document ids so retried uploads land on the same key.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

type S3Store struct {
	client        *s3.Client
	uploader      *manager.Uploader
	bucket        string
	region        string
	publicRead    bool
	uploadTimeout time.Duration
	breaker       *gobreaker.CircuitBreaker
	logger        *zap.SugaredLogger
}

func NewS3Store(ctx context.Context, region, bucket string, publicRead bool, uploadTimeout time.Duration, logger *zap.SugaredLogger) (*S3Store, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "s3-upload",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &S3Store{
		client:        client,
		uploader:      manager.NewUploader(client),
		bucket:        bucket,
		region:        region,
		publicRead:    publicRead,
		uploadTimeout: uploadTimeout,
		breaker:       cb,
		logger:        logger,
	}, nil
}

// Upload puts the blob and returns its public URL. Timeouts and breaker
// rejections surface as ErrTransient so callers can offer a retry.
func (s *S3Store) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		uctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
		return s.uploader.Upload(uctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
	})
	if err != nil {
		s.logger.Warnw("blob upload failed", "key", key, "err", err)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("upload %s: %w", key, apperr.ErrTransient)
		}
		return "", fmt.Errorf("upload %s: %w: %v", key, apperr.ErrTransient, err)
	}
	return s.URLFor(key), nil
}

// Delete removes a blob. Deleting a missing key is a no-op, which keeps
// expiry cleanup idempotent.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Warnw("blob delete failed", "key", key, "err", err)
		return fmt.Errorf("delete %s: %w: %v", key, apperr.ErrTransient, err)
	}
	return nil
}

func (s *S3Store) URLFor(key string) string {
	if !s.publicRead {
		return ""
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, url.PathEscape(key))
}

// MessageMediaKey derives the blob key for a chat message attachment.
func MessageMediaKey(chatID, messageID string) string {
	return "chats/" + chatID + "/" + messageID
}

// UpdateMediaKey derives the blob key for an ephemeral update's media.
func UpdateMediaKey(authorID, updateID string) string {
	return "updates/" + authorID + "/" + updateID
}
