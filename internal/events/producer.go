package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventChatCreated   = "chat.created"
	EventMessageSent   = "message.sent"
	EventUpdatePosted  = "update.posted"
	EventUpdateExpired = "update.expired"
)

type Envelope struct {
	Event   string         `json:"event"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload"`
}

// Producer publishes domain events for downstream consumers (notification
// tier, analytics). Publishing is best-effort after commit: failures are
// logged, never surfaced to the caller.
type Producer struct {
	writer *kafka.Writer
	logger *zap.SugaredLogger
}

func NewProducer(brokers []string, topic string, logger *zap.SugaredLogger) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{writer: w, logger: logger}
}

func (p *Producer) Publish(ctx context.Context, event, key string, payload map[string]any) {
	if p == nil || p.writer == nil {
		return
	}
	b, err := json.Marshal(Envelope{Event: event, At: time.Now().UTC(), Payload: payload})
	if err != nil {
		p.logger.Warnw("event marshal failed", "event", event, "err", err)
		return
	}
	msg := kafka.Message{Key: []byte(key), Value: b, Time: time.Now()}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warnw("event publish failed", "event", event, "err", err)
	}
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
