package watch

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// FetchFunc re-runs the query behind a topic and returns the full current
// result set. Subscribers always receive whole snapshots, never deltas;
// consumers diff against their previous snapshot if they need increments.
type FetchFunc func(ctx context.Context) (interface{}, error)

// Subscription is a live snapshot stream for one topic. Cancel detaches the
// listener; C is closed afterwards.
type Subscription struct {
	C      <-chan interface{}
	cancel func()
}

func (s *Subscription) Cancel() { s.cancel() }

type subscriber struct {
	topic string
	kick  chan struct{} // buffered 1, coalesces bursts
	out   chan interface{}
	fetch FetchFunc
	done  chan struct{}
}

// Hub fans document-change notifications out to snapshot subscribers. A
// notification carries only the topic; each subscriber re-queries and pushes
// the full result set. An optional redis pub/sub bridge relays topics across
// instances so a write on one node wakes listeners on every node.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}

	rdb     *redis.Client
	channel string
	logger  *zap.SugaredLogger
}

func NewHub(rdb *redis.Client, channel string, logger *zap.SugaredLogger) *Hub {
	return &Hub{
		subs:    make(map[string]map[*subscriber]struct{}),
		rdb:     rdb,
		channel: channel,
		logger:  logger,
	}
}

// Notify wakes every subscriber of the topic, locally and on peer instances.
func (h *Hub) Notify(ctx context.Context, topic string) {
	h.dispatch(topic)
	if h.rdb != nil {
		if err := h.rdb.Publish(ctx, h.channel, topic).Err(); err != nil {
			h.logger.Warnw("watch publish failed", "topic", topic, "err", err)
		}
	}
}

func (h *Hub) dispatch(topic string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[topic] {
		select {
		case sub.kick <- struct{}{}:
		default:
			// a refresh is already pending; the snapshot it produces
			// will include this change too
		}
	}
}

// Subscribe registers a snapshot stream for topic. The initial snapshot is
// delivered immediately; afterwards one snapshot per coalesced change burst.
func (h *Hub) Subscribe(ctx context.Context, topic string, fetch FetchFunc) *Subscription {
	sub := &subscriber{
		topic: topic,
		kick:  make(chan struct{}, 1),
		out:   make(chan interface{}, 1),
		fetch: fetch,
		done:  make(chan struct{}),
	}
	sub.kick <- struct{}{}

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*subscriber]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	h.mu.Unlock()

	go h.run(ctx, sub)

	var once sync.Once
	return &Subscription{
		C: sub.out,
		cancel: func() {
			once.Do(func() { close(sub.done) })
		},
	}
}

func (h *Hub) run(ctx context.Context, sub *subscriber) {
	defer func() {
		h.mu.Lock()
		delete(h.subs[sub.topic], sub)
		if len(h.subs[sub.topic]) == 0 {
			delete(h.subs, sub.topic)
		}
		h.mu.Unlock()
		close(sub.out)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case <-sub.kick:
			snap, err := sub.fetch(ctx)
			if err != nil {
				h.logger.Warnw("snapshot fetch failed", "topic", sub.topic, "err", err)
				continue
			}
			select {
			case sub.out <- snap:
			case <-ctx.Done():
				return
			case <-sub.done:
				return
			}
		}
	}
}

// Run consumes the cross-instance relay until ctx is cancelled. Subscription
// failures are logged and the loop re-subscribes rather than exiting.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	for {
		pubsub := h.rdb.Subscribe(ctx, h.channel)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					_ = pubsub.Close()
					h.logger.Warn("watch relay closed, re-subscribing")
					goto retry
				}
				h.dispatch(msg.Payload)
			}
		}
	retry:
		// breathe before re-subscribing so a dead redis doesn't spin the loop
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}
