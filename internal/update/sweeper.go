package update

import (
	"context"
	"time"

	"github.com/fathima-sithara/chat-backend/internal/watch"
)

// Sweeper is the server-side scheduled expiry job. It queries the whole
// collection, not a local cache, so updates nobody is subscribed to still
// get cleaned up. Redundant with the read-path reap on purpose.
type Sweeper struct {
	svc      *Service
	interval time.Duration
}

func NewSweeper(svc *Service, interval time.Duration) *Sweeper {
	return &Sweeper{svc: svc, interval: interval}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.svc.reapExpired(ctx, s.svc.now()); n > 0 {
				s.svc.logger.Infow("expired updates swept", "count", n)
				s.svc.hub.Notify(ctx, watch.TopicUpdates)
			}
		}
	}
}
