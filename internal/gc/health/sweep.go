// Package health runs GC's periodic stale-unhealthy sweep.
package health

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/gc/model"
)

type Sweeper struct {
	repo      *model.Repository
	threshold time.Duration
	interval  time.Duration
	logger    logx.Logger
}

func NewSweeper(repo *model.Repository, threshold, interval time.Duration) *Sweeper {
	return &Sweeper{repo: repo, threshold: threshold, interval: interval, logger: logx.WithContext(context.Background())}
}

// Run ticks until ctx is cancelled, marking any controller whose
// last_heartbeat_at is older than threshold unhealthy (draining preserved).
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	n, err := s.repo.MarkStaleControllersUnhealthy(ctx, time.Now().Add(-s.threshold))
	if err != nil {
		s.logger.Errorf("stale-unhealthy sweep failed: %v", err)
		return
	}
	if n > 0 {
		s.logger.Infof("marked %d controllers unhealthy", n)
	}
}
