// Package cleanup runs GC's periodic assignment-table reconciliation:
// soft-delete long-unhealthy assignments, then hard-delete rows past the
// retention window.
package cleanup

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/gc/model"
)

type Config struct {
	Interval         time.Duration
	InactivityWindow time.Duration
	RetentionWindow  time.Duration
}

type Sweeper struct {
	repo   *model.Repository
	cfg    Config
	logger logx.Logger
}

func NewSweeper(repo *model.Repository, cfg Config) *Sweeper {
	return &Sweeper{repo: repo, cfg: cfg, logger: logx.WithContext(context.Background())}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
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
	now := time.Now()

	soft, err := s.repo.SoftDeleteStaleAssignments(ctx, now.Add(-s.cfg.InactivityWindow))
	if err != nil {
		s.logger.Errorf("soft-delete sweep failed: %v", err)
	} else if soft > 0 {
		s.logger.Infof("soft-deleted %d stale assignments", soft)
	}

	hard, err := s.repo.HardDeleteRetiredAssignments(ctx, now.Add(-s.cfg.RetentionWindow))
	if err != nil {
		s.logger.Errorf("hard-delete sweep failed: %v", err)
	} else if hard > 0 {
		s.logger.Infof("hard-deleted %d retired assignments", hard)
	}
}
