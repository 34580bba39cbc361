package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vibeocm/vibeocm-backend/internal/logging"
)

// Purger deletes stored artifacts created before cutoff.
type Purger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type Scheduler struct {
	purger   Purger
	maxAge   time.Duration
	schedule string
	cron     *cron.Cron
	now      func() time.Time
}

// NewScheduler validates the six-field cron schedule (seconds first).
func NewScheduler(purger Purger, maxAge time.Duration, schedule string) (*Scheduler, error) {
	if purger == nil {
		return nil, errors.New("retention: purger is required")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention: max age must be positive, got %s", maxAge)
	}

	s := &Scheduler{
		purger:   purger,
		maxAge:   maxAge,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		now:      time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, func() { _, _ = s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("retention: invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the purge job in the background until Stop is called.
func (s *Scheduler) Start() {
	logging.L().Info("retention scheduler started",
		zap.String("schedule", s.schedule),
		zap.Duration("max_age", s.maxAge),
	)
	s.cron.Start()
}

// Stop waits for a running purge to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce purges everything older than the configured max age.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	log := logging.FromContext(ctx)
	cutoff := s.now().Add(-s.maxAge)

	n, err := s.purger.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		log.LogError("retention.purge", err)
		return 0, err
	}
	log.LogInfo("retention.purge", "purged expired artifacts",
		zap.Int64("rows", n),
		zap.Time("cutoff", cutoff),
	)
	return n, nil
}
