package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/smallbiznis/possaas/internal/clock"
	"github.com/smallbiznis/possaas/internal/observability/metrics"
	provisioningdomain "github.com/smallbiznis/possaas/internal/provisioning/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobOutboxRetry = "outbox_retry"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Provisioning provisioningdomain.Service
	Log          *zap.Logger
	Clock        clock.Clock
	Metrics      *metrics.Metrics `optional:"true"`
	Config       Config           `optional:"true"`
}

// Scheduler runs background jobs on a fixed interval.
type Scheduler struct {
	provisioning provisioningdomain.Service
	log          *zap.Logger
	cfg          Config
	clock        clock.Clock
	metrics      *metrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.Provisioning == nil || p.Log == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		provisioning: p.Provisioning,
		log:          p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:          p.Config.withDefaults(),
		clock:        p.Clock,
		metrics:      p.Metrics,
	}, nil
}

// runJob bounds fn by timeout. A deadline is logged and counted but not
// returned.
func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	log := s.log.With(zap.String("job", name))
	err := fn(ctx)
	elapsed := s.clock.Now().Sub(start)
	if err == nil {
		s.metrics.RecordJob(name, "success")
		log.Debug("job finished", zap.Duration("duration", elapsed))
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.metrics.RecordJob(name, "timeout")
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	s.metrics.RecordJob(name, "error")
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{JobOutboxRetry, s.OutboxRetryJob},
	}

	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.Name, s.cfg.JobTimeout, job.Run))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	return !slices.Contains(s.cfg.DisabledJobs, jobName)
}

// OutboxRetryJob replays subdomain registrations that failed during
// provisioning.
func (s *Scheduler) OutboxRetryJob(ctx context.Context) error {
	result, err := s.provisioning.RetryPending(ctx, s.cfg.OutboxBatchSize)
	if err != nil {
		return err
	}
	if result.Processed > 0 {
		s.log.Info("outbox retried",
			zap.Int("processed", result.Processed),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed),
		)
	}
	return nil
}
