package scheduler

import (
	"time"

	"github.com/smallbiznis/possaas/internal/config"
)

// Config controls scheduler intervals and batch sizes.
type Config struct {
	Enabled     bool
	RunInterval time.Duration
	// OutboxBatchSize caps the pending provisioning events retried per run.
	OutboxBatchSize int
	JobTimeout      time.Duration
	DisabledJobs    []string
}

func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		RunInterval:     time.Minute,
		OutboxBatchSize: 50,
		JobTimeout:      2 * time.Minute,
	}
}

func ProvideConfig(cfg config.Config) Config {
	c := DefaultConfig()
	c.Enabled = cfg.SchedulerEnabled
	if cfg.SchedulerIntervalSeconds > 0 {
		c.RunInterval = time.Duration(cfg.SchedulerIntervalSeconds) * time.Second
	}
	return c
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.OutboxBatchSize <= 0 {
		c.OutboxBatchSize = defaults.OutboxBatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
