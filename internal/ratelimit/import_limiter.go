package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/possaas/internal/config"
	"go.uber.org/zap"
)

const keyImportTenant = "import:tenant:%s"

var ErrRateLimited = errors.New("rate_limited")

// ImportLimiter throttles spreadsheet uploads per tenant. A nil limiter
// allows everything.
type ImportLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

// NewImportLimiter returns nil when rate limiting is off or redis is not
// configured.
func NewImportLimiter(client *redis.Client, cfg config.Config, log *zap.Logger) (*ImportLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if client == nil {
		log.Warn("import rate limit enabled without redis, uploads are not throttled")
		return nil, nil
	}
	if limitCfg.ImportsPerMinute <= 0 || limitCfg.ImportBurst <= 0 {
		return nil, errors.New("import rate limit must be positive")
	}
	return &ImportLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.ImportsPerMinute / 60,
		burst:  limitCfg.ImportBurst,
	}, nil
}

func (l *ImportLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *ImportLimiter) AllowTenant(ctx context.Context, tenantID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyImportTenant, strings.ToLower(strings.TrimSpace(tenantID)))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
