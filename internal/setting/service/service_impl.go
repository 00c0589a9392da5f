package service

import (
	"context"
	"time"

	"github.com/smallbiznis/possaas/internal/cache"
	"github.com/smallbiznis/possaas/internal/providers/email"
	"github.com/smallbiznis/possaas/internal/providers/storage"
	"github.com/smallbiznis/possaas/internal/setting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyGeneralSetting = "settings:general"

	// Mail settings carry the SMTP password and API key and are never cached.
	// The key is still deleted on Invalidate to purge entries written before.
	keyMailSetting = "settings:mail"

	// General settings edited in the database show up after at most
	// defaultTTL, or at once after Invalidate (posctl settings flush-cache).
	defaultTTL = 10 * time.Minute
)

type Params struct {
	fx.In

	Repo  domain.Repository
	Cache cache.Cache
	Log   *zap.Logger
}

type Service struct {
	repo  domain.Repository
	cache cache.Cache
	log   *zap.Logger
	ttl   time.Duration
}

func NewService(p Params) domain.Resolver {
	return &Service{
		repo:  p.Repo,
		cache: p.Cache,
		log:   p.Log.Named("setting.service"),
		ttl:   defaultTTL,
	}
}

func (s *Service) GeneralSetting(ctx context.Context) (*domain.GeneralSetting, error) {
	var cached domain.GeneralSetting
	if s.lookup(ctx, keyGeneralSetting, &cached) {
		return &cached, nil
	}

	row, err := s.repo.LatestGeneralSetting(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, keyGeneralSetting, row)
	return row, nil
}

// MailConfig always reads the database.
func (s *Service) MailConfig(ctx context.Context) (email.Config, error) {
	row, err := s.repo.LatestMailSetting(ctx)
	if err != nil {
		return email.Config{}, err
	}

	return email.Config{
		Driver:      row.Driver,
		Host:        row.Host,
		Port:        row.Port,
		Username:    row.Username,
		Password:    row.Password,
		Encryption:  row.Encryption,
		FromAddress: row.FromAddress,
		FromName:    row.FromName,
		APIKey:      row.APIKey,
	}, nil
}

func (s *Service) StorageConfig(ctx context.Context, root string) (storage.Config, error) {
	gs, err := s.GeneralSetting(ctx)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Provider: gs.StorageProvider,
		Root:     root,
	}, nil
}

// Invalidate drops the cached settings so the next read hits the database.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, keyGeneralSetting, keyMailSetting)
}

// lookup treats cache errors as misses so a redis outage falls back to the
// database.
func (s *Service) lookup(ctx context.Context, key string, dest any) bool {
	ok, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.log.Warn("settings cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.log.Warn("settings cache write failed", zap.String("key", key), zap.Error(err))
	}
}
