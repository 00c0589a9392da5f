package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"

	"go.uber.org/zap"
)

const ProviderLocal = "local"

var ErrNotFound = errors.New("storage_object_not_found")

// Storage is a flat object store addressed by slash separated names.
type Storage interface {
	Save(ctx context.Context, name string, content io.Reader) error
	Load(ctx context.Context, name string) (io.ReadCloser, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
}

// Config selects a storage backend rooted at Root.
type Config struct {
	Provider string
	Root     string
}

// New builds the backend named by cfg.Provider. Only local disk is
// available; any other provider logs a warning and falls back to it.
func New(log *zap.Logger, cfg Config) (Storage, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", ProviderLocal, "public":
	default:
		log.Warn("unsupported storage provider, using local disk",
			zap.String("provider", cfg.Provider),
		)
	}
	return NewDiskStorage(log, cfg.Root)
}

// Copy streams srcName from src into dst as dstName. It reports false
// without error when the source object does not exist.
func Copy(ctx context.Context, src Storage, srcName string, dst Storage, dstName string) (bool, error) {
	rc, err := src.Load(ctx, srcName)
	if errors.Is(err, ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer rc.Close()

	if err := dst.Save(ctx, dstName, rc); err != nil {
		return false, err
	}
	return true, nil
}
