package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DiskStorage implements Storage on the local filesystem.
type DiskStorage struct {
	logger  *zap.Logger
	baseDir string
}

func NewDiskStorage(logger *zap.Logger, baseDir string) (*DiskStorage, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("storage base dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}

	return &DiskStorage{
		logger:  logger.Named("storage.disk"),
		baseDir: baseDir,
	}, nil
}

func (s *DiskStorage) path(name string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(name))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(s.baseDir, clean), nil
}

func (s *DiskStorage) Save(ctx context.Context, name string, content io.Reader) error {
	filePath, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		return err
	}
	s.logger.Debug("object saved", zap.String("name", name))
	return nil
}

func (s *DiskStorage) Load(ctx context.Context, name string) (io.ReadCloser, error) {
	filePath, err := s.path(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *DiskStorage) Exists(ctx context.Context, name string) (bool, error) {
	filePath, err := s.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *DiskStorage) Delete(ctx context.Context, name string) error {
	filePath, err := s.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
