package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCopyBetweenRoots(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	src, err := New(log, Config{Provider: "local", Root: t.TempDir()})
	require.NoError(t, err)
	dst, err := New(log, Config{Provider: "s3", Root: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, src.Save(ctx, "logo/site.png", strings.NewReader("png")))

	copied, err := Copy(ctx, src, "logo/site.png", dst, "acme/logo/site.png")
	require.NoError(t, err)
	assert.True(t, copied)

	rc, err := dst.Load(ctx, "acme/logo/site.png")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png", string(body))
}

func TestCopyMissingSourceIsSkipped(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	src, err := NewDiskStorage(log, t.TempDir())
	require.NoError(t, err)
	dst, err := NewDiskStorage(log, t.TempDir())
	require.NoError(t, err)

	copied, err := Copy(ctx, src, "logo/missing.png", dst, "logo/missing.png")
	require.NoError(t, err)
	assert.False(t, copied)

	ok, err := dst.Exists(ctx, "logo/missing.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiskStorageStaysUnderRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewDiskStorage(zap.NewNop(), root)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "../escape.txt", strings.NewReader("x")))
	ok, err := s.Exists(ctx, "escape.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "escape.txt"))
	require.NoError(t, s.Delete(ctx, "escape.txt"))
}
