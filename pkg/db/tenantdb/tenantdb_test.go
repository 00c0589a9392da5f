package tenantdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/smallbiznis/possaas/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDatabaseName(t *testing.T) {
	m := NewManager(db.Config{Type: db.TypePostgres}, "tenant_", "", nil, zap.NewNop())

	name, err := m.DatabaseName("acme")
	require.NoError(t, err)
	assert.Equal(t, "tenant_acme", name)

	for _, bad := range []string{"", "Acme", "acme;drop", "a b", `acme"`} {
		_, err := m.DatabaseName(bad)
		assert.ErrorIs(t, err, ErrInvalidTenantID, bad)
	}
}

func TestDatabaseNameSQLiteUsesDirectory(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(db.Config{Type: db.TypeSQLite}, "tenant_", dir, nil, zap.NewNop())

	name, err := m.DatabaseName("acme")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tenant_acme.db"), name)

	require.NoError(t, m.Create(context.Background(), "acme"))
	assert.DirExists(t, dir)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	m := NewManager(db.Config{Type: "oracle"}, "tenant_", "", nil, zap.NewNop())
	assert.EqualError(t, m.Create(context.Background(), "acme"), "unsupported oracle type")
}

func TestStaticProvider(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	p := Static{DB: conn}

	require.NoError(t, p.Create(context.Background(), "acme"))
	got, err := p.Connect(context.Background(), "acme")
	require.NoError(t, err)
	assert.NotNil(t, got)

	assert.ErrorIs(t, p.Create(context.Background(), ""), ErrInvalidTenantID)
	_, err = p.Connect(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidTenantID)
}
