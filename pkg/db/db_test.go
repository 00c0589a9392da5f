package db

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/smallbiznis/possaas/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type uniqueRow struct {
	ID   int64  `gorm:"primaryKey"`
	Code string `gorm:"uniqueIndex"`
}

func TestIsDuplicateKeyErr(t *testing.T) {
	conn, err := NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&uniqueRow{}))

	require.NoError(t, conn.Create(&uniqueRow{ID: 1, Code: "A"}).Error)
	err = conn.Create(&uniqueRow{ID: 2, Code: "A"}).Error
	require.Error(t, err)
	assert.True(t, IsDuplicateKeyErr(err))

	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsDuplicateKeyErr(errors.New(`ERROR: duplicate key value violates unique constraint "tenants_pkey" (SQLSTATE 23505)`)))
	assert.True(t, IsDuplicateKeyErr(errors.New("Error 1062 (23000): Duplicate entry 'acme' for key 'PRIMARY'")))
	assert.False(t, IsDuplicateKeyErr(errors.New("connection refused")))
	assert.False(t, IsDuplicateKeyErr(nil))
}

func TestIsNotFound(t *testing.T) {
	conn, err := NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&uniqueRow{}))

	var row uniqueRow
	err = conn.Where("code = ?", "missing").First(&row).Error
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(nil))
}

func TestNewTestIsolatesDatabases(t *testing.T) {
	a, err := NewTest()
	require.NoError(t, err)
	b, err := NewTest()
	require.NoError(t, err)
	require.NoError(t, a.AutoMigrate(&uniqueRow{}))
	require.NoError(t, b.AutoMigrate(&uniqueRow{}))

	require.NoError(t, a.Create(&uniqueRow{ID: 1, Code: "A"}).Error)

	var count int64
	require.NoError(t, b.Model(&uniqueRow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDialect(t *testing.T) {
	for _, typ := range []string{TypePostgres, TypeMySQL, TypeSQLite} {
		d, err := Dialect(Config{Type: typ, Name: "possaas"})
		require.NoError(t, err, typ)
		assert.Equal(t, typ, d.Name())
	}

	_, err := Dialect(Config{Type: "oracle"})
	assert.EqualError(t, err, "unsupported oracle type")
}

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.Config{
		DBType:            TypePostgres,
		DBHost:            "db",
		DBPort:            "5432",
		DBName:            "central",
		DBConnMaxLifetime: 300,
		DBConnMaxIdleTime: 60,
	})

	assert.Equal(t, "central", cfg.Name)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, time.Minute, cfg.ConnMaxIdleTime)

	other := cfg.WithName("tenant_acme")
	assert.Equal(t, "tenant_acme", other.Name)
	assert.Equal(t, "central", cfg.Name)
}
