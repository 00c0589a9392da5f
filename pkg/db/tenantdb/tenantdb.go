// Package tenantdb creates and connects to the per-tenant databases.
package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidTenantID = errors.New("invalid_tenant_id")

var identifierPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Provider gives access to a tenant's own database.
type Provider interface {
	Create(ctx context.Context, tenantID string) error
	Connect(ctx context.Context, tenantID string) (*gorm.DB, error)
}

var Module = fx.Module("tenantdb",
	fx.Provide(NewFromConfig),
)

type Manager struct {
	base    db.Config
	prefix  string
	dir     string
	central *gorm.DB
	log     *zap.Logger

	mu    sync.Mutex
	conns map[string]*gorm.DB
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Central   *gorm.DB
	Log       *zap.Logger
}

func NewFromConfig(p Params) Provider {
	m := NewManager(db.FromAppConfig(p.Config), p.Config.TenantDBPrefix, p.Config.TenantDBDir, p.Central, p.Log)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return m.Close()
		},
	})
	return m
}

func NewManager(base db.Config, prefix, dir string, central *gorm.DB, log *zap.Logger) *Manager {
	return &Manager{
		base:    base,
		prefix:  prefix,
		dir:     dir,
		central: central,
		log:     log.Named("tenantdb"),
		conns:   make(map[string]*gorm.DB),
	}
}

// DatabaseName returns the database (or sqlite file) name for the tenant.
func (m *Manager) DatabaseName(tenantID string) (string, error) {
	name := m.prefix + tenantID
	if tenantID == "" || !identifierPattern.MatchString(name) {
		return "", ErrInvalidTenantID
	}
	if m.base.Type == db.TypeSQLite {
		return filepath.Join(m.dir, name+".db"), nil
	}
	return name, nil
}

// Create makes the tenant database if it does not exist yet.
func (m *Manager) Create(ctx context.Context, tenantID string) error {
	name, err := m.DatabaseName(tenantID)
	if err != nil {
		return err
	}

	switch m.base.Type {
	case db.TypeSQLite:
		return os.MkdirAll(m.dir, 0o755)
	case db.TypeMySQL:
		return m.central.WithContext(ctx).
			Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", name)).
			Error
	case db.TypePostgres:
		var count int64
		if err := m.central.WithContext(ctx).
			Raw("SELECT COUNT(*) FROM pg_database WHERE datname = ?", name).
			Scan(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return m.central.WithContext(ctx).Exec(fmt.Sprintf(`CREATE DATABASE "%s"`, name)).Error
	default:
		return fmt.Errorf("unsupported %s type", m.base.Type)
	}
}

// Connect returns a pooled connection to the tenant database.
func (m *Manager) Connect(ctx context.Context, tenantID string) (*gorm.DB, error) {
	name, err := m.DatabaseName(tenantID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if conn, ok := m.conns[name]; ok {
		return conn.WithContext(ctx), nil
	}

	conn, err := db.Open(m.base.WithName(name), m.log)
	if err != nil {
		return nil, fmt.Errorf("connect tenant database %s: %w", name, err)
	}
	m.conns[name] = conn
	m.log.Debug("tenant database connected", zap.String("database", name))

	return conn.WithContext(ctx), nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, conn := range m.conns {
		sqlDB, err := conn.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(m.conns, name)
	}
	return errors.Join(errs...)
}

// Static serves one database for every tenant. Used by tests and single-tenant
// tooling.
type Static struct {
	DB *gorm.DB
}

func (s Static) Create(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return ErrInvalidTenantID
	}
	return nil
}

func (s Static) Connect(ctx context.Context, tenantID string) (*gorm.DB, error) {
	if tenantID == "" {
		return nil, ErrInvalidTenantID
	}
	return s.DB.WithContext(ctx), nil
}
