package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	apikeydomain "github.com/smallbiznis/possaas/internal/apikey/domain"
	auditdomain "github.com/smallbiznis/possaas/internal/audit/domain"
	"github.com/smallbiznis/possaas/internal/authorization"
	provisioningevent "github.com/smallbiznis/possaas/internal/provisioning/event"
	retaildomain "github.com/smallbiznis/possaas/internal/retail/domain"
	settingdomain "github.com/smallbiznis/possaas/internal/setting/domain"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// CentralModels lists the central schema for dialects that are migrated
// with AutoMigrate.
func CentralModels() []any {
	return []any{
		&tenantdomain.Package{},
		&tenantdomain.Tenant{},
		&tenantdomain.Domain{},
		&tenantdomain.TenantPayment{},
		&settingdomain.GeneralSetting{},
		&settingdomain.MailSetting{},
		&provisioningevent.ProvisioningEvent{},
		&auditdomain.AuditLog{},
		&apikeydomain.APIKey{},
	}
}

// MigrateCentral applies the versioned SQL migrations on postgres and falls
// back to AutoMigrate for mysql and sqlite.
func MigrateCentral(conn *gorm.DB) error {
	if conn.Dialector.Name() != "postgres" {
		return conn.AutoMigrate(CentralModels()...)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

// MigrateTenant creates the permission and retail tables in a tenant
// database. Existing tables are only extended.
func MigrateTenant(conn *gorm.DB) error {
	models := append(authorization.Models(), retaildomain.Models()...)
	if err := conn.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrate tenant schema: %w", err)
	}
	return nil
}

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}
