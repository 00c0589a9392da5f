package migration

import (
	"testing"

	"github.com/smallbiznis/possaas/internal/authorization"
	retaildomain "github.com/smallbiznis/possaas/internal/retail/domain"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
	"github.com/smallbiznis/possaas/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCentralOnSQLite(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	require.NoError(t, MigrateCentral(conn))
	require.NoError(t, MigrateCentral(conn))

	assert.True(t, conn.Migrator().HasTable(&tenantdomain.Tenant{}))
	assert.True(t, conn.Migrator().HasTable("provisioning_events"))
	assert.True(t, conn.Migrator().HasTable("audit_logs"))
	assert.True(t, conn.Migrator().HasTable("api_keys"))
	assert.True(t, conn.Migrator().HasIndex(&tenantdomain.Domain{}, "ux_domains_domain"))
}

func TestMigrateTenant(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	require.NoError(t, MigrateTenant(conn))
	require.NoError(t, MigrateTenant(conn))

	assert.True(t, conn.Migrator().HasTable(&authorization.RoleHasPermission{}))
	assert.True(t, conn.Migrator().HasTable(&retaildomain.Product{}))
	assert.True(t, conn.Migrator().HasIndex(&retaildomain.State{}, "ux_states_country_code"))
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := embeddedMigrations.ReadDir(migrationsDir)
	require.NoError(t, err)
	// one up and one down file per version
	assert.Len(t, entries, 6)
}
