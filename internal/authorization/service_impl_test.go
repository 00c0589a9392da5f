package authorization

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/possaas/pkg/db"
	"github.com/smallbiznis/possaas/pkg/db/tenantdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAssignor(t *testing.T) (*gorm.DB, *Assignor) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(Models()...))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	for _, name := range []string{RoleAdmin, RoleStaff} {
		require.NoError(t, conn.Create(&Role{ID: node.Generate(), Name: name, GuardName: GuardWeb, IsActive: true}).Error)
	}
	for _, name := range []string{"products-index", "products-import", "sales-index"} {
		require.NoError(t, conn.Create(&Permission{ID: node.Generate(), Name: name, GuardName: GuardWeb}).Error)
	}

	a, err := New(conn, zap.NewNop())
	require.NoError(t, err)
	return conn, a
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func TestAssignToUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, a := setupAssignor(t)
	userID := snowflake.ID(42)

	perms := []string{"products-index", "products-import", "products-index", "missing-permission"}
	require.NoError(t, a.AssignToUser(ctx, userID, []string{RoleAdmin, "Ghost"}, perms))
	require.NoError(t, a.AssignToUser(ctx, userID, []string{RoleAdmin}, perms))

	assert.Equal(t, int64(1), countRows(t, conn, &ModelHasRole{}))
	assert.Equal(t, int64(2), countRows(t, conn, &ModelHasPermission{}))

	names, err := a.UserPermissions(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"products-import", "products-index"}, names)

	ok, err := a.Can(ctx, userID, "products-import")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Can(ctx, userID, "sales-index")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSyncRolePermissionsNoDuplicatePairs(t *testing.T) {
	ctx := context.Background()
	conn, a := setupAssignor(t)

	pairs := []Pair{
		{Permission: "sales-index", Role: RoleStaff},
		{Permission: "sales-index", Role: RoleStaff},
		{Permission: "products-index", Role: RoleAdmin},
		{Permission: "unknown", Role: RoleAdmin},
	}
	created, err := a.SyncRolePermissions(ctx, pairs)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = a.SyncRolePermissions(ctx, pairs)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, int64(2), countRows(t, conn, &RoleHasPermission{}))

	// Role grants flow to users holding the role.
	userID := snowflake.ID(7)
	require.NoError(t, a.AssignToUser(ctx, userID, []string{RoleStaff}, nil))
	ok, err := a.Can(ctx, userID, "sales-index")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRevokeFromUser(t *testing.T) {
	ctx := context.Background()
	_, a := setupAssignor(t)
	userID := snowflake.ID(9)

	require.NoError(t, a.AssignToUser(ctx, userID, nil, []string{"products-index", "sales-index"}))
	require.NoError(t, a.RevokeFromUser(ctx, userID, []string{"sales-index"}))

	names, err := a.UserPermissions(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"products-index"}, names)

	ok, err := a.Can(ctx, userID, "sales-index")
	require.NoError(t, err)
	assert.False(t, ok)

	// Survives a reload from the policy table.
	require.NoError(t, a.Reload())
	ok, err = a.Can(ctx, userID, "products-index")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAssignRejectsZeroUser(t *testing.T) {
	_, a := setupAssignor(t)
	assert.ErrorIs(t, a.AssignToUser(context.Background(), 0, nil, nil), ErrInvalidUser)
}

func TestRevokeFromRole(t *testing.T) {
	ctx := context.Background()
	_, a := setupAssignor(t)
	userID := snowflake.ID(11)

	_, err := a.SyncRolePermissions(ctx, []Pair{
		{Permission: "products-index", Role: RoleAdmin},
		{Permission: "sales-index", Role: RoleAdmin},
	})
	require.NoError(t, err)
	require.NoError(t, a.AssignToUser(ctx, userID, []string{RoleAdmin}, nil))

	require.NoError(t, a.RevokeFromRole(ctx, RoleAdmin, []string{"sales-index"}))

	ok, err := a.Can(ctx, userID, "sales-index")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = a.Can(ctx, userID, "products-index")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanSeesGrantsFromOtherRegistry(t *testing.T) {
	ctx := context.Background()
	conn, _ := setupAssignor(t)
	provider := tenantdb.Static{DB: conn}
	userID := snowflake.ID(42)

	replicaA, err := NewRegistry(provider, zap.NewNop()).For(ctx, "acme")
	require.NoError(t, err)
	replicaB, err := NewRegistry(provider, zap.NewNop()).For(ctx, "acme")
	require.NoError(t, err)

	ok, err := replicaA.Can(ctx, userID, "products-import")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, replicaB.AssignToUser(ctx, userID, nil, []string{"products-import"}))
	ok, err = replicaA.Can(ctx, userID, "products-import")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, replicaB.RevokeFromUser(ctx, userID, []string{"products-import"}))
	ok, err = replicaA.Can(ctx, userID, "products-import")
	require.NoError(t, err)
	assert.False(t, ok)
}
