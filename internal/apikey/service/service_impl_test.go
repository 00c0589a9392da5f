package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/smallbiznis/possaas/internal/apikey/domain"
	"github.com/smallbiznis/possaas/internal/apikey/repository"
	"github.com/smallbiznis/possaas/internal/clock"
	"github.com/smallbiznis/possaas/internal/migration"
	"github.com/smallbiznis/possaas/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (apikeydomain.Service, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.MigrateCentral(conn))

	node, err := snowflake.NewNode(9)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC))

	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	}), fake
}

func TestCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t)

	secret, err := svc.Create(ctx, apikeydomain.CreateRequest{
		Name:   " ops ",
		Scopes: []string{"tenants:write", " TENANTS:WRITE ", "imports:write"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(secret.APIKey, apiKeyPrefix))
	assert.True(t, strings.HasPrefix(secret.KeyID, "key_"))

	fake.Advance(time.Minute)
	key, err := svc.Authenticate(ctx, secret.APIKey)
	require.NoError(t, err)
	assert.Equal(t, secret.KeyID, key.KeyID)
	assert.True(t, key.Allows(apikeydomain.ScopeImportsWrite))
	assert.False(t, key.Allows(apikeydomain.ScopeTenantsRead))

	keys, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "ops", keys[0].Name)
	assert.Equal(t, []string{"tenants:write", "imports:write"}, keys[0].Scopes)
	require.NotNil(t, keys[0].LastUsedAt)
	assert.True(t, keys[0].LastUsedAt.Equal(fake.Now()))
}

func TestAuthenticateRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	secret, err := svc.Create(ctx, apikeydomain.CreateRequest{Name: "ops", Scopes: []string{"*"}})
	require.NoError(t, err)

	for _, raw := range []string{
		"",
		"not-a-key",
		apiKeyPrefix + "NOPE_deadbeef",
		secret.APIKey + "00",
	} {
		_, err := svc.Authenticate(ctx, raw)
		assert.ErrorIs(t, err, apikeydomain.ErrUnauthorized, raw)
	}
}

func TestCreateValidates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Create(ctx, apikeydomain.CreateRequest{Name: " ", Scopes: []string{"*"}})
	assert.ErrorIs(t, err, apikeydomain.ErrInvalidName)

	_, err = svc.Create(ctx, apikeydomain.CreateRequest{Name: "ops"})
	assert.ErrorIs(t, err, apikeydomain.ErrInvalidScope)

	_, err = svc.Create(ctx, apikeydomain.CreateRequest{Name: "ops", Scopes: []string{"billing:write"}})
	assert.ErrorIs(t, err, apikeydomain.ErrInvalidScope)
}

func TestExpiryRotationAndRevoke(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t)

	short, err := svc.Create(ctx, apikeydomain.CreateRequest{Name: "short", Scopes: []string{"*"}, ExpiresIn: time.Hour})
	require.NoError(t, err)
	fake.Advance(time.Hour)
	_, err = svc.Authenticate(ctx, short.APIKey)
	assert.ErrorIs(t, err, apikeydomain.ErrUnauthorized)

	old, err := svc.Create(ctx, apikeydomain.CreateRequest{Name: "ops", Scopes: []string{"tenants:read"}})
	require.NoError(t, err)
	next, err := svc.Rotate(ctx, old.KeyID)
	require.NoError(t, err)
	assert.NotEqual(t, old.KeyID, next.KeyID)

	_, err = svc.Authenticate(ctx, old.APIKey)
	require.NoError(t, err, "old key works during the grace period")
	fake.Advance(apiKeyRotationGracePeriod)
	_, err = svc.Authenticate(ctx, old.APIKey)
	assert.ErrorIs(t, err, apikeydomain.ErrUnauthorized)

	rotated, err := svc.Authenticate(ctx, next.APIKey)
	require.NoError(t, err)
	assert.True(t, rotated.Allows(apikeydomain.ScopeTenantsRead))
	require.NotNil(t, rotated.RotatedFromKeyID)
	assert.Equal(t, old.KeyID, *rotated.RotatedFromKeyID)

	require.NoError(t, svc.Revoke(ctx, next.KeyID))
	_, err = svc.Authenticate(ctx, next.APIKey)
	assert.ErrorIs(t, err, apikeydomain.ErrUnauthorized)

	assert.ErrorIs(t, svc.Revoke(ctx, "key_MISSING"), apikeydomain.ErrNotFound)
	_, err = svc.Rotate(ctx, next.KeyID)
	assert.ErrorIs(t, err, apikeydomain.ErrNotFound)
}
