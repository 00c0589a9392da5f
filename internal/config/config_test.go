package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "possaas", cfg.AppName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "tenant_", cfg.TenantDBPrefix)
	assert.True(t, cfg.SchedulerEnabled)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 6.0, cfg.RateLimit.ImportsPerMinute)
	assert.True(t, cfg.APIAuthEnabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_TYPE", "mysql")
	t.Setenv("REDIS_ADDR", " localhost:6379 ")
	t.Setenv("SCHEDULER_ENABLED", "off")
	t.Setenv("IMPORT_RATE_LIMIT_ENABLED", "yes")
	t.Setenv("IMPORT_RATE_PER_MINUTE", "0.5")
	t.Setenv("IMPORT_RATE_BURST", "not-a-number")
	t.Setenv("HOSTING_USERNAME", " root ")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "mysql", cfg.DBType)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.False(t, cfg.SchedulerEnabled)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 0.5, cfg.RateLimit.ImportsPerMinute)
	assert.Equal(t, 3, cfg.RateLimit.ImportBurst, "unparseable values fall back to the default")
	assert.Equal(t, "root", cfg.Hosting.Username)
}

func TestValidateProvisioningConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ProvisioningConfig)
		ok     bool
	}{
		{name: "defaults", mutate: func(*ProvisioningConfig) {}, ok: true},
		{name: "empty domain", mutate: func(c *ProvisioningConfig) { c.CentralDomain = " " }},
		{name: "negative trial", mutate: func(c *ProvisioningConfig) { c.DefaultTrialDays = -1 }},
		{name: "zero chunk", mutate: func(c *ProvisioningConfig) { c.ImportChunkSize = 0 }},
		{name: "zero max bytes", mutate: func(c *ProvisioningConfig) { c.ImportMaxBytes = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultProvisioningConfig()
			tc.mutate(&cfg)
			err := validateProvisioningConfig(cfg)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestProvisioningHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "provisioning.yml"), []byte(`provisioning:
  centralDomain: pos.example.com
  wildcardSubdomain: false
  serverType: plesk
  importChunkSize: 100
`), 0o600))
	t.Chdir(dir)

	holder, err := NewProvisioningHolder()
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "pos.example.com", cfg.CentralDomain)
	assert.False(t, cfg.WildcardSubdomain)
	assert.Equal(t, ServerTypePlesk, cfg.ServerType)
	assert.Equal(t, 100, cfg.ImportChunkSize)
	assert.Equal(t, int64(10<<20), cfg.ImportMaxBytes)
}

func TestProvisioningHolderRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "provisioning.yml"), []byte("provisioning:\n  importChunkSize: -1\n"), 0o600))
	t.Chdir(dir)

	_, err := NewProvisioningHolder()
	assert.Error(t, err)
}
