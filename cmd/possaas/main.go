package main

import (
	"github.com/smallbiznis/possaas/internal/apikey"
	"github.com/smallbiznis/possaas/internal/audit"
	"github.com/smallbiznis/possaas/internal/authorization"
	"github.com/smallbiznis/possaas/internal/cache"
	"github.com/smallbiznis/possaas/internal/clock"
	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/internal/importer"
	"github.com/smallbiznis/possaas/internal/migration"
	"github.com/smallbiznis/possaas/internal/observability"
	"github.com/smallbiznis/possaas/internal/providers"
	"github.com/smallbiznis/possaas/internal/provisioning"
	"github.com/smallbiznis/possaas/internal/ratelimit"
	"github.com/smallbiznis/possaas/internal/receipt"
	"github.com/smallbiznis/possaas/internal/scheduler"
	"github.com/smallbiznis/possaas/internal/seed"
	"github.com/smallbiznis/possaas/internal/server"
	"github.com/smallbiznis/possaas/internal/setting"
	"github.com/smallbiznis/possaas/internal/tenant"
	"github.com/smallbiznis/possaas/pkg/db"
	"github.com/smallbiznis/possaas/pkg/db/tenantdb"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		db.Module,
		tenantdb.Module,
		migration.Module,
		clock.Module,
		cache.Module,
		ratelimit.Module,

		// Functional Domains
		setting.Module,
		tenant.Module,
		authorization.Module,
		audit.Module,
		apikey.Module,
		seed.Module,
		provisioning.Module,
		importer.Module,
		providers.Module,
		receipt.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}
