package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	auditdomain "github.com/smallbiznis/possaas/internal/audit/domain"
	auditrepo "github.com/smallbiznis/possaas/internal/audit/repository"
	auditservice "github.com/smallbiznis/possaas/internal/audit/service"
	"github.com/smallbiznis/possaas/internal/authorization"
	"github.com/smallbiznis/possaas/internal/clock"
	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/internal/migration"
	"github.com/smallbiznis/possaas/internal/observability/metrics"
	retaildomain "github.com/smallbiznis/possaas/internal/retail/domain"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
	tenantrepo "github.com/smallbiznis/possaas/internal/tenant/repository"
	"github.com/smallbiznis/possaas/pkg/db"
	"github.com/smallbiznis/possaas/pkg/db/tenantdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type serviceFixture struct {
	svc     *Service
	central *gorm.DB
	tenant  *gorm.DB
	authz   *authorization.Registry
	reg     *prometheus.Registry
}

func newServiceFixture(t *testing.T, modules string) serviceFixture {
	t.Helper()
	return newServiceFixtureWith(t, modules, config.DefaultProvisioningConfig())
}

func newServiceFixtureWith(t *testing.T, modules string, cfg config.ProvisioningConfig) serviceFixture {
	t.Helper()

	central, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.MigrateCentral(central))
	require.NoError(t, central.Create(&tenantdomain.Tenant{ID: "acme", Name: "Acme", Modules: modules}).Error)

	tenantConn := newTenantDB(t)
	tenants := tenantdb.Static{DB: tenantConn}
	authz := authorization.NewRegistry(tenants, zap.NewNop())

	node, err := snowflake.NewNode(6)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	fake := clock.NewFakeClock(testNow)
	svc := NewService(Params{
		Tenants:   tenantrepo.NewRepository(central),
		TenantDBs: tenants,
		Authz:     authz,
		Holder:    config.NewStaticProvisioningHolder(cfg),
		GenID:     node,
		Clock:     fake,
		Metrics:   m,
		Audit: auditservice.NewService(auditservice.Params{
			DB:    central,
			Log:   zap.NewNop(),
			GenID: node,
			Clock: fake,
			Repo:  auditrepo.Provide(),
		}),
		Log: zap.NewNop(),
	})
	return serviceFixture{svc: svc, central: central, tenant: tenantConn, authz: authz, reg: reg}
}

func TestImportChecksPermission(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, "")

	require.NoError(t, f.tenant.Create(&authorization.Permission{ID: 1, Name: "brand-import", GuardName: authorization.GuardWeb}).Error)

	clerk := snowflake.ID(100)
	_, err := f.svc.Import(ctx, Request{
		TenantID: "acme",
		Entity:   "brand",
		UserID:   clerk,
		FileName: "brands.csv",
		Body:     strings.NewReader("title\nAcme\n"),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	assignor, err := f.authz.For(ctx, "acme")
	require.NoError(t, err)
	require.NoError(t, assignor.AssignToUser(ctx, clerk, nil, []string{"brand-import"}))
	report, err := f.svc.Import(ctx, Request{
		TenantID: "acme",
		Entity:   "brand",
		UserID:   clerk,
		FileName: "brands.csv",
		Body:     strings.NewReader("title\nAcme\n,\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1.0, importRows(t, f.reg, "brand", "imported"))

	var entry auditdomain.AuditLog
	require.NoError(t, f.central.Where("action = ?", auditdomain.ActionImportCompleted).First(&entry).Error)
	assert.Equal(t, string(auditdomain.ActorTypeUser), entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "100", *entry.ActorID)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, report.BatchID, *entry.TargetID)
	assert.Equal(t, "brand", entry.Metadata["entity"])
}

func TestImportRejectsUnknownInputs(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, "")

	_, err := f.svc.Import(ctx, Request{TenantID: "acme", Entity: "invoice", FileName: "x.csv", Body: strings.NewReader("a\n")})
	assert.ErrorIs(t, err, ErrUnknownEntity)

	_, err = f.svc.Import(ctx, Request{TenantID: "ghost", Entity: "brand", FileName: "x.csv", Body: strings.NewReader("title\n")})
	assert.ErrorIs(t, err, tenantdomain.ErrTenantNotFound)

	_, err = f.svc.Import(ctx, Request{TenantID: "acme", Entity: "brand", FileName: "x.xls", Body: strings.NewReader("title\n")})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestImportOversizedFileWritesNothing(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultProvisioningConfig()
	cfg.ImportMaxBytes = 4096
	cfg.ImportChunkSize = 100
	f := newServiceFixtureWith(t, "", cfg)

	var body strings.Builder
	body.WriteString("title\n")
	for i := 0; body.Len() <= 22<<10; i++ {
		fmt.Fprintf(&body, "Brand %05d\n", i)
	}

	_, err := f.svc.Import(ctx, Request{
		TenantID: "acme",
		Entity:   "brand",
		FileName: "brands.csv",
		Body:     strings.NewReader(body.String()),
	})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	var brands int64
	require.NoError(t, f.tenant.Model(&retaildomain.Brand{}).Count(&brands).Error)
	assert.Zero(t, brands)
}

func TestImportNormalizesSlugsForEcommerceTenants(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, "product_and_categories,ecommerce")

	_, err := f.svc.Import(ctx, Request{
		TenantID: "acme",
		Entity:   "brand",
		FileName: "brands.csv",
		Body:     strings.NewReader("title\nFizz Pop\n"),
	})
	require.NoError(t, err)

	var brand retaildomain.Brand
	require.NoError(t, f.tenant.First(&brand).Error)
	require.NotNil(t, brand.Slug)
	assert.Equal(t, "fizz-pop", *brand.Slug)
}

func importRows(t *testing.T, reg *prometheus.Registry, entity, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != "possaas_import_rows_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["entity"] == entity && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
