package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/possaas/internal/audit/domain"
	auditrepo "github.com/smallbiznis/possaas/internal/audit/repository"
	auditservice "github.com/smallbiznis/possaas/internal/audit/service"
	"github.com/smallbiznis/possaas/internal/authorization"
	"github.com/smallbiznis/possaas/internal/cache"
	"github.com/smallbiznis/possaas/internal/clock"
	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/internal/migration"
	"github.com/smallbiznis/possaas/internal/providers/email"
	"github.com/smallbiznis/possaas/internal/provisioning/domain"
	"github.com/smallbiznis/possaas/internal/provisioning/event"
	retaildomain "github.com/smallbiznis/possaas/internal/retail/domain"
	"github.com/smallbiznis/possaas/internal/seed"
	settingdomain "github.com/smallbiznis/possaas/internal/setting/domain"
	settingrepo "github.com/smallbiznis/possaas/internal/setting/repository"
	settingservice "github.com/smallbiznis/possaas/internal/setting/service"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
	tenantrepo "github.com/smallbiznis/possaas/internal/tenant/repository"
	"github.com/smallbiznis/possaas/pkg/db"
	"github.com/smallbiznis/possaas/pkg/db/tenantdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testPackageID = snowflake.ID(7001)

type recordingMailer struct {
	sent []email.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg email.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type harness struct {
	central *gorm.DB
	tenant  *gorm.DB
	clock   *clock.FakeClock
	mailer  *recordingMailer
	svc     domain.Service
}

type harnessOptions struct {
	wildcard  bool
	baseURL   string
	noSetting bool
	noMail    bool
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()

	central, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.MigrateCentral(central))

	tenantConn, err := db.NewTest()
	require.NoError(t, err)

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	now := time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC)
	if !opts.noSetting {
		require.NoError(t, central.Create(&settingdomain.GeneralSetting{
			ID:          1,
			SiteTitle:   "PosSaaS",
			Currency:    "USD",
			DevelopedBy: "SmallBiznis",
			CreatedAt:   now,
		}).Error)
	}
	if !opts.noMail {
		require.NoError(t, central.Create(&settingdomain.MailSetting{
			ID:          1,
			Driver:      "smtp",
			Host:        "smtp.test",
			Port:        587,
			FromAddress: "noreply@pos.test",
			CreatedAt:   now,
		}).Error)
	}
	require.NoError(t, central.Create(&tenantdomain.Package{
		ID:                   testPackageID,
		Name:                 "Pro",
		MonthlyFee:           29.99,
		YearlyFee:            299,
		Features:             `["product_and_categories","purchase_and_sale"]`,
		RolePermissionValues: "(sales-index,staff),(sales-add,staff)",
		CreatedAt:            now,
	}).Error)

	prov := config.DefaultProvisioningConfig()
	prov.CentralDomain = "pos.test"
	prov.WildcardSubdomain = opts.wildcard
	prov.CentralPublicDir = t.TempDir()
	prov.TenantPublicDir = t.TempDir()
	prov.OutboxMaxAttempts = 2

	appCfg := config.Config{Hosting: config.HostingConfig{Username: "root", APIKey: "KEY", BaseURL: opts.baseURL}}
	tenants := tenantdb.Static{DB: tenantConn}
	fake := clock.NewFakeClock(now)
	mailer := &recordingMailer{}

	svc := NewService(Params{
		Config:  appCfg,
		Holder:  config.NewStaticProvisioningHolder(prov),
		DB:      central,
		Tenants: tenantrepo.NewRepository(central),
		Settings: settingservice.NewService(settingservice.Params{
			Repo:  settingrepo.NewRepository(central),
			Cache: cache.New(nil),
			Log:   zap.NewNop(),
		}),
		TenantDBs: tenants,
		Authz:     authorization.NewRegistry(tenants, zap.NewNop()),
		Seeder:    seed.NewSeeder(node, zap.NewNop()),
		Outbox:    event.NewOutbox(central, node, prov.OutboxMaxAttempts),
		GenID:     node,
		Clock:     fake,
		Audit: auditservice.NewService(auditservice.Params{
			DB:    central,
			Log:   zap.NewNop(),
			GenID: node,
			Clock: fake,
			Repo:  auditrepo.Provide(),
		}),
		Log: zap.NewNop(),
		Mailers: func(cfg email.Config) (email.Provider, error) {
			if !cfg.Configured() {
				return nil, email.ErrMailNotConfigured
			}
			return mailer, nil
		},
	})

	return &harness{central: central, tenant: tenantConn, clock: fake, mailer: mailer, svc: svc}
}

func acmeRequest() domain.CreateTenantRequest {
	return domain.CreateTenantRequest{
		PackageID:        testPackageID.String(),
		SubscriptionType: "monthly",
		Tenant:           "acme",
		Name:             "Jane Owner",
		Email:            "jane@acme.test",
		Password:         "s3cret!",
		PhoneNumber:      "+15550100",
		CompanyName:      "Acme",
		Price:            29.99,
		PaymentMethod:    "stripe",
	}
}

func TestCreateTenantMonthlyWithPayment(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{wildcard: true})

	res, err := h.svc.CreateTenant(ctx, acmeRequest())
	require.NoError(t, err)

	assert.Equal(t, "acme", res.TenantID)
	assert.Equal(t, "acme.pos.test", res.Domain)
	assert.Equal(t, time.Date(2026, 11, 17, 0, 0, 0, 0, time.UTC), res.ExpiryDate)
	assert.Equal(t, domain.MessageSuccess, res.Message)
	assert.Empty(t, res.Degraded)
	assert.NotEmpty(t, res.PaymentID)

	var payments []tenantdomain.TenantPayment
	require.NoError(t, h.central.Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.Equal(t, 29.99, payments[0].Amount)
	assert.Equal(t, "stripe", payments[0].PaidBy)
	assert.Equal(t, testPackageID, payments[0].PackageID)

	var domains []tenantdomain.Domain
	require.NoError(t, h.central.Find(&domains).Error)
	require.Len(t, domains, 1)
	assert.Equal(t, "acme.pos.test", domains[0].Domain)

	var tenant tenantdomain.Tenant
	require.NoError(t, h.central.First(&tenant, "id = ?", "acme").Error)
	assert.Equal(t, "product_and_categories,purchase_and_sale", tenant.Modules)
	assert.Equal(t, res.AdminUserID, tenant.Data["admin_user_id"])

	var admin retaildomain.User
	require.NoError(t, h.tenant.First(&admin, "email = ?", "jane@acme.test").Error)
	assert.Equal(t, res.AdminUserID, admin.ID.String())

	assignor, err := authorization.New(h.tenant, zap.NewNop())
	require.NoError(t, err)
	want := authorization.FeaturePermissions([]string{"product_and_categories", "purchase_and_sale"})
	want = append(want, "sales-index", "sales-add")
	for _, perm := range want {
		ok, err := assignor.Can(ctx, admin.ID, perm)
		require.NoError(t, err)
		assert.Truef(t, ok, "admin should hold %s", perm)
	}

	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, []string{"jane@acme.test"}, h.mailer.sent[0].To)
	assert.Equal(t, "Welcome to PosSaaS", h.mailer.sent[0].Subject)
}

func TestCreateTenantWithoutPaymentMethod(t *testing.T) {
	h := newHarness(t, harnessOptions{wildcard: true})

	req := acmeRequest()
	req.PaymentMethod = ""
	res, err := h.svc.CreateTenant(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, res.PaymentID)

	var count int64
	require.NoError(t, h.central.Model(&tenantdomain.TenantPayment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateTenantSubdomainFailureIsQueued(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := newHarness(t, harnessOptions{wildcard: false, baseURL: srv.URL})

	res, err := h.svc.CreateTenant(context.Background(), acmeRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, res.Degraded, degradedSubdomain)
	assert.Equal(t, domain.MessageSuccess, res.Message)

	var events []event.ProvisioningEvent
	require.NoError(t, h.central.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, event.TopicSubdomainAdd, events[0].Topic)
	assert.Equal(t, "acme", events[0].TenantID)
	assert.Equal(t, event.StatusPending, events[0].Status)
}

func TestRetryPendingCompletesAndGivesUp(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"cpanelresult":{"event":{"result":1}}}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	h := newHarness(t, harnessOptions{wildcard: false, baseURL: srv.URL})
	_, err := h.svc.CreateTenant(ctx, acmeRequest())
	require.NoError(t, err)

	res, err := h.svc.RetryPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.RetryResult{Processed: 1, Failed: 1}, *res)

	healthy.Store(true)
	res, err = h.svc.RetryPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.RetryResult{Processed: 1, Succeeded: 1}, *res)

	var ev event.ProvisioningEvent
	require.NoError(t, h.central.First(&ev).Error)
	assert.Equal(t, event.StatusDone, ev.Status)

	res, err = h.svc.RetryPending(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, res.Processed)
}

func TestCreateTenantMissingConfiguration(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t, harnessOptions{wildcard: true, noSetting: true})
	_, err := h.svc.CreateTenant(ctx, acmeRequest())
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	assert.ErrorIs(t, err, settingdomain.ErrGeneralSettingMissing)

	var count int64
	require.NoError(t, h.central.Model(&tenantdomain.Tenant{}).Count(&count).Error)
	assert.Zero(t, count, "nothing is written before configuration is resolved")

	h = newHarness(t, harnessOptions{wildcard: true})
	req := acmeRequest()
	req.PackageID = "404"
	_, err = h.svc.CreateTenant(ctx, req)
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	assert.ErrorIs(t, err, tenantdomain.ErrPackageNotFound)
}

func TestCreateTenantMailNotSetup(t *testing.T) {
	h := newHarness(t, harnessOptions{wildcard: true, noMail: true})

	res, err := h.svc.CreateTenant(context.Background(), acmeRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.MessageMailNotSetup, res.Message)
	assert.Empty(t, h.mailer.sent)
}

func TestCreateTenantMailSendFailure(t *testing.T) {
	h := newHarness(t, harnessOptions{wildcard: true})
	h.mailer.err = errors.New("connection refused")

	res, err := h.svc.CreateTenant(context.Background(), acmeRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.MessageMailSendFailed, res.Message)
	assert.Contains(t, res.Degraded, degradedMail)
}

func TestCreateTenantDuplicate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{wildcard: true})

	_, err := h.svc.CreateTenant(ctx, acmeRequest())
	require.NoError(t, err)

	_, err = h.svc.CreateTenant(ctx, acmeRequest())
	assert.ErrorIs(t, err, tenantdomain.ErrTenantExists)
}

func TestCreateTenantRejectsInvalidInput(t *testing.T) {
	h := newHarness(t, harnessOptions{wildcard: true})

	req := acmeRequest()
	req.Tenant = "Not A Label!"
	req.SubscriptionType = "weekly"
	_, err := h.svc.CreateTenant(context.Background(), req)
	require.Error(t, err)

	req = acmeRequest()
	req.PackageID = "abc"
	_, err = h.svc.CreateTenant(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestChangePlanSwapsGrants(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{wildcard: true})

	created, err := h.svc.CreateTenant(ctx, acmeRequest())
	require.NoError(t, err)

	require.NoError(t, h.central.Create(&tenantdomain.Package{
		ID:        7002,
		Name:      "HR",
		Features:  `["hrm"]`,
		CreatedAt: h.clock.Now(),
	}).Error)

	h.clock.Advance(24 * time.Hour)
	res, err := h.svc.ChangePlan(ctx, domain.ChangePlanRequest{
		TenantID:         "acme",
		PackageID:        "7002",
		SubscriptionType: "yearly",
		Price:            299,
		PaymentMethod:    "paypal",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2027, 10, 19, 0, 0, 0, 0, time.UTC), res.ExpiryDate)
	assert.Contains(t, res.Granted, "employees-import")
	assert.Contains(t, res.Revoked, "products-import")
	assert.Contains(t, res.Revoked, "sales-index")
	assert.NotContains(t, res.Revoked, "dashboard", "base permissions survive every plan")

	adminID, err := snowflake.ParseString(created.AdminUserID)
	require.NoError(t, err)
	assignor, err := authorization.New(h.tenant, zap.NewNop())
	require.NoError(t, err)

	ok, err := assignor.Can(ctx, adminID, "employees-import")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = assignor.Can(ctx, adminID, "products-import")
	require.NoError(t, err)
	assert.False(t, ok)

	var setting retaildomain.GeneralSetting
	require.NoError(t, h.tenant.First(&setting).Error)
	assert.Equal(t, snowflake.ID(7002), setting.PackageID)
	assert.Equal(t, "hrm", setting.Modules)

	var payments int64
	require.NoError(t, h.central.Model(&tenantdomain.TenantPayment{}).Count(&payments).Error)
	assert.Equal(t, int64(2), payments)

	var logs []auditdomain.AuditLog
	require.NoError(t, h.central.Where("tenant_id = ?", "acme").Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, auditdomain.ActionTenantCreated, logs[0].Action)
	assert.Equal(t, auditdomain.ActionTenantPlanChanged, logs[1].Action)
	assert.Equal(t, string(auditdomain.ActorTypeSystem), logs[1].ActorType)
	assert.Contains(t, logs[1].Metadata["granted"], "employees-import")
}

func TestReseedTenantFillsEmptyTables(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{wildcard: true})

	_, err := h.svc.CreateTenant(ctx, acmeRequest())
	require.NoError(t, err)
	require.NoError(t, h.tenant.Where("1 = 1").Delete(&retaildomain.Tax{}).Error)

	res, err := h.svc.ReseedTenant(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"taxes"}, res.Seeded)

	var taxes int64
	require.NoError(t, h.tenant.Model(&retaildomain.Tax{}).Count(&taxes).Error)
	assert.Equal(t, int64(1), taxes)
}
