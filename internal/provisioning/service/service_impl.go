package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	auditdomain "github.com/smallbiznis/possaas/internal/audit/domain"
	"github.com/smallbiznis/possaas/internal/authorization"
	"github.com/smallbiznis/possaas/internal/cache"
	"github.com/smallbiznis/possaas/internal/clock"
	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/internal/migration"
	"github.com/smallbiznis/possaas/internal/observability/metrics"
	"github.com/smallbiznis/possaas/internal/providers/email"
	"github.com/smallbiznis/possaas/internal/providers/storage"
	"github.com/smallbiznis/possaas/internal/provisioning/domain"
	"github.com/smallbiznis/possaas/internal/provisioning/event"
	retaildomain "github.com/smallbiznis/possaas/internal/retail/domain"
	"github.com/smallbiznis/possaas/internal/seed"
	settingdomain "github.com/smallbiznis/possaas/internal/setting/domain"
	"github.com/smallbiznis/possaas/internal/subdomain"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
	"github.com/smallbiznis/possaas/pkg/db/tenantdb"
	"github.com/smallbiznis/possaas/pkg/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	featureEcommerce = "ecommerce"

	degradedLogo      = "logo"
	degradedSubdomain = "subdomain"
	degradedMail      = "mail"

	outcomeSuccess  = "success"
	outcomeDegraded = "degraded"
	outcomeFailed   = "failed"

	retryLockKey = "provisioning:outbox:" + event.TopicSubdomainAdd
	retryLockTTL = 5 * time.Minute
)

// RegistrarFactory builds a registrar for the current hosting settings.
type RegistrarFactory func(cfg subdomain.Config) subdomain.Registrar

// MailerFactory builds a mail provider for the current mail settings.
type MailerFactory func(cfg email.Config) (email.Provider, error)

type Params struct {
	fx.In

	Config    config.Config
	Holder    *config.ProvisioningHolder
	DB        *gorm.DB
	Tenants   tenantdomain.Repository
	Settings  settingdomain.Resolver
	TenantDBs tenantdb.Provider
	Authz     *authorization.Registry
	Seeder    *seed.Seeder
	Outbox    *event.Outbox
	GenID     *snowflake.Node
	Clock     clock.Clock
	Metrics   *metrics.Metrics    `optional:"true"`
	Locker    *cache.Locker       `optional:"true"`
	Audit     auditdomain.Service `optional:"true"`
	Log       *zap.Logger

	Registrars RegistrarFactory `optional:"true"`
	Mailers    MailerFactory    `optional:"true"`
}

type Service struct {
	cfg       config.Config
	holder    *config.ProvisioningHolder
	db        *gorm.DB
	tenants   tenantdomain.Repository
	settings  settingdomain.Resolver
	tenantDBs tenantdb.Provider
	authz     *authorization.Registry
	seeder    *seed.Seeder
	outbox    *event.Outbox
	genID     *snowflake.Node
	clock     clock.Clock
	metrics   *metrics.Metrics
	locker    *cache.Locker
	audit     auditdomain.Service
	validate  *validator.Validator
	tracer    trace.Tracer
	log       *zap.Logger

	registrars RegistrarFactory
	mailers    MailerFactory
}

func NewService(p Params) domain.Service {
	svc := &Service{
		cfg:       p.Config,
		holder:    p.Holder,
		db:        p.DB,
		tenants:   p.Tenants,
		settings:  p.Settings,
		tenantDBs: p.TenantDBs,
		authz:     p.Authz,
		seeder:    p.Seeder,
		outbox:    p.Outbox,
		genID:     p.GenID,
		clock:     p.Clock,
		metrics:   p.Metrics,
		locker:    p.Locker,
		audit:     p.Audit,
		validate:  validator.New(),
		tracer:    otel.Tracer("possaas/provisioning"),
		log:       p.Log.Named("provisioning.service"),

		registrars: p.Registrars,
		mailers:    p.Mailers,
	}
	if svc.clock == nil {
		svc.clock = clock.System{}
	}
	if svc.registrars == nil {
		svc.registrars = func(cfg subdomain.Config) subdomain.Registrar {
			return subdomain.New(cfg, svc.tenants, svc.metrics, svc.log)
		}
	}
	if svc.mailers == nil {
		svc.mailers = email.New
	}
	return svc
}

// grants is the permission set a package hands to a tenant.
type grants struct {
	features    []string
	pairs       []authorization.Pair
	permissions []string
}

func (s *Service) packageGrants(pkg *tenantdomain.Package, log *zap.Logger) grants {
	features, err := authorization.ParseFeatures(pkg.Features)
	if err != nil {
		log.Warn("package features ignored", zap.Error(err))
		features = nil
	}
	pairs, err := authorization.ParsePairs(pkg.RolePermissionValues)
	if err != nil {
		log.Warn("package role permission values ignored", zap.Error(err))
		pairs = nil
	}

	permissions := authorization.FeaturePermissions(features)
	for _, perm := range authorization.PairPermissions(pairs) {
		if !slices.Contains(permissions, perm) {
			permissions = append(permissions, perm)
		}
	}
	return grants{features: features, pairs: pairs, permissions: permissions}
}

func (s *Service) expiry(gs *settingdomain.GeneralSetting, pkg *tenantdomain.Package, subscriptionType string) time.Time {
	trialDays := gs.FreeTrialLimit
	if trialDays <= 0 {
		trialDays = s.holder.Get().DefaultTrialDays
	}
	return domain.ExpiryDate(s.clock.Now(), pkg.IsFreeTrial, trialDays, subscriptionType)
}

// loadPlan resolves the platform settings and the package. Both are required
// before anything is written.
func (s *Service) loadPlan(ctx context.Context, rawPackageID string) (*settingdomain.GeneralSetting, *tenantdomain.Package, error) {
	packageID, err := snowflake.ParseString(strings.TrimSpace(rawPackageID))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: package_id", domain.ErrInvalidRequest)
	}

	gs, err := s.settings.GeneralSetting(ctx)
	if err != nil {
		if errors.Is(err, settingdomain.ErrGeneralSettingMissing) {
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrConfigurationMissing, err)
		}
		return nil, nil, err
	}

	pkg, err := s.tenants.FindPackage(ctx, packageID)
	if err != nil {
		if errors.Is(err, tenantdomain.ErrPackageNotFound) {
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrConfigurationMissing, err)
		}
		return nil, nil, err
	}
	return gs, pkg, nil
}

func (s *Service) CreateTenant(ctx context.Context, req domain.CreateTenantRequest) (result *domain.Result, err error) {
	req.Tenant = strings.ToLower(strings.TrimSpace(req.Tenant))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)

	ctx, span := s.tracer.Start(ctx, "provisioning.CreateTenant",
		trace.WithAttributes(attribute.String("tenant.id", req.Tenant)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.metrics.RecordProvisioning(outcomeFailed)
		}
		span.End()
	}()

	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	log := s.log.With(zap.String("tenant_id", req.Tenant))
	prov := s.holder.Get()

	gs, pkg, err := s.loadPlan(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}
	plan := s.packageGrants(pkg, log)
	expiry := s.expiry(gs, pkg, req.SubscriptionType)

	now := s.clock.Now()
	tenant := &tenantdomain.Tenant{
		ID:               req.Tenant,
		Name:             req.Name,
		Email:            req.Email,
		PhoneNumber:      req.PhoneNumber,
		CompanyName:      req.CompanyName,
		PackageID:        pkg.ID,
		SubscriptionType: req.SubscriptionType,
		ExpiryDate:       expiry,
		Modules:          strings.Join(plan.features, ","),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	host := tenant.ID + "." + prov.CentralDomain
	result = &domain.Result{
		TenantID:   tenant.ID,
		Domain:     host,
		ExpiryDate: expiry,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.tenants.WithTx(tx)
		if err := repo.CreateTenant(ctx, tenant); err != nil {
			return err
		}
		if err := repo.CreateDomain(ctx, &tenantdomain.Domain{
			ID:        s.genID.Generate(),
			Domain:    host,
			TenantID:  tenant.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		paymentID, err := s.recordPayment(ctx, repo, tenant.ID, pkg.ID, req.SubscriptionType, req.Price, req.PaymentMethod, now)
		if err != nil {
			return err
		}
		result.PaymentID = paymentID
		return nil
	})
	if err != nil {
		return nil, err
	}

	conn, assignor, err := s.openTenant(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}

	data := seedData(gs, pkg, tenant, plan, req.Password)
	seeded, err := s.runSeed(ctx, conn, assignor, data)
	if err != nil {
		return nil, err
	}
	result.AdminUserID = seeded.AdminUserID.String()

	if err := s.copyLogo(ctx, gs.SiteLogo, tenant.ID, prov); err != nil {
		log.Warn("tenant logo not copied", zap.Error(err))
		result.Degraded = append(result.Degraded, degradedLogo)
	}

	if slices.Contains(plan.features, featureEcommerce) {
		if err := s.setupEcommerce(ctx, conn, data); err != nil {
			return nil, err
		}
	}

	registered := prov.WildcardSubdomain
	if !prov.WildcardSubdomain {
		registered = s.registerSubdomain(ctx, tenant, prov, log)
		if !registered {
			result.Degraded = append(result.Degraded, degradedSubdomain)
		}
	}

	tenant.Data = map[string]any{
		"admin_user_id":        result.AdminUserID,
		"subdomain_registered": registered,
	}
	tenant.UpdatedAt = s.clock.Now()
	if err := s.tenants.UpdateTenant(ctx, tenant); err != nil {
		return nil, err
	}

	result.Message = s.sendWelcome(ctx, gs, pkg, tenant, req.Password, host, log)
	if result.Message == domain.MessageMailSendFailed {
		result.Degraded = append(result.Degraded, degradedMail)
	}

	outcome := outcomeSuccess
	if len(result.Degraded) > 0 {
		outcome = outcomeDegraded
	}
	s.metrics.RecordProvisioning(outcome)
	s.record(ctx, auditdomain.Entry{
		TenantID: tenant.ID,
		Action:   auditdomain.ActionTenantCreated,
		Metadata: map[string]any{
			"package_id":        pkg.ID.String(),
			"subscription_type": req.SubscriptionType,
			"email":             req.Email,
			"payment_id":        result.PaymentID,
			"degraded":          strings.Join(result.Degraded, ","),
		},
	})
	log.Info("tenant provisioned",
		zap.String("domain", host),
		zap.Time("expiry_date", expiry),
		zap.Strings("degraded", result.Degraded),
	)
	return result, nil
}

func (s *Service) recordPayment(ctx context.Context, repo tenantdomain.Repository, tenantID string, packageID snowflake.ID, subscriptionType string, amount float64, method string, now time.Time) (string, error) {
	if method == "" {
		return "", nil
	}
	payment := &tenantdomain.TenantPayment{
		ID:               s.genID.Generate(),
		TenantID:         tenantID,
		PackageID:        packageID,
		Amount:           amount,
		PaidBy:           method,
		SubscriptionType: subscriptionType,
		Reference:        uuid.NewString(),
		CreatedAt:        now,
	}
	if err := repo.CreatePayment(ctx, payment); err != nil {
		return "", err
	}
	return payment.ID.String(), nil
}

// openTenant creates, migrates and connects the tenant database.
func (s *Service) openTenant(ctx context.Context, tenantID string) (*gorm.DB, *authorization.Assignor, error) {
	ctx, span := s.tracer.Start(ctx, "provisioning.openTenant")
	defer span.End()

	if err := s.tenantDBs.Create(ctx, tenantID); err != nil {
		return nil, nil, fmt.Errorf("create tenant database: %w", err)
	}
	conn, err := s.tenantDBs.Connect(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if err := migration.MigrateTenant(conn); err != nil {
		return nil, nil, fmt.Errorf("migrate tenant database: %w", err)
	}
	assignor, err := s.authz.For(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	return conn, assignor, nil
}

func (s *Service) runSeed(ctx context.Context, conn *gorm.DB, assignor *authorization.Assignor, data seed.Data) (*seed.Result, error) {
	ctx, span := s.tracer.Start(ctx, "provisioning.seed")
	defer span.End()

	res, err := s.seeder.Seed(ctx, conn, assignor, data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("seed.steps", len(res.Seeded)))
	return res, nil
}

func seedData(gs *settingdomain.GeneralSetting, pkg *tenantdomain.Package, tenant *tenantdomain.Tenant, plan grants, password string) seed.Data {
	return seed.Data{
		SiteTitle:        gs.SiteTitle,
		SiteLogo:         gs.SiteLogo,
		Currency:         gs.Currency,
		DevelopedBy:      gs.DevelopedBy,
		Name:             tenant.Name,
		Email:            tenant.Email,
		PhoneNumber:      tenant.PhoneNumber,
		CompanyName:      tenant.CompanyName,
		Password:         password,
		PackageID:        pkg.ID,
		SubscriptionType: tenant.SubscriptionType,
		ExpiryDate:       tenant.ExpiryDate,
		Modules:          plan.features,
		Features:         plan.features,
		Pairs:            plan.pairs,
		Permissions:      plan.permissions,
	}
}

// copyLogo copies the platform logo into the tenant's public directory. A
// missing source file is not an error.
func (s *Service) copyLogo(ctx context.Context, logo, tenantID string, prov config.ProvisioningConfig) error {
	logo = strings.TrimSpace(logo)
	if logo == "" {
		return nil
	}

	srcCfg, err := s.settings.StorageConfig(ctx, prov.CentralPublicDir)
	if err != nil {
		return err
	}
	src, err := storage.New(s.log, srcCfg)
	if err != nil {
		return err
	}
	dstCfg, err := s.settings.StorageConfig(ctx, filepath.Join(prov.TenantPublicDir, tenantID))
	if err != nil {
		return err
	}
	dst, err := storage.New(s.log, dstCfg)
	if err != nil {
		return err
	}

	name := path.Join("logo", logo)
	copied, err := storage.Copy(ctx, src, name, dst, name)
	if err != nil {
		return err
	}
	if !copied {
		s.log.Debug("platform logo missing, nothing copied", zap.String("file", name))
	}
	return nil
}

func (s *Service) setupEcommerce(ctx context.Context, conn *gorm.DB, data seed.Data) error {
	ctx, span := s.tracer.Start(ctx, "provisioning.ecommerce")
	defer span.End()

	if _, err := s.seeder.SeedEcommerce(ctx, conn, data); err != nil {
		return fmt.Errorf("seed ecommerce: %w", err)
	}
	if err := seed.NormalizeSlugs(ctx, conn); err != nil {
		return fmt.Errorf("normalize slugs: %w", err)
	}
	n, err := seed.MarkProductsOnline(ctx, conn)
	if err != nil {
		return fmt.Errorf("mark products online: %w", err)
	}
	s.log.Debug("products published online", zap.Int64("count", n))
	return nil
}

// registerSubdomain calls the control panel and queues a retry on failure.
func (s *Service) registerSubdomain(ctx context.Context, tenant *tenantdomain.Tenant, prov config.ProvisioningConfig, log *zap.Logger) bool {
	ctx, span := s.tracer.Start(ctx, "provisioning.subdomain")
	defer span.End()

	registrar := s.registrars(subdomain.ConfigFrom(s.cfg, prov))
	if registrar.AddSubdomain(ctx, tenant) {
		return true
	}

	span.SetStatus(codes.Error, "subdomain registration failed")
	if err := s.outbox.Publish(ctx, tenant.ID, event.TopicSubdomainAdd, map[string]string{
		"tenant_id": tenant.ID,
	}); err != nil {
		log.Error("subdomain retry not queued", zap.Error(err))
	}
	return false
}

func (s *Service) sendWelcome(ctx context.Context, gs *settingdomain.GeneralSetting, pkg *tenantdomain.Package, tenant *tenantdomain.Tenant, password, host string, log *zap.Logger) string {
	ctx, span := s.tracer.Start(ctx, "provisioning.mail")
	defer span.End()

	mailCfg, err := s.settings.MailConfig(ctx)
	if err != nil {
		if !errors.Is(err, settingdomain.ErrMailSettingMissing) {
			log.Warn("mail settings unavailable", zap.Error(err))
		}
		return domain.MessageMailNotSetup
	}
	mailer, err := s.mailers(mailCfg)
	if err != nil {
		log.Warn("mail provider unavailable", zap.Error(err))
		return domain.MessageMailNotSetup
	}

	msg, err := email.WelcomeMessage(tenant.Email, email.WelcomeData{
		SiteTitle:        gs.SiteTitle,
		DevelopedBy:      gs.DevelopedBy,
		Name:             tenant.Name,
		CompanyName:      tenant.CompanyName,
		Email:            tenant.Email,
		Password:         password,
		LoginURL:         "https://" + host + "/login",
		PackageName:      pkg.Name,
		SubscriptionType: tenant.SubscriptionType,
		ExpiryDate:       tenant.ExpiryDate.Format("2006-01-02"),
	})
	if err == nil {
		err = mailer.Send(ctx, msg)
	}
	if err != nil {
		span.RecordError(err)
		log.Warn("welcome mail not sent", zap.Error(err))
		return domain.MessageMailSendFailed
	}
	return domain.MessageSuccess
}

func (s *Service) ChangePlan(ctx context.Context, req domain.ChangePlanRequest) (*domain.ChangePlanResult, error) {
	req.TenantID = strings.ToLower(strings.TrimSpace(req.TenantID))
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)

	ctx, span := s.tracer.Start(ctx, "provisioning.ChangePlan",
		trace.WithAttributes(attribute.String("tenant.id", req.TenantID)))
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	log := s.log.With(zap.String("tenant_id", req.TenantID))

	tenant, err := s.tenants.FindTenant(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	gs, pkg, err := s.loadPlan(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}
	plan := s.packageGrants(pkg, log)

	now := s.clock.Now()
	tenant.PackageID = pkg.ID
	tenant.SubscriptionType = req.SubscriptionType
	tenant.ExpiryDate = s.expiry(gs, pkg, req.SubscriptionType)
	tenant.Modules = strings.Join(plan.features, ",")
	tenant.UpdatedAt = now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.tenants.WithTx(tx)
		if err := repo.UpdateTenant(ctx, tenant); err != nil {
			return err
		}
		_, err := s.recordPayment(ctx, repo, tenant.ID, pkg.ID, req.SubscriptionType, req.Price, req.PaymentMethod, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	conn, err := s.tenantDBs.Connect(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	if err := conn.Model(&retaildomain.GeneralSetting{}).
		Where("1 = 1").
		Updates(map[string]any{
			"package_id":        tenant.PackageID,
			"subscription_type": tenant.SubscriptionType,
			"expiry_date":       tenant.ExpiryDate,
			"modules":           tenant.Modules,
		}).Error; err != nil {
		return nil, err
	}
	if err := seed.EnsurePermissions(ctx, conn, s.genID, plan.permissions); err != nil {
		return nil, err
	}

	assignor, err := s.authz.For(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	adminID, err := seed.FindAdmin(conn, tenant.Email)
	if err != nil {
		return nil, err
	}
	current, err := assignor.UserPermissions(ctx, adminID)
	if err != nil {
		return nil, err
	}

	granted := missing(plan.permissions, current)
	revoked := missing(current, plan.permissions)

	if err := assignor.RevokeFromUser(ctx, adminID, revoked); err != nil {
		return nil, err
	}
	if err := assignor.RevokeFromRole(ctx, authorization.RoleAdmin, revoked); err != nil {
		return nil, err
	}
	pairs := append([]authorization.Pair{}, plan.pairs...)
	for _, perm := range plan.permissions {
		pairs = append(pairs, authorization.Pair{Permission: perm, Role: authorization.RoleAdmin})
	}
	if _, err := assignor.SyncRolePermissions(ctx, pairs); err != nil {
		return nil, err
	}
	if err := assignor.AssignToUser(ctx, adminID, []string{authorization.RoleAdmin}, plan.permissions); err != nil {
		return nil, err
	}

	s.record(ctx, auditdomain.Entry{
		TenantID: tenant.ID,
		Action:   auditdomain.ActionTenantPlanChanged,
		Metadata: map[string]any{
			"package_id":        pkg.ID.String(),
			"subscription_type": req.SubscriptionType,
			"granted":           strings.Join(granted, ","),
			"revoked":           strings.Join(revoked, ","),
		},
	})
	log.Info("tenant plan changed",
		zap.String("package_id", pkg.ID.String()),
		zap.Int("granted", len(granted)),
		zap.Int("revoked", len(revoked)),
	)
	return &domain.ChangePlanResult{
		TenantID:   tenant.ID,
		PackageID:  pkg.ID.String(),
		ExpiryDate: tenant.ExpiryDate,
		Granted:    granted,
		Revoked:    revoked,
	}, nil
}

func (s *Service) AddSubdomain(ctx context.Context, tenantID string) (bool, error) {
	tenant, err := s.tenants.FindTenant(ctx, strings.ToLower(strings.TrimSpace(tenantID)))
	if err != nil {
		return false, err
	}
	ok := s.registrars(subdomain.ConfigFrom(s.cfg, s.holder.Get())).AddSubdomain(ctx, tenant)
	s.record(ctx, auditdomain.Entry{
		TenantID: tenant.ID,
		Action:   auditdomain.ActionSubdomainAdded,
		Metadata: map[string]any{"ok": ok},
	})
	return ok, nil
}

func (s *Service) RemoveSubdomain(ctx context.Context, tenantID string) (bool, error) {
	tenant, err := s.tenants.FindTenant(ctx, strings.ToLower(strings.TrimSpace(tenantID)))
	if err != nil {
		return false, err
	}
	ok := s.registrars(subdomain.ConfigFrom(s.cfg, s.holder.Get())).DeleteSubdomain(ctx, tenant)
	s.record(ctx, auditdomain.Entry{
		TenantID: tenant.ID,
		Action:   auditdomain.ActionSubdomainRemoved,
		Metadata: map[string]any{"ok": ok},
	})
	return ok, nil
}

// RetryPending replays queued subdomain registrations. Only one process
// drains the queue at a time.
func (s *Service) RetryPending(ctx context.Context, limit int) (*domain.RetryResult, error) {
	result := &domain.RetryResult{}

	token, ok, err := s.locker.TryLock(ctx, retryLockKey, retryLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.Debug("outbox retry already running elsewhere")
		return result, nil
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), retryLockKey, token); err != nil {
			s.log.Warn("outbox lock release failed", zap.Error(err))
		}
	}()

	events, err := s.outbox.Pending(ctx, event.TopicSubdomainAdd, limit)
	if err != nil {
		return nil, err
	}

	registrar := s.registrars(subdomain.ConfigFrom(s.cfg, s.holder.Get()))
	for _, ev := range events {
		result.Processed++
		log := s.log.With(zap.String("tenant_id", ev.TenantID), zap.String("event_id", ev.ID.String()))

		cause := "subdomain registration failed"
		tenant, err := s.tenants.FindTenant(ctx, ev.TenantID)
		if err == nil && registrar.AddSubdomain(ctx, tenant) {
			if err := s.outbox.Complete(ctx, ev.ID); err != nil {
				return nil, err
			}
			result.Succeeded++
			log.Info("queued subdomain registered")
			continue
		}
		if err != nil {
			cause = err.Error()
		}

		result.Failed++
		pending, err := s.outbox.Fail(ctx, ev, cause)
		if err != nil {
			return nil, err
		}
		if !pending {
			log.Error("subdomain registration gave up", zap.String("cause", cause))
		}
	}
	return result, nil
}

// ReseedTenant fills any empty tables of an existing tenant. The admin user is
// only created when the users table is empty; it gets a random password that
// must be reset.
func (s *Service) ReseedTenant(ctx context.Context, tenantID string) (*domain.ReseedResult, error) {
	tenant, err := s.tenants.FindTenant(ctx, strings.ToLower(strings.TrimSpace(tenantID)))
	if err != nil {
		return nil, err
	}
	log := s.log.With(zap.String("tenant_id", tenant.ID))

	gs, err := s.settings.GeneralSetting(ctx)
	if err != nil {
		if errors.Is(err, settingdomain.ErrGeneralSettingMissing) {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfigurationMissing, err)
		}
		return nil, err
	}
	pkg, err := s.tenants.FindPackage(ctx, tenant.PackageID)
	if err != nil {
		return nil, err
	}
	plan := s.packageGrants(pkg, log)

	conn, assignor, err := s.openTenant(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	res, err := s.runSeed(ctx, conn, assignor, seedData(gs, pkg, tenant, plan, uuid.NewString()))
	if err != nil {
		return nil, err
	}
	if slices.Contains(res.Seeded, "users") {
		log.Warn("admin user recreated with a random password")
	}
	s.record(ctx, auditdomain.Entry{
		TenantID: tenant.ID,
		Action:   auditdomain.ActionTenantReseeded,
		Metadata: map[string]any{"seeded": strings.Join(res.Seeded, ",")},
	})
	return &domain.ReseedResult{
		TenantID: tenant.ID,
		Seeded:   res.Seeded,
		Skipped:  res.Skipped,
	}, nil
}

// record writes an audit entry. Failures are logged and never fail the
// operation that was audited.
func (s *Service) record(ctx context.Context, e auditdomain.Entry) {
	if s.audit == nil {
		return
	}
	if e.TargetType == "" {
		e.TargetType = auditdomain.TargetTypeTenant
		e.TargetID = e.TenantID
	}
	if err := s.audit.Record(ctx, e); err != nil {
		s.log.Warn("audit record failed", zap.String("action", e.Action), zap.Error(err))
	}
}

// missing returns the names in want that are not in have.
func missing(want, have []string) []string {
	out := []string{}
	for _, name := range want {
		if !slices.Contains(have, name) && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}
