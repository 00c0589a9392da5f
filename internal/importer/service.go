package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/possaas/internal/audit/domain"
	"github.com/smallbiznis/possaas/internal/authorization"
	"github.com/smallbiznis/possaas/internal/clock"
	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/internal/observability/metrics"
	"github.com/smallbiznis/possaas/internal/seed"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
	"github.com/smallbiznis/possaas/pkg/db/tenantdb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("importer.service",
	fx.Provide(NewService),
)

var ErrForbidden = errors.New("import_forbidden")

const moduleEcommerce = "ecommerce"

// Request is one uploaded file for one tenant. A zero UserID skips the
// permission check; the CLI runs imports as the operator.
type Request struct {
	TenantID string
	Entity   string
	UserID   snowflake.ID
	FileName string
	Body     io.Reader
}

type Params struct {
	fx.In

	Tenants   tenantdomain.Repository
	TenantDBs tenantdb.Provider
	Authz     *authorization.Registry
	Holder    *config.ProvisioningHolder
	GenID     *snowflake.Node
	Clock     clock.Clock
	Metrics   *metrics.Metrics    `optional:"true"`
	Audit     auditdomain.Service `optional:"true"`
	Log       *zap.Logger
}

type Service struct {
	tenants   tenantdomain.Repository
	tenantDBs tenantdb.Provider
	authz     *authorization.Registry
	holder    *config.ProvisioningHolder
	genID     *snowflake.Node
	clock     clock.Clock
	metrics   *metrics.Metrics
	audit     auditdomain.Service
	tracer    trace.Tracer
	log       *zap.Logger
}

func NewService(p Params) *Service {
	c := p.Clock
	if c == nil {
		c = clock.System{}
	}
	return &Service{
		tenants:   p.Tenants,
		tenantDBs: p.TenantDBs,
		authz:     p.Authz,
		holder:    p.Holder,
		genID:     p.GenID,
		clock:     c,
		metrics:   p.Metrics,
		audit:     p.Audit,
		tracer:    otel.Tracer("possaas/importer"),
		log:       p.Log.Named("importer.service"),
	}
}

func (s *Service) Import(ctx context.Context, req Request) (report *Report, err error) {
	d, ok := Lookup(req.Entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, req.Entity)
	}
	tenantID := strings.ToLower(strings.TrimSpace(req.TenantID))

	ctx, span := s.tracer.Start(ctx, "importer.Import", trace.WithAttributes(
		attribute.String("tenant.id", tenantID),
		attribute.String("import.entity", d.Entity),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tenant, err := s.tenants.FindTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if req.UserID != 0 {
		assignor, err := s.authz.For(ctx, tenant.ID)
		if err != nil {
			return nil, err
		}
		allowed, err := assignor.Can(ctx, req.UserID, d.Permission)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Permission)
		}
	}

	cfg := s.holder.Get()
	rows, err := Open(req.FileName, req.Body, cfg.ImportMaxBytes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conn, err := s.tenantDBs.Connect(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}

	log := s.log.With(zap.String("tenant_id", tenant.ID))
	pipeline := NewPipeline(conn, s.genID, s.clock.Now, cfg.ImportChunkSize, log)
	report, err = pipeline.Run(ctx, d, rows)
	if report != nil {
		s.metrics.RecordImportRows(d.Entity, "imported", report.Imported)
		s.metrics.RecordImportRows(d.Entity, "skipped", report.Skipped)
		span.SetAttributes(
			attribute.Int("import.imported", report.Imported),
			attribute.Int("import.skipped", report.Skipped),
		)
	}
	if err != nil {
		return report, err
	}

	if d.Slugged && slices.Contains(tenant.ModuleList(), moduleEcommerce) {
		if err := seed.NormalizeSlugs(ctx, conn); err != nil {
			return report, fmt.Errorf("normalize slugs: %w", err)
		}
	}
	s.recordImport(ctx, tenant.ID, req.UserID, report)
	return report, nil
}

func (s *Service) recordImport(ctx context.Context, tenantID string, userID snowflake.ID, report *Report) {
	if s.audit == nil {
		return
	}
	entry := auditdomain.Entry{
		TenantID:   tenantID,
		ActorType:  auditdomain.ActorTypeOperator,
		Action:     auditdomain.ActionImportCompleted,
		TargetType: auditdomain.TargetTypeImport,
		TargetID:   report.BatchID,
		Metadata: map[string]any{
			"entity":   report.Entity,
			"total":    report.Total,
			"imported": report.Imported,
			"skipped":  report.Skipped,
		},
	}
	if userID != 0 {
		entry.ActorType = auditdomain.ActorTypeUser
		entry.ActorID = userID.String()
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warn("audit record failed", zap.String("batch_id", report.BatchID), zap.Error(err))
	}
}
