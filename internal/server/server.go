package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	apikeydomain "github.com/smallbiznis/possaas/internal/apikey/domain"
	auditdomain "github.com/smallbiznis/possaas/internal/audit/domain"
	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/internal/importer"
	obslogger "github.com/smallbiznis/possaas/internal/observability/logger"
	obstracing "github.com/smallbiznis/possaas/internal/observability/tracing"
	provisioningdomain "github.com/smallbiznis/possaas/internal/provisioning/domain"
	"github.com/smallbiznis/possaas/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(provideImportService),
	fx.Provide(provideReceiptService),
	fx.Provide(provideAuthenticator),
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

// ImportService runs spreadsheet imports for a tenant.
type ImportService interface {
	Import(ctx context.Context, req importer.Request) (*importer.Report, error)
}

func provideImportService(s *importer.Service) ImportService { return s }

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware())
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine()
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type ServerParams struct {
	fx.In

	Engine       *gin.Engine
	Provisioning provisioningdomain.Service
	Imports      ImportService
	Audit        auditdomain.Service
	Receipts     ReceiptService
	APIKeys      APIKeyAuthenticator      `optional:"true"`
	Limiter      *ratelimit.ImportLimiter `optional:"true"`
	Holder       *config.ProvisioningHolder
	Log          *zap.Logger
}

type Server struct {
	engine       *gin.Engine
	provisioning provisioningdomain.Service
	imports      ImportService
	audit        auditdomain.Service
	receipts     ReceiptService
	apiKeys      APIKeyAuthenticator
	limiter      *ratelimit.ImportLimiter
	holder       *config.ProvisioningHolder
	log          *zap.Logger
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:       p.Engine,
		provisioning: p.Provisioning,
		imports:      p.Imports,
		audit:        p.Audit,
		receipts:     p.Receipts,
		apiKeys:      p.APIKeys,
		limiter:      p.Limiter,
		holder:       p.Holder,
		log:          p.Log.Named("http.server"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")

	read := s.RequireScope(apikeydomain.ScopeTenantsRead)
	write := s.RequireScope(apikeydomain.ScopeTenantsWrite)
	imports := s.RequireScope(apikeydomain.ScopeImportsWrite)

	tenants := v1.Group("/tenants")
	{
		tenants.POST("", write, s.CreateTenant)
		tenants.POST("/:id/plan", write, s.ChangePlan)
		tenants.POST("/:id/subdomain", write, s.AddSubdomain)
		tenants.DELETE("/:id/subdomain", write, s.RemoveSubdomain)
		tenants.POST("/:id/imports/:entity", imports, s.ImportRateLimit(), s.ImportEntity)
		tenants.GET("/:id/audit-logs", read, s.ListAuditLogs)
		tenants.GET("/:id/payments", read, s.ListPayments)
		tenants.GET("/:id/payments/:payment/receipt", read, s.PaymentReceipt)
	}

	v1.GET("/imports", imports, s.ListImportEntities)
	v1.GET("/imports/:entity/template", imports, s.ImportTemplate)

	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
