// Package subdomain registers tenant subdomains with the hosting control
// panel when wildcard DNS is not available.
package subdomain

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/internal/observability/metrics"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
	"go.uber.org/zap"
)

const (
	OperationAdd    = "add"
	OperationDelete = "delete"

	defaultTimeout = 10 * time.Second
)

// Registrar creates and removes a tenant's subdomain. Failures are logged
// and reported as false; they never return an error.
type Registrar interface {
	AddSubdomain(ctx context.Context, tenant *tenantdomain.Tenant) bool
	DeleteSubdomain(ctx context.Context, tenant *tenantdomain.Tenant) bool
}

// DomainIDStore persists the control-panel id of a created subdomain.
type DomainIDStore interface {
	SetHostingDomainID(ctx context.Context, tenantID string, domainID *int64) error
}

type Config struct {
	ServerType    string
	CentralDomain string
	// Dir is the document root given to new subdomains.
	Dir      string
	Username string
	APIKey   string
	Password string
	Host     string
	BaseURL  string
	Timeout  time.Duration
}

// ConfigFrom combines the static hosting credentials with the current
// provisioning settings.
func ConfigFrom(app config.Config, prov config.ProvisioningConfig) Config {
	return Config{
		ServerType:    prov.ServerType,
		CentralDomain: prov.CentralDomain,
		Dir:           prov.SubdomainDir,
		Username:      app.Hosting.Username,
		APIKey:        app.Hosting.APIKey,
		Password:      app.Hosting.Password,
		Host:          app.Hosting.Host,
		BaseURL:       app.Hosting.BaseURL,
	}
}

// New picks the registrar for cfg.ServerType.
func New(cfg Config, store DomainIDStore, m *metrics.Metrics, log *zap.Logger) Registrar {
	log = log.Named("subdomain.registrar")
	serverType := strings.ToLower(strings.TrimSpace(cfg.ServerType))
	switch serverType {
	case config.ServerTypeCPanel:
		return newCPanel(cfg, m, log)
	case config.ServerTypePlesk:
		return newPlesk(cfg, store, m, log)
	default:
		return &unsupported{serverType: cfg.ServerType, log: log}
	}
}

func newClient(cfg Config, baseURL string) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
}

func subdomainHost(tenantID, centralDomain string) string {
	return tenantID + "." + centralDomain
}

type unsupported struct {
	serverType string
	log        *zap.Logger
}

func (u *unsupported) AddSubdomain(ctx context.Context, tenant *tenantdomain.Tenant) bool {
	u.log.Warn("unsupported hosting server type, subdomain not created",
		zap.String("server_type", u.serverType),
		zap.String("tenant_id", tenant.ID),
	)
	return false
}

func (u *unsupported) DeleteSubdomain(ctx context.Context, tenant *tenantdomain.Tenant) bool {
	u.log.Warn("unsupported hosting server type, subdomain not deleted",
		zap.String("server_type", u.serverType),
		zap.String("tenant_id", tenant.ID),
	)
	return false
}
