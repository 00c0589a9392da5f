package subdomain

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/internal/observability/metrics"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
	"go.uber.org/zap"
)

const cpanelPath = "/json-api/cpanel"

type cpanel struct {
	cfg     Config
	client  *resty.Client
	metrics *metrics.Metrics
	log     *zap.Logger
}

func newCPanel(cfg Config, m *metrics.Metrics, log *zap.Logger) *cpanel {
	client := newClient(cfg, "https://"+cfg.CentralDomain+":2083").
		SetHeader("Authorization", "cpanel "+cfg.Username+":"+cfg.APIKey)
	return &cpanel{cfg: cfg, client: client, metrics: m, log: log}
}

func (c *cpanel) AddSubdomain(ctx context.Context, tenant *tenantdomain.Tenant) bool {
	return c.call(ctx, OperationAdd, tenant.ID, map[string]string{
		"cpanel_jsonapi_func":    "addsubdomain",
		"cpanel_jsonapi_module":  "SubDomain",
		"cpanel_jsonapi_version": "2",
		"domain":                 tenant.ID,
		"rootdomain":             c.cfg.CentralDomain,
		"dir":                    c.cfg.Dir,
	})
}

func (c *cpanel) DeleteSubdomain(ctx context.Context, tenant *tenantdomain.Tenant) bool {
	return c.call(ctx, OperationDelete, tenant.ID, map[string]string{
		"cpanel_jsonapi_func":    "delsubdomain",
		"cpanel_jsonapi_module":  "SubDomain",
		"cpanel_jsonapi_version": "2",
		"domain":                 subdomainHost(tenant.ID, c.cfg.CentralDomain),
	})
}

func (c *cpanel) call(ctx context.Context, operation, tenantID string, query map[string]string) bool {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(cpanelPath)

	ok := err == nil && resp.IsSuccess()
	c.metrics.RecordRegistrarCall(config.ServerTypeCPanel, operation, ok)
	if err != nil {
		c.log.Error("cpanel request failed",
			zap.String("operation", operation),
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		return false
	}
	if !ok {
		c.log.Error("cpanel returned error status",
			zap.String("operation", operation),
			zap.String("tenant_id", tenantID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return false
	}

	c.log.Info("cpanel subdomain call succeeded",
		zap.String("operation", operation),
		zap.String("tenant_id", tenantID),
	)
	return true
}
