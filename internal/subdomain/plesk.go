package subdomain

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/internal/observability/metrics"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
	"go.uber.org/zap"
)

const pleskDomainsPath = "/api/v2/domains"

type pleskHostingSettings struct {
	DocumentRoot string `json:"document_root"`
}

type pleskParentDomain struct {
	Name string `json:"name"`
}

type pleskCreateRequest struct {
	Name            string               `json:"name"`
	HostingType     string               `json:"hosting_type"`
	HostingSettings pleskHostingSettings `json:"hosting_settings"`
	ParentDomain    pleskParentDomain    `json:"parent_domain"`
}

type pleskCreateResponse struct {
	ID   int64  `json:"id"`
	GUID string `json:"guid"`
}

type plesk struct {
	cfg     Config
	client  *resty.Client
	store   DomainIDStore
	metrics *metrics.Metrics
	log     *zap.Logger
}

func newPlesk(cfg Config, store DomainIDStore, m *metrics.Metrics, log *zap.Logger) *plesk {
	client := newClient(cfg, "https://"+cfg.Host+":8443").
		SetBasicAuth(cfg.Username, cfg.Password).
		SetHeader("Content-Type", "application/json")
	return &plesk{cfg: cfg, client: client, store: store, metrics: m, log: log}
}

func (p *plesk) AddSubdomain(ctx context.Context, tenant *tenantdomain.Tenant) bool {
	var created pleskCreateResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(pleskCreateRequest{
			Name:            subdomainHost(tenant.ID, p.cfg.CentralDomain),
			HostingType:     "virtual",
			HostingSettings: pleskHostingSettings{DocumentRoot: p.cfg.Dir},
			ParentDomain:    pleskParentDomain{Name: p.cfg.CentralDomain},
		}).
		SetResult(&created).
		Post(pleskDomainsPath)

	if !p.done(OperationAdd, tenant.ID, resp, err) {
		return false
	}

	// The panel id is needed to delete the domain later.
	if created.ID != 0 && p.store != nil {
		id := created.ID
		if err := p.store.SetHostingDomainID(ctx, tenant.ID, &id); err != nil {
			p.log.Error("failed to persist plesk domain id",
				zap.String("tenant_id", tenant.ID),
				zap.Int64("domain_id", id),
				zap.Error(err),
			)
		}
		tenant.HostingDomainID = &id
	}
	return true
}

func (p *plesk) DeleteSubdomain(ctx context.Context, tenant *tenantdomain.Tenant) bool {
	if tenant.HostingDomainID == nil {
		p.log.Warn("plesk domain id unknown, nothing to delete", zap.String("tenant_id", tenant.ID))
		return false
	}

	resp, err := p.client.R().
		SetContext(ctx).
		Delete(pleskDomainsPath + "/" + strconv.FormatInt(*tenant.HostingDomainID, 10))

	if !p.done(OperationDelete, tenant.ID, resp, err) {
		return false
	}
	if p.store != nil {
		if err := p.store.SetHostingDomainID(ctx, tenant.ID, nil); err != nil {
			p.log.Warn("failed to clear plesk domain id", zap.String("tenant_id", tenant.ID), zap.Error(err))
		}
	}
	tenant.HostingDomainID = nil
	return true
}

func (p *plesk) done(operation, tenantID string, resp *resty.Response, err error) bool {
	ok := err == nil && resp.IsSuccess()
	p.metrics.RecordRegistrarCall(config.ServerTypePlesk, operation, ok)
	switch {
	case err != nil:
		p.log.Error("plesk request failed",
			zap.String("operation", operation),
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	case !ok:
		p.log.Error("plesk returned error status",
			zap.String("operation", operation),
			zap.String("tenant_id", tenantID),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
	}
	return ok
}
