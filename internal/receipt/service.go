// Package receipt renders printable receipts for tenant subscription payments.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/internal/providers/pdf"
	provisioningdomain "github.com/smallbiznis/possaas/internal/provisioning/domain"
	settingdomain "github.com/smallbiznis/possaas/internal/setting/domain"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("receipt.service",
	fx.Provide(NewService),
)

var ErrInvalidPayment = errors.New("invalid_payment_id")

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	Tenants  tenantdomain.Repository
	Settings settingdomain.Resolver
	Holder   *config.ProvisioningHolder
	Renderer pdf.Renderer
	Log      *zap.Logger
}

type Service struct {
	tenants  tenantdomain.Repository
	settings settingdomain.Resolver
	holder   *config.ProvisioningHolder
	renderer pdf.Renderer
	log      *zap.Logger
}

func NewService(p Params) *Service {
	return &Service{
		tenants:  p.Tenants,
		settings: p.Settings,
		holder:   p.Holder,
		renderer: p.Renderer,
		log:      p.Log.Named("receipt.service"),
	}
}

// Document is a rendered file ready to be served.
type Document struct {
	FileName string
	Body     []byte
}

func (s *Service) ListPayments(ctx context.Context, tenantID string) ([]tenantdomain.TenantPayment, error) {
	tenant, err := s.tenants.FindTenant(ctx, normalize(tenantID))
	if err != nil {
		return nil, err
	}
	payments, err := s.tenants.ListPayments(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []tenantdomain.TenantPayment{}
	}
	return payments, nil
}

// Receipt renders the receipt of one payment of tenantID.
func (s *Service) Receipt(ctx context.Context, tenantID, paymentID string) (*Document, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(paymentID))
	if err != nil || id <= 0 {
		return nil, ErrInvalidPayment
	}

	tenant, err := s.tenants.FindTenant(ctx, normalize(tenantID))
	if err != nil {
		return nil, err
	}
	payment, err := s.tenants.FindPayment(ctx, tenant.ID, id)
	if err != nil {
		return nil, err
	}

	packageName := payment.PackageID.String()
	if pkg, err := s.tenants.FindPackage(ctx, payment.PackageID); err == nil {
		packageName = pkg.Name
	} else if !errors.Is(err, tenantdomain.ErrPackageNotFound) {
		return nil, err
	}

	var issuedBy, developedBy, currency string
	gs, err := s.settings.GeneralSetting(ctx)
	switch {
	case err == nil:
		issuedBy, developedBy, currency = gs.SiteTitle, gs.DevelopedBy, gs.Currency
	case errors.Is(err, settingdomain.ErrGeneralSettingMissing):
		s.log.Warn("receipt rendered without platform settings", zap.String("tenant_id", tenant.ID))
	default:
		return nil, err
	}

	expiry := provisioningdomain.ExpiryDate(payment.CreatedAt, false, 0, payment.SubscriptionType)
	body, err := s.renderer.RenderReceipt(ctx, pdf.Receipt{
		Number:           payment.ID.String(),
		IssuedBy:         issuedBy,
		DevelopedBy:      developedBy,
		TenantName:       tenant.Name,
		CompanyName:      tenant.CompanyName,
		Email:            tenant.Email,
		Domain:           tenant.ID + "." + s.holder.Get().CentralDomain,
		Package:          packageName,
		SubscriptionType: payment.SubscriptionType,
		PaidBy:           payment.PaidBy,
		Reference:        payment.Reference,
		DatePaid:         payment.CreatedAt.Format(dateLayout),
		ExpiryDate:       expiry.Format(dateLayout),
		Amount:           formatAmount(currency, payment.Amount),
	})
	if err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", payment.ID, err)
	}

	return &Document{
		FileName: fmt.Sprintf("receipt_%s_%s.pdf", tenant.ID, payment.ID),
		Body:     body,
	}, nil
}

func formatAmount(currency string, amount float64) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%s %.2f", currency, amount)
}

func normalize(tenantID string) string {
	return strings.ToLower(strings.TrimSpace(tenantID))
}
