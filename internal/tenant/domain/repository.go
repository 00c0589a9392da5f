package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrTenantNotFound  = errors.New("tenant_not_found")
	ErrTenantExists    = errors.New("tenant_exists")
	ErrPackageNotFound = errors.New("package_not_found")
	ErrPaymentNotFound = errors.New("payment_not_found")
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTenant(ctx context.Context, tenant *Tenant) error
	UpdateTenant(ctx context.Context, tenant *Tenant) error
	FindTenant(ctx context.Context, id string) (*Tenant, error)
	SetHostingDomainID(ctx context.Context, tenantID string, domainID *int64) error
	CreateDomain(ctx context.Context, domain *Domain) error
	CreatePayment(ctx context.Context, payment *TenantPayment) error
	// ListPayments returns the tenant's payments, newest first.
	ListPayments(ctx context.Context, tenantID string) ([]TenantPayment, error)
	FindPayment(ctx context.Context, tenantID string, id snowflake.ID) (*TenantPayment, error)
	FindPackage(ctx context.Context, id snowflake.ID) (*Package, error)
}
