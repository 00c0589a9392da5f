package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/possaas/internal/tenant/domain"
	"github.com/smallbiznis/possaas/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateTenant(ctx context.Context, tenant *domain.Tenant) error {
	err := r.db.WithContext(ctx).Create(tenant).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrTenantExists
	}
	return err
}

func (r *repository) UpdateTenant(ctx context.Context, tenant *domain.Tenant) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("id = ?", tenant.ID).
		Updates(map[string]any{
			"name":              tenant.Name,
			"email":             tenant.Email,
			"phone_number":      tenant.PhoneNumber,
			"company_name":      tenant.CompanyName,
			"package_id":        tenant.PackageID,
			"subscription_type": tenant.SubscriptionType,
			"expiry_date":       tenant.ExpiryDate,
			"modules":           tenant.Modules,
			"data":              tenant.Data,
			"updated_at":        tenant.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTenantNotFound
	}
	return nil
}

func (r *repository) FindTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) SetHostingDomainID(ctx context.Context, tenantID string, domainID *int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("id = ?", tenantID).
		Update("hosting_domain_id", domainID).
		Error
}

func (r *repository) CreateDomain(ctx context.Context, d *domain.Domain) error {
	err := r.db.WithContext(ctx).Create(d).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrTenantExists
	}
	return err
}

func (r *repository) CreatePayment(ctx context.Context, payment *domain.TenantPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) ListPayments(ctx context.Context, tenantID string) ([]domain.TenantPayment, error) {
	var payments []domain.TenantPayment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at desc, id desc").
		Find(&payments).Error
	return payments, err
}

func (r *repository) FindPayment(ctx context.Context, tenantID string, id snowflake.ID) (*domain.TenantPayment, error) {
	var payment domain.TenantPayment
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindPackage(ctx context.Context, id snowflake.ID) (*domain.Package, error) {
	var pkg domain.Package
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&pkg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPackageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}
