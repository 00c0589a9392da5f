package domain

import (
	"context"
	"errors"
	"time"
)

const (
	MessageSuccess        = "Tenant created successfully"
	MessageMailNotSetup   = "Tenant created successfully. Please configure mail settings to send the welcome email."
	MessageMailSendFailed = "Tenant created successfully, but the welcome email could not be sent."
)

var (
	ErrInvalidRequest       = errors.New("invalid_provisioning_request")
	ErrConfigurationMissing = errors.New("provisioning_configuration_missing")
)

type Service interface {
	CreateTenant(ctx context.Context, req CreateTenantRequest) (*Result, error)
	ChangePlan(ctx context.Context, req ChangePlanRequest) (*ChangePlanResult, error)
	AddSubdomain(ctx context.Context, tenantID string) (bool, error)
	RemoveSubdomain(ctx context.Context, tenantID string) (bool, error)
	RetryPending(ctx context.Context, limit int) (*RetryResult, error)
	ReseedTenant(ctx context.Context, tenantID string) (*ReseedResult, error)
}

type CreateTenantRequest struct {
	PackageID        string  `json:"package_id" validate:"required"`
	SubscriptionType string  `json:"subscription_type" validate:"required,oneof=monthly yearly"`
	Tenant           string  `json:"tenant" validate:"required,subdomain"`
	Name             string  `json:"name" validate:"required,max=255"`
	Email            string  `json:"email" validate:"required,email"`
	Password         string  `json:"password" validate:"required,min=6"`
	PhoneNumber      string  `json:"phone_number" validate:"required,max=64"`
	CompanyName      string  `json:"company_name" validate:"required,max=255"`
	Price            float64 `json:"price" validate:"gte=0"`
	PaymentMethod    string  `json:"payment_method,omitempty" validate:"omitempty,max=64"`
}

type Result struct {
	TenantID    string    `json:"tenant_id"`
	Domain      string    `json:"domain"`
	ExpiryDate  time.Time `json:"expiry_date"`
	AdminUserID string    `json:"admin_user_id"`
	PaymentID   string    `json:"payment_id,omitempty"`
	Message     string    `json:"message"`
	// Degraded names the non-fatal steps that did not complete.
	Degraded []string `json:"degraded,omitempty"`
}

type ChangePlanRequest struct {
	TenantID         string  `json:"-"`
	PackageID        string  `json:"package_id" validate:"required"`
	SubscriptionType string  `json:"subscription_type" validate:"required,oneof=monthly yearly"`
	Price            float64 `json:"price" validate:"gte=0"`
	PaymentMethod    string  `json:"payment_method,omitempty" validate:"omitempty,max=64"`
}

type ChangePlanResult struct {
	TenantID   string    `json:"tenant_id"`
	PackageID  string    `json:"package_id"`
	ExpiryDate time.Time `json:"expiry_date"`
	Granted    []string  `json:"granted"`
	Revoked    []string  `json:"revoked"`
}

type RetryResult struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type ReseedResult struct {
	TenantID string   `json:"tenant_id"`
	Seeded   []string `json:"seeded"`
	Skipped  []string `json:"skipped"`
}
