// Package domain contains the central-database models for tenants and plans.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	SubscriptionMonthly = "monthly"
	SubscriptionYearly  = "yearly"
)

// Tenant is an isolated customer instance with its own database. The id is
// the subdomain label.
type Tenant struct {
	ID               string            `gorm:"primaryKey;type:varchar(63)" json:"id"`
	Name             string            `gorm:"type:text" json:"name"`
	Email            string            `gorm:"type:text" json:"email"`
	PhoneNumber      string            `gorm:"type:text" json:"phone_number"`
	CompanyName      string            `gorm:"type:text" json:"company_name"`
	PackageID        snowflake.ID      `gorm:"index" json:"package_id"`
	SubscriptionType string            `gorm:"type:varchar(16)" json:"subscription_type"`
	ExpiryDate       time.Time         `gorm:"type:date" json:"expiry_date"`
	Modules          string            `gorm:"type:text" json:"modules"`
	HostingDomainID  *int64            `gorm:"column:hosting_domain_id" json:"hosting_domain_id,omitempty"`
	Data             datatypes.JSONMap `gorm:"type:json" json:"data,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (Tenant) TableName() string { return "tenants" }

// ModuleList splits the comma-joined module column.
func (t Tenant) ModuleList() []string {
	return SplitModules(t.Modules)
}

// Domain maps a fully qualified host name to a tenant.
type Domain struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Domain    string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_domains_domain" json:"domain"`
	TenantID  string       `gorm:"type:varchar(63);not null;index" json:"tenant_id"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Domain) TableName() string { return "domains" }

// TenantPayment records a subscription payment taken at signup or plan change.
type TenantPayment struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID         string       `gorm:"type:varchar(63);not null;index" json:"tenant_id"`
	PackageID        snowflake.ID `gorm:"not null" json:"package_id"`
	Amount           float64      `gorm:"not null" json:"amount"`
	PaidBy           string       `gorm:"type:varchar(64);not null" json:"paid_by"`
	SubscriptionType string       `gorm:"type:varchar(16)" json:"subscription_type"`
	Reference        string       `gorm:"type:varchar(64)" json:"reference"`
	CreatedAt        time.Time    `json:"created_at"`
}

func (TenantPayment) TableName() string { return "tenant_payments" }

// Package is a read-only plan catalog entry. Features holds a JSON list of
// feature names; RolePermissionValues holds "(perm,role),(perm,role)" pairs.
type Package struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	Name                 string       `gorm:"type:text;not null" json:"name"`
	IsFreeTrial          bool         `gorm:"not null;default:false" json:"is_free_trial"`
	MonthlyFee           float64      `json:"monthly_fee"`
	YearlyFee            float64      `json:"yearly_fee"`
	Features             string       `gorm:"type:text" json:"features"`
	RolePermissionValues string       `gorm:"type:text" json:"role_permission_values"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

func (Package) TableName() string { return "packages" }

// SplitModules parses a comma-joined module list, dropping blanks.
func SplitModules(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
