// Package domain holds the models stored in every tenant database.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is a tenant back-office login.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:varchar(255);not null" json:"name"`
	Email        string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email" json:"email"`
	PhoneNumber  string       `gorm:"type:varchar(64)" json:"phone_number"`
	CompanyName  string       `gorm:"type:varchar(255)" json:"company_name"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// GeneralSetting is the single active settings row of a tenant. Readers use
// the latest row.
type GeneralSetting struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	SiteTitle        string       `gorm:"type:varchar(255)" json:"site_title"`
	SiteLogo         string       `gorm:"type:varchar(255)" json:"site_logo"`
	Currency         string       `gorm:"type:varchar(16)" json:"currency"`
	CurrencyPosition string       `gorm:"type:varchar(16)" json:"currency_position"`
	StaffAccess      string       `gorm:"type:varchar(16)" json:"staff_access"`
	DateFormat       string       `gorm:"type:varchar(32)" json:"date_format"`
	DevelopedBy      string       `gorm:"type:varchar(255)" json:"developed_by"`
	CompanyName      string       `gorm:"type:varchar(255)" json:"company_name"`
	PackageID        snowflake.ID `json:"package_id"`
	SubscriptionType string       `gorm:"type:varchar(16)" json:"subscription_type"`
	ExpiryDate       time.Time    `gorm:"type:date" json:"expiry_date"`
	Modules          string       `gorm:"type:text" json:"modules"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (GeneralSetting) TableName() string { return "general_settings" }

type Account struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	AccountNo      string       `gorm:"type:varchar(64);not null;uniqueIndex:ux_accounts_account_no" json:"account_no"`
	Name           string       `gorm:"type:varchar(255);not null" json:"name"`
	InitialBalance float64      `json:"initial_balance"`
	TotalBalance   float64      `json:"total_balance"`
	IsDefault      bool         `json:"is_default"`
	IsActive       bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

type Warehouse struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_warehouses_name" json:"name"`
	Phone     string       `gorm:"type:varchar(64)" json:"phone"`
	Email     string       `gorm:"type:varchar(255)" json:"email"`
	Address   string       `gorm:"type:text" json:"address"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Warehouse) TableName() string { return "warehouses" }

type Biller struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(255);not null" json:"name"`
	CompanyName string       `gorm:"type:varchar(255)" json:"company_name"`
	Email       string       `gorm:"type:varchar(255)" json:"email"`
	PhoneNumber string       `gorm:"type:varchar(64)" json:"phone_number"`
	Address     string       `gorm:"type:text" json:"address"`
	City        string       `gorm:"type:varchar(255)" json:"city"`
	Country     string       `gorm:"type:varchar(255)" json:"country"`
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Biller) TableName() string { return "billers" }

type CustomerGroup struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Name       string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_customer_groups_name" json:"name"`
	Percentage float64      `json:"percentage"`
	IsActive   bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (CustomerGroup) TableName() string { return "customer_groups" }

type Customer struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerGroupID *snowflake.ID `json:"customer_group_id"`
	Name            string        `gorm:"type:varchar(255);not null" json:"name"`
	CompanyName     string        `gorm:"type:varchar(255)" json:"company_name"`
	Email           string        `gorm:"type:varchar(255)" json:"email"`
	PhoneNumber     string        `gorm:"type:varchar(64);not null;uniqueIndex:ux_customers_phone_number" json:"phone_number"`
	Address         string        `gorm:"type:text" json:"address"`
	City            string        `gorm:"type:varchar(255)" json:"city"`
	State           string        `gorm:"type:varchar(255)" json:"state"`
	PostalCode      string        `gorm:"type:varchar(32)" json:"postal_code"`
	Country         string        `gorm:"type:varchar(255)" json:"country"`
	TaxNo           string        `gorm:"type:varchar(64)" json:"tax_no"`
	Deposit         float64       `json:"deposit"`
	Points          float64       `json:"points"`
	IsActive        bool          `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

const (
	DiscountPlanGeneric = "generic"
	DiscountPlanLimited = "limited"
)

type DiscountPlan struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:varchar(255);not null" json:"name"`
	Type      string       `gorm:"type:varchar(16);not null" json:"type"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (DiscountPlan) TableName() string { return "discount_plans" }

type DiscountPlanCustomer struct {
	DiscountPlanID snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"discount_plan_id"`
	CustomerID     snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"customer_id"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (DiscountPlanCustomer) TableName() string { return "discount_plan_customers" }

type Currency struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:varchar(255);not null" json:"name"`
	Code         string       `gorm:"type:varchar(16);not null;uniqueIndex:ux_currencies_code" json:"code"`
	ExchangeRate float64      `gorm:"not null;default:1" json:"exchange_rate"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (Currency) TableName() string { return "currencies" }

// Unit is a unit of measure. Derived units reference a base unit and convert
// with Operator and OperationValue.
type Unit struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	UnitCode       string        `gorm:"type:varchar(64);not null;uniqueIndex:ux_units_unit_code" json:"unit_code"`
	UnitName       string        `gorm:"type:varchar(255);not null" json:"unit_name"`
	BaseUnit       *snowflake.ID `json:"base_unit"`
	Operator       *string       `gorm:"type:varchar(4)" json:"operator"`
	OperationValue *float64      `json:"operation_value"`
	IsActive       bool          `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (Unit) TableName() string { return "units" }

type Tax struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_taxes_name" json:"name"`
	Rate      float64      `gorm:"not null" json:"rate"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Tax) TableName() string { return "taxes" }

type Brand struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Title     string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_brands_title" json:"title"`
	Slug      *string      `gorm:"type:varchar(255)" json:"slug"`
	Image     string       `gorm:"type:varchar(255)" json:"image"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Brand) TableName() string { return "brands" }

type Category struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	Name      string        `gorm:"type:varchar(255);not null;uniqueIndex:ux_categories_name" json:"name"`
	Slug      *string       `gorm:"type:varchar(255)" json:"slug"`
	ParentID  *snowflake.ID `json:"parent_id"`
	IsActive  bool          `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (Category) TableName() string { return "categories" }

const ProductTypeStandard = "standard"

type Product struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	Name            string        `gorm:"type:varchar(255);not null" json:"name"`
	Code            string        `gorm:"type:varchar(128);not null;uniqueIndex:ux_products_code" json:"code"`
	Slug            *string       `gorm:"type:varchar(255)" json:"slug"`
	Type            string        `gorm:"type:varchar(32);not null" json:"type"`
	BarcodeSymbol   string        `gorm:"type:varchar(32)" json:"barcode_symbology"`
	BrandID         *snowflake.ID `json:"brand_id"`
	CategoryID      snowflake.ID  `gorm:"not null" json:"category_id"`
	UnitID          snowflake.ID  `gorm:"not null" json:"unit_id"`
	PurchaseUnitID  snowflake.ID  `gorm:"not null" json:"purchase_unit_id"`
	SaleUnitID      snowflake.ID  `gorm:"not null" json:"sale_unit_id"`
	Cost            float64       `gorm:"not null" json:"cost"`
	Price           float64       `gorm:"not null" json:"price"`
	Qty             float64       `json:"qty"`
	AlertQuantity   *float64      `json:"alert_quantity"`
	TaxID           *snowflake.ID `json:"tax_id"`
	TaxMethod       int           `gorm:"not null;default:1" json:"tax_method"`
	ProductDetails  string        `gorm:"type:text" json:"product_details"`
	IsActive        bool          `gorm:"not null;default:true" json:"is_active"`
	IsOnline        bool          `gorm:"not null;default:false" json:"is_online"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

type Department struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_departments_name" json:"name"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Department) TableName() string { return "departments" }

type Employee struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:varchar(255);not null" json:"name"`
	Email        string       `gorm:"type:varchar(255)" json:"email"`
	PhoneNumber  string       `gorm:"type:varchar(64)" json:"phone_number"`
	DepartmentID snowflake.ID `gorm:"not null" json:"department_id"`
	StaffID      string       `gorm:"type:varchar(64);not null;uniqueIndex:ux_employees_staff_id" json:"staff_id"`
	Address      string       `gorm:"type:text" json:"address"`
	City         string       `gorm:"type:varchar(255)" json:"city"`
	Country      string       `gorm:"type:varchar(255)" json:"country"`
	BasicSalary  float64      `json:"basic_salary"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (Employee) TableName() string { return "employees" }

type Country struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:varchar(255);not null" json:"name"`
	ISO2      string       `gorm:"column:iso2;type:varchar(2);not null;uniqueIndex:ux_countries_iso2" json:"iso2"`
	ISO3      string       `gorm:"column:iso3;type:varchar(3)" json:"iso3"`
	PhoneCode string       `gorm:"type:varchar(16)" json:"phone_code"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Country) TableName() string { return "countries" }

type State struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CountryID snowflake.ID `gorm:"not null;uniqueIndex:ux_states_country_code,priority:1" json:"country_id"`
	Name      string       `gorm:"type:varchar(255);not null" json:"name"`
	StateCode string       `gorm:"type:varchar(16);not null;uniqueIndex:ux_states_country_code,priority:2" json:"state_code"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (State) TableName() string { return "states" }

type City struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	CountryID snowflake.ID  `gorm:"not null;uniqueIndex:ux_cities_country_name,priority:1" json:"country_id"`
	StateID   *snowflake.ID `json:"state_id"`
	Name      string        `gorm:"type:varchar(255);not null;uniqueIndex:ux_cities_country_name,priority:2" json:"name"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (City) TableName() string { return "cities" }

// EcommerceSetting exists only for tenants whose package includes the
// ecommerce module.
type EcommerceSetting struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	SiteTitle    string       `gorm:"type:varchar(255)" json:"site_title"`
	Theme        string       `gorm:"type:varchar(64)" json:"theme"`
	ContactEmail string       `gorm:"type:varchar(255)" json:"contact_email"`
	ContactPhone string       `gorm:"type:varchar(64)" json:"contact_phone"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (EcommerceSetting) TableName() string { return "ecommerce_settings" }

// Models lists every retail model for schema migration.
func Models() []any {
	return []any{
		&User{},
		&GeneralSetting{},
		&Account{},
		&Warehouse{},
		&Biller{},
		&CustomerGroup{},
		&Customer{},
		&DiscountPlan{},
		&DiscountPlanCustomer{},
		&Currency{},
		&Unit{},
		&Tax{},
		&Brand{},
		&Category{},
		&Product{},
		&Department{},
		&Employee{},
		&Country{},
		&State{},
		&City{},
		&EcommerceSetting{},
	}
}
