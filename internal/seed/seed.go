// Package seed fills a freshly created tenant database. Every step only
// writes when its target table is empty, so running the seeder again is a
// no-op.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/possaas/internal/authorization"
	"github.com/smallbiznis/possaas/internal/authorization/password"
	retaildomain "github.com/smallbiznis/possaas/internal/retail/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Provide(NewSeeder),
)

var ErrMissingAdmin = errors.New("seed_admin_credentials_missing")

// Data carries everything the seeder writes into a tenant.
type Data struct {
	SiteTitle   string
	SiteLogo    string
	Currency    string
	DevelopedBy string

	Name        string
	Email       string
	PhoneNumber string
	CompanyName string
	Password    string

	PackageID        snowflake.ID
	SubscriptionType string
	ExpiryDate       time.Time
	Modules          []string
	Features         []string

	// Pairs seed role_has_permissions.
	Pairs []authorization.Pair
	// Permissions are granted to the admin user and the Admin role.
	Permissions []string
}

type Result struct {
	AdminUserID snowflake.ID
	Seeded      []string
	Skipped     []string
}

func (r *Result) record(step string, seeded bool) {
	if seeded {
		r.Seeded = append(r.Seeded, step)
		return
	}
	r.Skipped = append(r.Skipped, step)
}

type Seeder struct {
	node *snowflake.Node
	log  *zap.Logger
}

func NewSeeder(node *snowflake.Node, log *zap.Logger) *Seeder {
	return &Seeder{
		node: node,
		log:  log.Named("seed.tenant"),
	}
}

// Seed runs every tenant seed step against conn.
func (s *Seeder) Seed(ctx context.Context, conn *gorm.DB, assignor *authorization.Assignor, data Data) (*Result, error) {
	if strings.TrimSpace(data.Email) == "" || data.Password == "" {
		return nil, ErrMissingAdmin
	}
	conn = conn.WithContext(ctx)
	result := &Result{}

	steps := []struct {
		name  string
		model any
		run   func(tx *gorm.DB) error
	}{
		{"roles", &authorization.Role{}, s.seedRoles},
		{"permissions", &authorization.Permission{}, func(tx *gorm.DB) error {
			return EnsurePermissions(ctx, tx, s.node, append(authorization.Catalog(), data.Permissions...))
		}},
	}
	for _, step := range steps {
		seeded, err := seedIfEmpty(conn, step.model, step.run)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", step.name, err)
		}
		result.record(step.name, seeded)
	}

	seeded, err := ifEmpty(conn, &authorization.RoleHasPermission{}, func() error {
		pairs := append([]authorization.Pair{}, data.Pairs...)
		for _, perm := range data.Permissions {
			pairs = append(pairs, authorization.Pair{Permission: perm, Role: authorization.RoleAdmin})
		}
		n, err := assignor.SyncRolePermissions(ctx, pairs)
		s.log.Debug("role permissions linked", zap.Int("count", n))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("seed role_has_permissions: %w", err)
	}
	result.record("role_has_permissions", seeded)

	seeded, err = ifEmpty(conn, &retaildomain.User{}, func() error {
		user, err := s.createAdmin(conn, data)
		if err != nil {
			return err
		}
		result.AdminUserID = user.ID
		return assignor.AssignToUser(ctx, user.ID, []string{authorization.RoleAdmin}, data.Permissions)
	})
	if err != nil {
		return nil, fmt.Errorf("seed admin user: %w", err)
	}
	result.record("users", seeded)
	if result.AdminUserID == 0 {
		if result.AdminUserID, err = FindAdmin(conn, data.Email); err != nil {
			return nil, err
		}
	}

	base := []struct {
		name  string
		model any
		run   func(tx *gorm.DB) error
	}{
		{"general_settings", &retaildomain.GeneralSetting{}, func(tx *gorm.DB) error { return s.seedGeneralSetting(tx, data) }},
		{"accounts", &retaildomain.Account{}, s.seedAccounts},
		{"warehouses", &retaildomain.Warehouse{}, s.seedWarehouses},
		{"billers", &retaildomain.Biller{}, func(tx *gorm.DB) error { return s.seedBillers(tx, data) }},
		{"customer_groups", &retaildomain.CustomerGroup{}, s.seedCustomerGroups},
		{"customers", &retaildomain.Customer{}, s.seedCustomers},
		{"discount_plans", &retaildomain.DiscountPlan{}, s.seedDiscountPlans},
		{"currencies", &retaildomain.Currency{}, func(tx *gorm.DB) error { return s.seedCurrencies(tx, data) }},
		{"units", &retaildomain.Unit{}, s.seedUnits},
		{"taxes", &retaildomain.Tax{}, s.seedTaxes},
		{"brands", &retaildomain.Brand{}, s.seedBrands},
		{"categories", &retaildomain.Category{}, s.seedCategories},
		{"products", &retaildomain.Product{}, s.seedProducts},
		{"departments", &retaildomain.Department{}, s.seedDepartments},
		{"employees", &retaildomain.Employee{}, func(tx *gorm.DB) error { return s.seedEmployees(tx, data) }},
		{"countries", &retaildomain.Country{}, s.seedCountries},
		{"states", &retaildomain.State{}, s.seedStates},
		{"cities", &retaildomain.City{}, s.seedCities},
	}
	for _, step := range base {
		seeded, err := seedIfEmpty(conn, step.model, step.run)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", step.name, err)
		}
		result.record(step.name, seeded)
	}

	s.log.Info("tenant seeded",
		zap.Strings("seeded", result.Seeded),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// seedIfEmpty runs fn in a transaction when model's table has no rows.
func seedIfEmpty(conn *gorm.DB, model any, fn func(tx *gorm.DB) error) (bool, error) {
	return ifEmpty(conn, model, func() error {
		return conn.Transaction(fn)
	})
}

func ifEmpty(conn *gorm.DB, model any, fn func() error) (bool, error) {
	var count int64
	if err := conn.Model(model).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	return true, fn()
}

func (s *Seeder) seedRoles(tx *gorm.DB) error {
	roles := []authorization.Role{
		{Name: authorization.RoleAdmin, Description: "Admin can access all data"},
		{Name: authorization.RoleOwner, Description: "Owner of the store"},
		{Name: authorization.RoleStaff, Description: "Staff has specific access"},
		{Name: authorization.RoleCustomer, Description: "Customer account"},
	}
	for i := range roles {
		roles[i].ID = s.node.Generate()
		roles[i].GuardName = authorization.GuardWeb
		roles[i].IsActive = true
	}
	return tx.Create(&roles).Error
}

func (s *Seeder) createAdmin(conn *gorm.DB, data Data) (*retaildomain.User, error) {
	hashed, err := password.Hash(data.Password)
	if err != nil {
		return nil, err
	}
	user := &retaildomain.User{
		ID:           s.node.Generate(),
		Name:         data.Name,
		Email:        strings.ToLower(strings.TrimSpace(data.Email)),
		PhoneNumber:  data.PhoneNumber,
		CompanyName:  data.CompanyName,
		PasswordHash: hashed,
		IsActive:     true,
	}
	if err := conn.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindAdmin returns the user with email, or the oldest user when none matches.
func FindAdmin(conn *gorm.DB, email string) (snowflake.ID, error) {
	var user retaildomain.User
	err := conn.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = conn.Order("created_at ASC").First(&user).Error
	}
	if err != nil {
		return 0, fmt.Errorf("find admin user: %w", err)
	}
	return user.ID, nil
}

func (s *Seeder) seedGeneralSetting(tx *gorm.DB, data Data) error {
	title := data.SiteTitle
	if data.CompanyName != "" {
		title = data.CompanyName
	}
	return tx.Create(&retaildomain.GeneralSetting{
		ID:               s.node.Generate(),
		SiteTitle:        title,
		SiteLogo:         data.SiteLogo,
		Currency:         data.Currency,
		CurrencyPosition: "prefix",
		StaffAccess:      "all",
		DateFormat:       "d-m-Y",
		DevelopedBy:      data.DevelopedBy,
		CompanyName:      data.CompanyName,
		PackageID:        data.PackageID,
		SubscriptionType: data.SubscriptionType,
		ExpiryDate:       data.ExpiryDate,
		Modules:          strings.Join(data.Modules, ","),
	}).Error
}

// EnsurePermissions inserts the named permissions that do not exist yet.
func EnsurePermissions(ctx context.Context, conn *gorm.DB, node *snowflake.Node, names []string) error {
	names = uniqueNames(names)
	if len(names) == 0 {
		return nil
	}

	var existing []string
	if err := conn.WithContext(ctx).
		Model(&authorization.Permission{}).
		Where("guard_name = ? AND name IN ?", authorization.GuardWeb, names).
		Pluck("name", &existing).Error; err != nil {
		return err
	}
	have := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		have[name] = struct{}{}
	}

	rows := make([]authorization.Permission, 0, len(names))
	for _, name := range names {
		if _, ok := have[name]; ok {
			continue
		}
		rows = append(rows, authorization.Permission{
			ID:        node.Generate(),
			Name:      name,
			GuardName: authorization.GuardWeb,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return conn.WithContext(ctx).CreateInBatches(&rows, 200).Error
}

func uniqueNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
