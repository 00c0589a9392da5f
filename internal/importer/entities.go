package importer

import (
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	retaildomain "github.com/smallbiznis/possaas/internal/retail/domain"
	"gorm.io/gorm"
)

const (
	EntityBrand    = "brand"
	EntityCategory = "category"
	EntityUnit     = "unit"
	EntityCurrency = "currency"
	EntityCountry  = "country"
	EntityState    = "state"
	EntityCity     = "city"
	EntityCustomer = "customer"
	EntityEmployee = "employee"
	EntityProduct  = "product"

	defaultBarcodeSymbology = "C128"
	defaultUnitOperator     = "*"
)

var descriptors = map[string]Descriptor{
	EntityBrand:    brandDescriptor(),
	EntityCategory: categoryDescriptor(),
	EntityUnit:     unitDescriptor(),
	EntityCurrency: currencyDescriptor(),
	EntityCountry:  countryDescriptor(),
	EntityState:    stateDescriptor(),
	EntityCity:     cityDescriptor(),
	EntityCustomer: customerDescriptor(),
	EntityEmployee: employeeDescriptor(),
	EntityProduct:  productDescriptor(),
}

// Lookup returns the descriptor for entity.
func Lookup(entity string) (Descriptor, bool) {
	d, ok := descriptors[strings.ToLower(strings.TrimSpace(entity))]
	return d, ok
}

// Entities lists the importable entities in name order.
func Entities() []string {
	out := make([]string, 0, len(descriptors))
	for name := range descriptors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func ptr[T any](v T) *T { return &v }

func brandRef(heading string) Reference {
	return Reference{
		Heading: heading,
		Table:   "brands",
		Column:  "title",
		Policy:  PolicyCreate,
		New: func(id snowflake.ID, key string, now time.Time) any {
			return &retaildomain.Brand{ID: id, Title: key, IsActive: true, CreatedAt: now, UpdatedAt: now}
		},
	}
}

func categoryRef(heading string) Reference {
	return Reference{
		Heading: heading,
		Table:   "categories",
		Column:  "name",
		Policy:  PolicyCreate,
		New: func(id snowflake.ID, key string, now time.Time) any {
			return &retaildomain.Category{ID: id, Name: key, IsActive: true, CreatedAt: now, UpdatedAt: now}
		},
	}
}

func parentCategoryRef() Reference {
	ref := categoryRef("parent_category")
	ref.Self = true
	return ref
}

func countryRef() Reference {
	return Reference{
		Heading:   "country_code",
		Table:     "countries",
		Column:    "iso2",
		Policy:    PolicyRequired,
		Normalize: strings.ToUpper,
	}
}

func brandDescriptor() Descriptor {
	return Descriptor{
		Entity:     EntityBrand,
		Permission: "brand-import",
		Key:        "title",
		Headings:   []string{"title", "image"},
		Rules: map[string]string{
			"title": "required,max=255",
			"image": "omitempty,max=255",
		},
		UniqueBy: []string{"title"},
		Update:   []string{"image", "is_active", "updated_at"},
		Slugged:  true,
		Build: func(row Row, bc BuildContext) (any, error) {
			return &retaildomain.Brand{
				ID:        bc.ID,
				Title:     row.Str("title"),
				Image:     row.Str("image"),
				IsActive:  true,
				CreatedAt: bc.Now,
				UpdatedAt: bc.Now,
			}, nil
		},
	}
}

func categoryDescriptor() Descriptor {
	return Descriptor{
		Entity:     EntityCategory,
		Permission: "category-import",
		Key:        "name",
		Headings:   []string{"name", "parent_category"},
		Rules: map[string]string{
			"name":            "required,max=255",
			"parent_category": "omitempty,max=255",
		},
		References: []Reference{parentCategoryRef()},
		UniqueBy:   []string{"name"},
		Update:     []string{"parent_id", "is_active", "updated_at"},
		Slugged:    true,
		Build: func(row Row, bc BuildContext) (any, error) {
			return &retaildomain.Category{
				ID:        bc.ID,
				Name:      row.Str("name"),
				ParentID:  bc.Refs["parent_category"],
				IsActive:  true,
				CreatedAt: bc.Now,
				UpdatedAt: bc.Now,
			}, nil
		},
	}
}

func unitDescriptor() Descriptor {
	return Descriptor{
		Entity:     EntityUnit,
		Permission: "unit-import",
		Key:        "unit_code",
		Headings:   []string{"unit_code", "unit_name", "base_unit", "operator", "operation_value"},
		Rules: map[string]string{
			"unit_code":       "required,max=64",
			"unit_name":       "required,max=255",
			"base_unit":       "omitempty,max=64",
			"operator":        "omitempty,oneof=* /",
			"operation_value": "omitempty,numeric",
		},
		References: []Reference{{
			Heading: "base_unit",
			Table:   "units",
			Column:  "unit_code",
			Policy:  PolicyNullable,
			Self:    true,
		}},
		UniqueBy: []string{"unit_code"},
		Update:   []string{"unit_name", "base_unit", "operator", "operation_value", "is_active", "updated_at"},
		Build: func(row Row, bc BuildContext) (any, error) {
			unit := &retaildomain.Unit{
				ID:        bc.ID,
				UnitCode:  row.Str("unit_code"),
				UnitName:  row.Str("unit_name"),
				BaseUnit:  bc.Refs["base_unit"],
				IsActive:  true,
				CreatedAt: bc.Now,
				UpdatedAt: bc.Now,
			}
			// Conversion only applies to derived units.
			if unit.BaseUnit != nil {
				op := row.Str("operator")
				if op == "" {
					op = defaultUnitOperator
				}
				unit.Operator = &op
				unit.OperationValue = ptr(row.Float("operation_value", 1))
			}
			return unit, nil
		},
	}
}

func currencyDescriptor() Descriptor {
	return Descriptor{
		Entity:     EntityCurrency,
		Permission: "currency-import",
		Key:        "code",
		Headings:   []string{"name", "code", "exchange_rate"},
		Rules: map[string]string{
			"name":          "required,max=255",
			"code":          "required,max=16",
			"exchange_rate": "omitempty,numeric",
		},
		Identity: func(row Row) string { return strings.ToUpper(row.Str("code")) },
		UniqueBy: []string{"code"},
		Update:   []string{"name", "exchange_rate", "updated_at"},
		Build: func(row Row, bc BuildContext) (any, error) {
			return &retaildomain.Currency{
				ID:           bc.ID,
				Name:         row.Str("name"),
				Code:         strings.ToUpper(row.Str("code")),
				ExchangeRate: row.Float("exchange_rate", 1),
				IsActive:     true,
				CreatedAt:    bc.Now,
				UpdatedAt:    bc.Now,
			}, nil
		},
	}
}

func countryDescriptor() Descriptor {
	return Descriptor{
		Entity:     EntityCountry,
		Permission: "country-import",
		Key:        "iso2",
		Headings:   []string{"name", "iso2", "iso3", "phone_code"},
		Rules: map[string]string{
			"name":       "required,max=255",
			"iso2":       "required,len=2,alpha",
			"iso3":       "omitempty,len=3,alpha",
			"phone_code": "omitempty,max=16",
		},
		Identity: func(row Row) string { return strings.ToUpper(row.Str("iso2")) },
		UniqueBy: []string{"iso2"},
		Update:   []string{"name", "iso3", "phone_code", "updated_at"},
		Build: func(row Row, bc BuildContext) (any, error) {
			return &retaildomain.Country{
				ID:        bc.ID,
				Name:      row.Str("name"),
				ISO2:      strings.ToUpper(row.Str("iso2")),
				ISO3:      strings.ToUpper(row.Str("iso3")),
				PhoneCode: row.Str("phone_code"),
				CreatedAt: bc.Now,
				UpdatedAt: bc.Now,
			}, nil
		},
	}
}

func stateDescriptor() Descriptor {
	return Descriptor{
		Entity:     EntityState,
		Permission: "state-import",
		Key:        "state_code",
		Headings:   []string{"country_code", "name", "state_code"},
		Rules: map[string]string{
			"country_code": "required,len=2",
			"name":         "required,max=255",
			"state_code":   "required,max=16",
		},
		References: []Reference{countryRef()},
		Identity: func(row Row) string {
			return strings.ToUpper(row.Str("country_code")) + "|" + strings.ToUpper(row.Str("state_code"))
		},
		UniqueBy: []string{"country_id", "state_code"},
		Update:   []string{"name", "updated_at"},
		Build: func(row Row, bc BuildContext) (any, error) {
			return &retaildomain.State{
				ID:        bc.ID,
				CountryID: bc.Refs.ID("country_code"),
				Name:      row.Str("name"),
				StateCode: strings.ToUpper(row.Str("state_code")),
				CreatedAt: bc.Now,
				UpdatedAt: bc.Now,
			}, nil
		},
	}
}

func cityDescriptor() Descriptor {
	return Descriptor{
		Entity:     EntityCity,
		Permission: "city-import",
		Key:        "name",
		Headings:   []string{"country_code", "state_code", "name"},
		Rules: map[string]string{
			"country_code": "required,len=2",
			"state_code":   "omitempty,max=16",
			"name":         "required,max=255",
		},
		References: []Reference{
			countryRef(),
			{
				Heading:   "state_code",
				Table:     "states",
				Column:    "state_code",
				Policy:    PolicyNullable,
				Normalize: strings.ToUpper,
				Scope: func(refs Refs) map[string]any {
					if refs["country_code"] == nil {
						return nil
					}
					return map[string]any{"country_id": refs.ID("country_code")}
				},
			},
		},
		Identity: func(row Row) string {
			return strings.ToUpper(row.Str("country_code")) + "|" + row.Str("name")
		},
		UniqueBy: []string{"country_id", "name"},
		Update:   []string{"state_id", "updated_at"},
		Build: func(row Row, bc BuildContext) (any, error) {
			return &retaildomain.City{
				ID:        bc.ID,
				CountryID: bc.Refs.ID("country_code"),
				StateID:   bc.Refs["state_code"],
				Name:      row.Str("name"),
				CreatedAt: bc.Now,
				UpdatedAt: bc.Now,
			}, nil
		},
	}
}

func customerDescriptor() Descriptor {
	return Descriptor{
		Entity:     EntityCustomer,
		Permission: "customers-import",
		Key:        "phone_number",
		Headings: []string{
			"customer_group", "name", "company_name", "email", "phone_number", "address",
			"city", "state", "postal_code", "country", "tax_no", "deposit", "points",
		},
		Rules: map[string]string{
			"customer_group": "omitempty,max=255",
			"name":           "required,max=255",
			"company_name":   "omitempty,max=255",
			"email":          "omitempty,email,max=255",
			"phone_number":   "required,max=64",
			"postal_code":    "omitempty,max=32",
			"tax_no":         "omitempty,max=64",
			"deposit":        "omitempty,numeric",
			"points":         "omitempty,numeric",
		},
		References: []Reference{{
			Heading: "customer_group",
			Table:   "customer_groups",
			Column:  "name",
			Policy:  PolicyNullable,
		}},
		Mode:     ModeEachRow,
		UniqueBy: []string{"phone_number"},
		Update: []string{
			"customer_group_id", "name", "company_name", "email", "address", "city", "state",
			"postal_code", "country", "tax_no", "deposit", "points", "updated_at",
		},
		Build: func(row Row, bc BuildContext) (any, error) {
			return &retaildomain.Customer{
				ID:              bc.ID,
				CustomerGroupID: bc.Refs["customer_group"],
				Name:            row.Str("name"),
				CompanyName:     row.Str("company_name"),
				Email:           row.Str("email"),
				PhoneNumber:     row.Str("phone_number"),
				Address:         row.Str("address"),
				City:            row.Str("city"),
				State:           row.Str("state"),
				PostalCode:      row.Str("postal_code"),
				Country:         row.Str("country"),
				TaxNo:           row.Str("tax_no"),
				Deposit:         row.Float("deposit", 0),
				Points:          row.Float("points", 0),
				IsActive:        true,
				CreatedAt:       bc.Now,
				UpdatedAt:       bc.Now,
			}, nil
		},
		AfterCreate: attachGenericDiscountPlans,
	}
}

// attachGenericDiscountPlans links a new customer to every active generic
// discount plan.
func attachGenericDiscountPlans(tx *gorm.DB, model any) error {
	customer := model.(*retaildomain.Customer)

	var planIDs []snowflake.ID
	if err := tx.Model(&retaildomain.DiscountPlan{}).
		Where("type = ? AND is_active = ?", retaildomain.DiscountPlanGeneric, true).
		Pluck("id", &planIDs).Error; err != nil {
		return err
	}
	if len(planIDs) == 0 {
		return nil
	}

	links := make([]retaildomain.DiscountPlanCustomer, len(planIDs))
	for i, id := range planIDs {
		links[i] = retaildomain.DiscountPlanCustomer{
			DiscountPlanID: id,
			CustomerID:     customer.ID,
			CreatedAt:      customer.CreatedAt,
		}
	}
	return tx.Create(&links).Error
}

func employeeDescriptor() Descriptor {
	return Descriptor{
		Entity:     EntityEmployee,
		Permission: "employees-import",
		Key:        "staff_id",
		Headings: []string{
			"name", "email", "phone_number", "department", "staff_id",
			"address", "city", "country", "basic_salary", "is_active",
		},
		Rules: map[string]string{
			"name":         "required,max=255",
			"email":        "omitempty,email,max=255",
			"phone_number": "omitempty,max=64",
			"department":   "required,max=255",
			"staff_id":     "required,max=64",
			"basic_salary": "omitempty,numeric",
		},
		References: []Reference{{
			Heading: "department",
			Table:   "departments",
			Column:  "name",
			Policy:  PolicyCreate,
			New: func(id snowflake.ID, key string, now time.Time) any {
				return &retaildomain.Department{ID: id, Name: key, IsActive: true, CreatedAt: now, UpdatedAt: now}
			},
		}},
		UniqueBy: []string{"staff_id"},
		Update: []string{
			"name", "email", "phone_number", "department_id", "address", "city",
			"country", "basic_salary", "is_active", "updated_at",
		},
		Build: func(row Row, bc BuildContext) (any, error) {
			return &retaildomain.Employee{
				ID:           bc.ID,
				Name:         row.Str("name"),
				Email:        row.Str("email"),
				PhoneNumber:  row.Str("phone_number"),
				DepartmentID: bc.Refs.ID("department"),
				StaffID:      row.Str("staff_id"),
				Address:      row.Str("address"),
				City:         row.Str("city"),
				Country:      row.Str("country"),
				BasicSalary:  row.Float("basic_salary", 0),
				IsActive:     row.Bool("is_active", true),
				CreatedAt:    bc.Now,
				UpdatedAt:    bc.Now,
			}, nil
		},
	}
}

func productDescriptor() Descriptor {
	return Descriptor{
		Entity:     EntityProduct,
		Permission: "products-import",
		Key:        "code",
		Headings: []string{
			"name", "code", "type", "brand", "category", "unit_code", "cost", "price",
			"qty", "alert_quantity", "tax_name", "tax_method", "product_details", "barcode_symbology",
		},
		Rules: map[string]string{
			"name":           "required,max=255",
			"code":           "required,max=128",
			"type":           "omitempty,oneofci=standard combo digital service",
			"brand":          "omitempty,max=255",
			"category":       "required,max=255",
			"unit_code":      "required,max=64",
			"cost":           "required,numeric",
			"price":          "required,numeric",
			"qty":            "omitempty,numeric",
			"alert_quantity": "omitempty,numeric",
			"tax_method":     "omitempty,oneof=1 2",
		},
		References: []Reference{
			brandRef("brand"),
			categoryRef("category"),
			{Heading: "unit_code", Table: "units", Column: "unit_code", Policy: PolicyRequired},
			{Heading: "tax_name", Table: "taxes", Column: "name", Policy: PolicyNullable},
		},
		UniqueBy: []string{"code"},
		Update: []string{
			"name", "type", "barcode_symbol", "brand_id", "category_id", "unit_id",
			"purchase_unit_id", "sale_unit_id", "cost", "price", "qty", "alert_quantity",
			"tax_id", "tax_method", "product_details", "updated_at",
		},
		Slugged: true,
		Build: func(row Row, bc BuildContext) (any, error) {
			unitID := bc.Refs.ID("unit_code")
			productType := strings.ToLower(row.Str("type"))
			if productType == "" {
				productType = retaildomain.ProductTypeStandard
			}
			barcode := row.Str("barcode_symbology")
			if barcode == "" {
				barcode = defaultBarcodeSymbology
			}
			return &retaildomain.Product{
				ID:             bc.ID,
				Name:           row.Str("name"),
				Code:           row.Str("code"),
				Type:           productType,
				BarcodeSymbol:  barcode,
				BrandID:        bc.Refs["brand"],
				CategoryID:     bc.Refs.ID("category"),
				UnitID:         unitID,
				PurchaseUnitID: unitID,
				SaleUnitID:     unitID,
				Cost:           row.Float("cost", 0),
				Price:          row.Float("price", 0),
				Qty:            row.Float("qty", 0),
				AlertQuantity:  row.FloatPtr("alert_quantity"),
				TaxID:          bc.Refs["tax_name"],
				TaxMethod:      row.Int("tax_method", 1),
				ProductDetails: row.Str("product_details"),
				IsActive:       true,
				CreatedAt:      bc.Now,
				UpdatedAt:      bc.Now,
			}, nil
		},
	}
}
