package authorization

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrMalformedFeatures = errors.New("malformed_features")
	ErrMalformedPairs    = errors.New("malformed_role_permission_values")
)

// basePermissions are granted to every tenant admin regardless of package.
var basePermissions = []string{
	"dashboard",
	"users-index", "users-add", "users-edit", "users-delete",
	"general_setting", "mail_setting", "role_permission",
	"currency", "currency-import",
	"country-import", "state-import", "city-import",
	"warehouse", "tax", "customer_group", "biller-index", "biller-add", "biller-edit", "biller-delete",
}

var featureCatalog = map[string][]string{
	"product_and_categories": {
		"products-index", "products-add", "products-edit", "products-delete",
		"product_history", "print_barcode",
		"category", "brand", "unit",
		"products-import", "category-import", "brand-import", "unit-import",
	},
	"purchase_and_sale": {
		"purchases-index", "purchases-add", "purchases-edit", "purchases-delete",
		"sales-index", "sales-add", "sales-edit", "sales-delete",
		"customers-index", "customers-add", "customers-edit", "customers-delete", "customers-import",
		"suppliers-index", "suppliers-add", "suppliers-edit", "suppliers-delete",
		"discount_plan", "discount", "gift_card", "coupon",
	},
	"sale_return": {
		"returns-index", "returns-add", "returns-edit", "returns-delete",
	},
	"purchase_return": {
		"purchase-return-index", "purchase-return-add", "purchase-return-edit", "purchase-return-delete",
	},
	"expense": {
		"expenses-index", "expenses-add", "expenses-edit", "expenses-delete",
	},
	"income": {
		"incomes-index", "incomes-add", "incomes-edit", "incomes-delete",
	},
	"transfer": {
		"transfers-index", "transfers-add", "transfers-edit", "transfers-delete",
	},
	"quotation": {
		"quotes-index", "quotes-add", "quotes-edit", "quotes-delete",
	},
	"delivery": {
		"delivery",
	},
	"stock_count_and_adjustment": {
		"stock_count", "adjustment",
	},
	"report": {
		"profit-loss", "best-seller", "product-report", "daily-sale", "monthly-sale",
		"daily-purchase", "monthly-purchase", "sale-report", "purchase-report",
		"customer-report", "due-report", "warehouse-stock-report",
	},
	"hrm": {
		"department", "attendance", "payroll", "holiday",
		"employees-index", "employees-add", "employees-edit", "employees-delete", "employees-import",
	},
	"accounting": {
		"account-index", "balance-sheet", "account-statement", "money-transfer",
	},
	"ecommerce": {
		"ecommerce", "slider", "page", "menu", "social_media", "ecommerce_setting",
	},
}

// FeaturePermissions flattens package features into permission names. The
// base set is always included; unknown features contribute nothing. The
// result is deduplicated and keeps first-seen order.
func FeaturePermissions(features []string) []string {
	out := make([]string, 0, len(basePermissions))
	seen := make(map[string]struct{})
	add := func(names []string) {
		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}

	add(basePermissions)
	for _, feature := range features {
		add(featureCatalog[strings.TrimSpace(feature)])
	}
	return out
}

// Catalog returns every known permission name, sorted.
func Catalog() []string {
	all := make([]string, 0, len(featureCatalog))
	for feature := range featureCatalog {
		all = append(all, feature)
	}
	names := FeaturePermissions(all)
	sort.Strings(names)
	return names
}

// ParseFeatures decodes the package feature list, a JSON array of names.
func ParseFeatures(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var features []string
	if err := json.Unmarshal([]byte(raw), &features); err != nil {
		return nil, ErrMalformedFeatures
	}
	out := features[:0]
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out, nil
}

// Pair grants Permission to Role.
type Pair struct {
	Permission string
	Role       string
}

var pairPattern = regexp.MustCompile(`\(\s*([^(),]+?)\s*,\s*([^(),]+?)\s*\)`)

// ParsePairs reads the "(perm,role),(perm,role)" encoding. Anything other
// than pairs separated by commas makes the whole value malformed.
func ParsePairs(raw string) ([]Pair, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	rest := pairPattern.ReplaceAllString(raw, "")
	if strings.Trim(rest, ", \t\r\n") != "" {
		return nil, ErrMalformedPairs
	}

	matches := pairPattern.FindAllStringSubmatch(raw, -1)
	pairs := make([]Pair, 0, len(matches))
	seen := make(map[Pair]struct{}, len(matches))
	for _, m := range matches {
		p := Pair{Permission: m[1], Role: m[2]}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// PairPermissions returns the distinct permission names named by pairs.
func PairPermissions(pairs []Pair) []string {
	out := make([]string, 0, len(pairs))
	seen := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		if _, ok := seen[p.Permission]; ok {
			continue
		}
		seen[p.Permission] = struct{}{}
		out = append(out, p.Permission)
	}
	return out
}
