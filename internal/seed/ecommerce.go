package seed

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	retaildomain "github.com/smallbiznis/possaas/internal/retail/domain"
	"gorm.io/gorm"
)

// SeedEcommerce writes the storefront settings for tenants whose package
// includes the ecommerce module.
func (s *Seeder) SeedEcommerce(ctx context.Context, conn *gorm.DB, data Data) (bool, error) {
	conn = conn.WithContext(ctx)
	return seedIfEmpty(conn, &retaildomain.EcommerceSetting{}, func(tx *gorm.DB) error {
		title := data.CompanyName
		if title == "" {
			title = data.SiteTitle
		}
		return tx.Create(&retaildomain.EcommerceSetting{
			ID:           s.node.Generate(),
			SiteTitle:    title,
			Theme:        "default",
			ContactEmail: data.Email,
			ContactPhone: data.PhoneNumber,
			IsActive:     true,
		}).Error
	})
}

type slugTarget struct {
	table  string
	column string
}

var slugTargets = []slugTarget{
	{table: "brands", column: "title"},
	{table: "categories", column: "name"},
	{table: "products", column: "name"},
}

type slugRow struct {
	ID   snowflake.ID
	Name string
	Slug *string
}

// NormalizeSlugs fills missing brand, category and product slugs. Slugs are
// unique per table; collisions get a numeric suffix.
func NormalizeSlugs(ctx context.Context, conn *gorm.DB) error {
	for _, target := range slugTargets {
		if err := normalizeTable(conn.WithContext(ctx), target); err != nil {
			return fmt.Errorf("normalize %s slugs: %w", target.table, err)
		}
	}
	return nil
}

func normalizeTable(conn *gorm.DB, target slugTarget) error {
	var rows []slugRow
	if err := conn.Table(target.table).
		Select("id, " + target.column + " AS name, slug").
		Order("id ASC").
		Scan(&rows).Error; err != nil {
		return err
	}

	taken := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r.Slug != nil && *r.Slug != "" {
			taken[*r.Slug] = struct{}{}
		}
	}

	return conn.Transaction(func(tx *gorm.DB) error {
		for _, r := range rows {
			if r.Slug != nil && *r.Slug != "" {
				continue
			}
			value := uniqueSlug(slug.Make(r.Name), taken)
			if err := tx.Table(target.table).Where("id = ?", r.ID).Update("slug", value).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func uniqueSlug(base string, taken map[string]struct{}) string {
	if base == "" {
		base = "item"
	}
	candidate := base
	for i := 2; ; i++ {
		if _, ok := taken[candidate]; !ok {
			break
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
	taken[candidate] = struct{}{}
	return candidate
}

// MarkProductsOnline publishes every product to the storefront.
func MarkProductsOnline(ctx context.Context, conn *gorm.DB) (int64, error) {
	res := conn.WithContext(ctx).
		Model(&retaildomain.Product{}).
		Where("is_online = ?", false).
		Update("is_online", true)
	return res.RowsAffected, res.Error
}
