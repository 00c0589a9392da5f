package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// APIKey is a hashed operator credential for the back-office API.
type APIKey struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	KeyID            string       `gorm:"column:key_id;type:varchar(64);not null;uniqueIndex:ux_api_keys_key_id"`
	Name             string       `gorm:"type:text;not null"`
	Scopes           string       `gorm:"type:text;not null"`
	KeyHash          string       `gorm:"column:key_hash;type:varchar(64);not null"`
	IsActive         bool         `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time    `gorm:"not null"`
	UpdatedAt        time.Time    `gorm:"not null"`
	LastUsedAt       *time.Time   `gorm:"column:last_used_at"`
	ExpiresAt        *time.Time   `gorm:"column:expires_at"`
	RotatedFromKeyID *string      `gorm:"column:rotated_from_key_id;type:varchar(64)"`
}

// TableName sets the database table name.
func (APIKey) TableName() string { return "api_keys" }

func (k APIKey) ScopeList() []string {
	out := []string{}
	for _, s := range strings.Split(k.Scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Allows reports whether the key carries scope or the wildcard scope.
func (k APIKey) Allows(scope string) bool {
	scopes := k.ScopeList()
	return slices.Contains(scopes, ScopeAll) || slices.Contains(scopes, scope)
}

// Expired reports whether the key stopped being valid at or before now.
func (k APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}

// HashAPIKey returns the hex sha256 of a presented key. Only hashes are stored.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
