package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	ScopeAll          = "*"
	ScopeTenantsRead  = "tenants:read"
	ScopeTenantsWrite = "tenants:write"
	ScopeImportsWrite = "imports:write"
)

// KnownScopes lists the scopes a key may be created with.
func KnownScopes() []string {
	return []string{ScopeAll, ScopeTenantsRead, ScopeTenantsWrite, ScopeImportsWrite}
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, key *APIKey) error
	Update(ctx context.Context, db *gorm.DB, key *APIKey) error
	FindByKeyID(ctx context.Context, db *gorm.DB, keyID string) (*APIKey, error)
	List(ctx context.Context, db *gorm.DB) ([]APIKey, error)
	TouchLastUsed(ctx context.Context, db *gorm.DB, keyID string, at time.Time) error
}

type Service interface {
	List(ctx context.Context) ([]Response, error)
	Create(ctx context.Context, req CreateRequest) (*SecretResponse, error)
	Rotate(ctx context.Context, keyID string) (*SecretResponse, error)
	Revoke(ctx context.Context, keyID string) error
	// Authenticate resolves a raw key presented by a caller.
	Authenticate(ctx context.Context, raw string) (*APIKey, error)
}

type CreateRequest struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
	// ExpiresIn of zero means the key never expires.
	ExpiresIn time.Duration `json:"expires_in"`
}

type Response struct {
	KeyID            string     `json:"key_id"`
	Name             string     `json:"name"`
	Scopes           []string   `json:"scopes"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	LastUsedAt       *time.Time `json:"last_used_at"`
	ExpiresAt        *time.Time `json:"expires_at"`
	RotatedFromKeyID *string    `json:"rotated_from_key_id"`
}

type SecretResponse struct {
	KeyID  string `json:"key_id"`
	APIKey string `json:"api_key"`
}

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidScope   = errors.New("invalid_scope")
	ErrInvalidKeyID   = errors.New("invalid_key_id")
	ErrNotFound       = errors.New("api_key_not_found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrScopeForbidden = errors.New("api_key_scope_forbidden")
)
