package domain

import (
	"context"

	"github.com/smallbiznis/possaas/internal/providers/email"
	"github.com/smallbiznis/possaas/internal/providers/storage"
)

// Resolver reads platform settings cache-first and turns them into
// immutable provider configs.
type Resolver interface {
	GeneralSetting(ctx context.Context) (*GeneralSetting, error)
	MailConfig(ctx context.Context) (email.Config, error)
	// StorageConfig returns the backend rooted at root.
	StorageConfig(ctx context.Context, root string) (storage.Config, error)
	Invalidate(ctx context.Context) error
}
