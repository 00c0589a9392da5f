package authorization

import (
	"context"
	"sync"

	"github.com/smallbiznis/possaas/pkg/db/tenantdb"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("authorization",
	fx.Provide(NewRegistry),
)

// Registry keeps one Assignor per tenant so the casbin adapter and model are
// built once per process. Can still reloads the policy on every check.
type Registry struct {
	tenants tenantdb.Provider
	log     *zap.Logger

	mu        sync.Mutex
	assignors map[string]*Assignor
}

func NewRegistry(tenants tenantdb.Provider, log *zap.Logger) *Registry {
	return &Registry{
		tenants:   tenants,
		log:       log,
		assignors: make(map[string]*Assignor),
	}
}

// For returns the tenant's Assignor, creating it on first use.
func (r *Registry) For(ctx context.Context, tenantID string) (*Assignor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.assignors[tenantID]; ok {
		return a, nil
	}

	conn, err := r.tenants.Connect(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	a, err := New(conn, r.log.With(zap.String("tenant_id", tenantID)))
	if err != nil {
		return nil, err
	}
	r.assignors[tenantID] = a
	return a, nil
}

// Evict drops the cached Assignor so the next For reloads policies.
func (r *Registry) Evict(tenantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.assignors, tenantID)
}
