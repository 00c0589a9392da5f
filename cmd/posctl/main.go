// Command posctl runs tenant operations against the configured databases
// without going through the HTTP service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/smallbiznis/possaas/internal/apikey"
	apikeydomain "github.com/smallbiznis/possaas/internal/apikey/domain"
	"github.com/smallbiznis/possaas/internal/audit"
	"github.com/smallbiznis/possaas/internal/authorization"
	"github.com/smallbiznis/possaas/internal/cache"
	"github.com/smallbiznis/possaas/internal/clock"
	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/internal/importer"
	"github.com/smallbiznis/possaas/internal/migration"
	"github.com/smallbiznis/possaas/internal/observability"
	"github.com/smallbiznis/possaas/internal/providers"
	"github.com/smallbiznis/possaas/internal/provisioning"
	provisioningdomain "github.com/smallbiznis/possaas/internal/provisioning/domain"
	"github.com/smallbiznis/possaas/internal/receipt"
	"github.com/smallbiznis/possaas/internal/seed"
	"github.com/smallbiznis/possaas/internal/setting"
	settingdomain "github.com/smallbiznis/possaas/internal/setting/domain"
	"github.com/smallbiznis/possaas/internal/tenant"
	"github.com/smallbiznis/possaas/pkg/db"
	"github.com/smallbiznis/possaas/pkg/db/tenantdb"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type importService interface {
	Import(ctx context.Context, req importer.Request) (*importer.Report, error)
}

type receiptService interface {
	Receipt(ctx context.Context, tenantID, paymentID string) (*receipt.Document, error)
}

type settingsCache interface {
	Invalidate(ctx context.Context) error
}

// services are the operations the commands drive.
type services struct {
	Provisioning provisioningdomain.Service
	Imports      importService
	Receipts     receiptService
	APIKeys      apikeydomain.Service
	Settings     settingsCache
}

// bootstrapFunc starts the dependency graph and returns a stop func.
type bootstrapFunc func(ctx context.Context) (*services, func(context.Context) error, error)

func bootstrap(ctx context.Context) (*services, func(context.Context) error, error) {
	var (
		prov     provisioningdomain.Service
		imports  *importer.Service
		receipts *receipt.Service
		apiKeys  apikeydomain.Service
		settings settingdomain.Resolver
	)
	app := fx.New(
		fx.NopLogger,
		config.Module,
		observability.Module,
		db.Module,
		tenantdb.Module,
		migration.Module,
		clock.Module,
		cache.Module,
		setting.Module,
		tenant.Module,
		authorization.Module,
		audit.Module,
		apikey.Module,
		seed.Module,
		provisioning.Module,
		importer.Module,
		providers.Module,
		receipt.Module,
		fx.Populate(&prov, &imports, &receipts, &apiKeys, &settings),
	)
	if err := app.Start(ctx); err != nil {
		return nil, nil, err
	}
	return &services{
		Provisioning: prov,
		Imports:      imports,
		Receipts:     receipts,
		APIKeys:      apiKeys,
		Settings:     settings,
	}, app.Stop, nil
}

func newRootCmd(boot bootstrapFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "posctl",
		Short:         "Operate PosSaaS tenants",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newSeedCmd(boot),
		newImportCmd(boot),
		newTemplateCmd(),
		newSubdomainCmd(boot),
		newOutboxCmd(boot),
		newReceiptCmd(boot),
		newAPIKeyCmd(boot),
		newSettingsCmd(boot),
	)
	return root
}

// withServices runs fn against a started graph and always stops it.
func withServices(cmd *cobra.Command, boot bootstrapFunc, fn func(ctx context.Context, svc *services) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, stop, err := boot(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer func() {
		if stopErr := stop(context.WithoutCancel(ctx)); stopErr != nil && err == nil {
			err = stopErr
		}
	}()
	return fn(ctx, svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd(bootstrap).ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
