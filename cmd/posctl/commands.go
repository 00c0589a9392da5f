package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apikeydomain "github.com/smallbiznis/possaas/internal/apikey/domain"
	"github.com/smallbiznis/possaas/internal/importer"
	"github.com/spf13/cobra"
)

func newSeedCmd(boot bootstrapFunc) *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Re-run the idempotent tenant seeder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, boot, func(ctx context.Context, svc *services) error {
				result, err := svc.Provisioning.ReseedTenant(ctx, tenantID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant id (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newImportCmd(boot bootstrapFunc) *cobra.Command {
	var tenantID, entity, file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a CSV or XLSX file into a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := importer.Lookup(entity); !ok {
				return fmt.Errorf("%w: %s (known: %s)", importer.ErrUnknownEntity, entity, strings.Join(importer.Entities(), ", "))
			}
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			return withServices(cmd, boot, func(ctx context.Context, svc *services) error {
				report, err := svc.Imports.Import(ctx, importer.Request{
					TenantID: tenantID,
					Entity:   entity,
					FileName: filepath.Base(file),
					Body:     f,
				})
				if report != nil {
					if printErr := printJSON(cmd.OutOrStdout(), report); printErr != nil && err == nil {
						err = printErr
					}
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant id (required)")
	cmd.Flags().StringVar(&entity, "entity", "", "Entity to import (required)")
	cmd.Flags().StringVar(&file, "file", "", "Path to a .csv or .xlsx file (required)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var entity, out string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the XLSX import template for an entity",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := importer.Template(entity)
			if err != nil {
				return err
			}
			if out == "" {
				out = entity + "_template.xlsx"
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&entity, "entity", "", "Entity (required)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default: <entity>_template.xlsx)")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func newSubdomainCmd(boot bootstrapFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subdomain",
		Short: "Register or remove a tenant subdomain on the control panel",
	}

	var tenantID string
	run := func(remove bool) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, boot, func(ctx context.Context, svc *services) error {
				var (
					ok  bool
					err error
				)
				if remove {
					ok, err = svc.Provisioning.RemoveSubdomain(ctx, tenantID)
				} else {
					ok, err = svc.Provisioning.AddSubdomain(ctx, tenantID)
				}
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("control panel rejected %s for tenant %s", cmd.Name(), tenantID)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", tenantID)
				return err
			})
		}
	}

	add := &cobra.Command{Use: "add", Short: "Register the tenant subdomain", RunE: run(false)}
	del := &cobra.Command{Use: "delete", Short: "Remove the tenant subdomain", RunE: run(true)}
	for _, c := range []*cobra.Command{add, del} {
		c.Flags().StringVar(&tenantID, "tenant", "", "Tenant id (required)")
		_ = c.MarkFlagRequired("tenant")
	}
	cmd.AddCommand(add, del)
	return cmd
}

func newOutboxCmd(boot bootstrapFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect deferred provisioning work",
	}

	var limit int
	retry := &cobra.Command{
		Use:   "retry",
		Short: "Retry pending subdomain registrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, boot, func(ctx context.Context, svc *services) error {
				result, err := svc.Provisioning.RetryPending(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	retry.Flags().IntVar(&limit, "limit", 50, "Maximum events to process")
	cmd.AddCommand(retry)
	return cmd
}

func newReceiptCmd(boot bootstrapFunc) *cobra.Command {
	var tenantID, paymentID, out string
	cmd := &cobra.Command{
		Use:   "receipt",
		Short: "Render the PDF receipt of a tenant payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, boot, func(ctx context.Context, svc *services) error {
				doc, err := svc.Receipts.Receipt(ctx, tenantID, paymentID)
				if err != nil {
					return err
				}
				path := out
				if path == "" {
					path = doc.FileName
				}
				if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant id (required)")
	cmd.Flags().StringVar(&paymentID, "payment", "", "Payment id (required)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default: receipt_<tenant>_<payment>.pdf)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("payment")
	return cmd
}

func newAPIKeyCmd(boot bootstrapFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage operator API keys",
	}

	var (
		name    string
		scopes  []string
		expires time.Duration
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a key; the secret is printed once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, boot, func(ctx context.Context, svc *services) error {
				secret, err := svc.APIKeys.Create(ctx, apikeydomain.CreateRequest{Name: name, Scopes: scopes, ExpiresIn: expires})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), secret)
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "Key name (required)")
	create.Flags().StringSliceVar(&scopes, "scope", nil, "Scopes: "+strings.Join(apikeydomain.KnownScopes(), ", "))
	create.Flags().DurationVar(&expires, "expires-in", 0, "Lifetime, e.g. 720h (default: never expires)")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("scope")

	list := &cobra.Command{
		Use:   "list",
		Short: "List keys without their secrets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, boot, func(ctx context.Context, svc *services) error {
				keys, err := svc.APIKeys.List(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), keys)
			})
		},
	}

	var keyID string
	rotate := &cobra.Command{
		Use:   "rotate",
		Short: "Replace a key; the old one expires after a grace period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, boot, func(ctx context.Context, svc *services) error {
				secret, err := svc.APIKeys.Rotate(ctx, keyID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), secret)
			})
		},
	}
	revoke := &cobra.Command{
		Use:   "revoke",
		Short: "Disable a key immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, boot, func(ctx context.Context, svc *services) error {
				if err := svc.APIKeys.Revoke(ctx, keyID); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: revoked\n", keyID)
				return err
			})
		},
	}
	for _, c := range []*cobra.Command{rotate, revoke} {
		c.Flags().StringVar(&keyID, "key", "", "Key id (required)")
		_ = c.MarkFlagRequired("key")
	}

	cmd.AddCommand(create, list, rotate, revoke)
	return cmd
}

func newSettingsCmd(boot bootstrapFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage cached platform settings",
	}
	flush := &cobra.Command{
		Use:   "flush-cache",
		Short: "Drop cached settings after editing them in the central database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, boot, func(ctx context.Context, svc *services) error {
				if err := svc.Settings.Invalidate(ctx); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "settings cache flushed")
				return err
			})
		},
	}
	cmd.AddCommand(flush)
	return cmd
}
