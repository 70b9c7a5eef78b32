package tenant

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	plansrepo "github.com/vetcare-hq/vetcare-saas/domains/plans/be/repo"
	plansservice "github.com/vetcare-hq/vetcare-saas/domains/plans/be/service"
	tenantsrepo "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/repo"
	tenantsservice "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	platformlogging "github.com/vetcare-hq/vetcare-saas/platform/go/logging"
	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
)

// Command groups tenant management helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage clinic tenants",
	}

	cmd.AddCommand(createCommand())
	return cmd
}

func createCommand() *cobra.Command {
	var (
		databaseURL string
		name        string
		planID      string
		currency    string
		locale      string
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Register a new clinic tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			logger, err := platformlogging.NewLogger(platformlogging.Config{Component: "cli", Level: "info"})
			if err != nil {
				log.Fatalf("init zap logger: %v", err)
			}
			defer func() {
				_ = logger.Sync()
			}()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			planStore, err := persistence.NewPlanStore(pool)
			if err != nil {
				return fmt.Errorf("init plan store: %w", err)
			}
			tenantStore, err := persistence.NewTenantStore(pool)
			if err != nil {
				return fmt.Errorf("init tenant store: %w", err)
			}
			usageStore, err := persistence.NewUsageStore(pool)
			if err != nil {
				return fmt.Errorf("init usage store: %w", err)
			}

			planService := plansservice.New(plansrepo.NewPostgresRepository(planStore))
			tenantService := tenantsservice.New(tenantsrepo.NewPostgresRepository(tenantStore), planService, usageStore, logger)

			created, err := tenantService.Create(ctx, tenantsservice.CreateInput{
				Name:   name,
				PlanID: planID,
				Settings: tenantsservice.Settings{
					Currency: currency,
					Locale:   locale,
				},
			})
			if err != nil {
				return fmt.Errorf("create tenant: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Tenant created: %s (%s) on plan %s\n", created.Name, created.ID, created.PlanID)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&name, "name", "", "Clinic display name")
	c.Flags().StringVar(&planID, "plan", "trial", "Initial plan id")
	c.Flags().StringVar(&currency, "currency", "USD", "Billing currency code")
	c.Flags().StringVar(&locale, "locale", "en-US", "Interface locale")

	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("name")

	return c
}
