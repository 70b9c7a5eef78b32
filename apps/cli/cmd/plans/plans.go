package plans

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	plansrepo "github.com/vetcare-hq/vetcare-saas/domains/plans/be/repo"
	plansservice "github.com/vetcare-hq/vetcare-saas/domains/plans/be/service"
	platformlogging "github.com/vetcare-hq/vetcare-saas/platform/go/logging"
	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
)

// Command groups plan catalog helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage the plan catalog",
	}

	cmd.AddCommand(seedCommand())
	cmd.AddCommand(listCommand())
	return cmd
}

func seedCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the built-in plan catalog",
		Long:  "Validate and upsert the built-in plans (trial, basic, pro, enterprise). Existing plans converge to the current definitions; tenants keep their plan assignment.",
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

			repo := plansrepo.NewPostgresRepository(planStore)
			validator := persistence.NewLimitsValidator()

			if err := plansservice.Seed(ctx, repo, validator, plansservice.DefaultCatalog(), logger); err != nil {
				return fmt.Errorf("seed plans: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Plan catalog seeded.")
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	_ = c.MarkFlagRequired("database-url")

	return c
}

func listCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "list",
		Short: "List the plans in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			planStore, err := persistence.NewPlanStore(pool)
			if err != nil {
				return fmt.Errorf("init plan store: %w", err)
			}

			svc := plansservice.New(plansrepo.NewPostgresRepository(planStore))
			plans, err := svc.List(ctx)
			if err != nil {
				return fmt.Errorf("list plans: %w", err)
			}

			for _, plan := range plans {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-24s %8.2f/mo  users=%s clients=%s storage=%gGB\n",
					plan.ID, plan.Name, plan.MonthlyPrice,
					formatLimit(plan.Limits.MaxUsers),
					formatLimit(plan.Limits.MaxClients),
					plan.Limits.MaxStorageGB)
			}
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	_ = c.MarkFlagRequired("database-url")

	return c
}

func formatLimit(value int) string {
	if value == plansservice.Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", value)
}
