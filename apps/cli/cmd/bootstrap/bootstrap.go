package bootstrap

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
)

// Command applies the platform DDL (admin registry plus clinic tables).
// The statements are idempotent, so re-running against an existing database
// is safe.
func Command() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "bootstrap",
		Short: "Apply the database schema",
		Long:  "Apply the embedded DDL for the admin registry (plans, tenants, audit log) and the clinic tables (users, owners, patients, attachments).",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			if err := persistence.Bootstrap(ctx, pool); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied.")
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	_ = c.MarkFlagRequired("database-url")

	return c
}
