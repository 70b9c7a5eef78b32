package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/vetcare-hq/vetcare-saas/database"
)

// Bootstrap applies the platform DDL (admin registry plus clinic tables) in a
// single transaction, in dependency order:
//  1. admin/plans.sql
//  2. admin/tenants.sql
//  3. admin/audit_log.sql
//  4. clinic/users.sql
//  5. clinic/owners.sql
//  6. clinic/patients.sql
//  7. clinic/attachments.sql
//
// SQL is embedded at build time so binaries stay self-contained. The helper is
// idempotent (CREATE IF NOT EXISTS throughout) and intended for the admin CLI
// and tests.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("bootstrap: pool is required")
	}

	var statements []string
	for _, asset := range []string{
		sqlassets.PlansSQL,
		sqlassets.TenantsSQL,
		sqlassets.AuditLogSQL,
		sqlassets.UsersSQL,
		sqlassets.OwnersSQL,
		sqlassets.PatientsSQL,
		sqlassets.AttachmentsSQL,
	} {
		statements = append(statements, splitStatements(asset)...)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func splitStatements(sql string) []string {
	raw := strings.Split(sql, ";")
	statements := make([]string, 0, len(raw))
	for _, stmt := range raw {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}
