package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageStore computes per-tenant usage counts for quota checks. Counts are
// always read fresh at check time; nothing here is cached.
type UsageStore struct {
	pool *pgxpool.Pool
}

// NewUsageStore creates a store over the clinic tables.
func NewUsageStore(pool *pgxpool.Pool) (*UsageStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &UsageStore{pool: pool}, nil
}

// CountUsers returns the current number of clinic users for the tenant.
func (s *UsageStore) CountUsers(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return s.countByTenant(ctx, UsersTable, tenantID)
}

// CountOwners returns the current number of owners ("clients") for the tenant.
func (s *UsageStore) CountOwners(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return s.countByTenant(ctx, OwnersTable, tenantID)
}

func (s *UsageStore) countByTenant(ctx context.Context, table string, tenantID uuid.UUID) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE tenant_id = $1", table)
	var count int
	if err := s.pool.QueryRow(ctx, query, tenantID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}
