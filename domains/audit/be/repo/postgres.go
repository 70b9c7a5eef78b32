package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/vetcare-hq/vetcare-saas/domains/audit/be/service"
	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
)

// PostgresRepository implements the audit repository using the shared persistence layer.
type PostgresRepository struct {
	store *persistence.AuditStore
}

// NewPostgresRepository constructs a repository backed by AuditStore.
func NewPostgresRepository(store *persistence.AuditStore) *PostgresRepository {
	if store == nil {
		panic("audit store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) Insert(ctx context.Context, entry service.Entry) error {
	return r.store.Insert(ctx, persistence.AuditEntryRecord{
		EntryID:   entry.ID,
		TenantID:  entry.TenantID,
		Actor:     entry.Actor,
		Action:    entry.Action,
		Category:  entry.Category,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt,
	})
}

func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]service.Entry, int, error) {
	records, total, err := r.store.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]service.Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, service.Entry{
			ID:        rec.EntryID,
			TenantID:  rec.TenantID,
			Actor:     rec.Actor,
			Action:    rec.Action,
			Category:  rec.Category,
			Details:   rec.Details,
			CreatedAt: rec.CreatedAt,
		})
	}
	return entries, total, nil
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
