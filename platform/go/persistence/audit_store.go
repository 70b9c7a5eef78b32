package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLogTable defines the fully-qualified table for the append-only audit log.
const AuditLogTable = "admin.audit_log"

// AuditEntryRecord is one immutable audit row. The subsystem only ever inserts
// and reads; there are no update or delete paths.
type AuditEntryRecord struct {
	EntryID   uuid.UUID `db:"entry_id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	Actor     string    `db:"actor"`
	Action    string    `db:"action"`
	Category  string    `db:"category"`
	Details   string    `db:"details"`
	CreatedAt time.Time `db:"created_at"`
}

// AuditStore provides access to the audit log table.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore creates a store; assumes the bootstrap DDL already ran.
func NewAuditStore(pool *pgxpool.Pool) (*AuditStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &AuditStore{pool: pool}, nil
}

const auditColumns = "entry_id, tenant_id, actor, action, category, details, created_at"

// Insert appends one entry.
func (s *AuditStore) Insert(ctx context.Context, rec AuditEntryRecord) error {
	if rec.EntryID == uuid.Nil {
		return errors.New("entry id is required")
	}
	if rec.TenantID == uuid.Nil {
		return errors.New("tenant id is required")
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (entry_id, tenant_id, actor, action, category, details, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, AuditLogTable)

	_, err := s.pool.Exec(ctx, query,
		rec.EntryID, rec.TenantID, rec.Actor, rec.Action, rec.Category, rec.Details, rec.CreatedAt,
	)
	return err
}

// ListByTenant returns the tenant's entries, newest first, with the total count.
func (s *AuditStore) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]AuditEntryRecord, int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE tenant_id = $1", AuditLogTable)
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	query := fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE tenant_id = $1
        ORDER BY created_at DESC
        LIMIT %d OFFSET %d
    `, auditColumns, AuditLogTable, limit, offset)

	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var records []AuditEntryRecord
	for rows.Next() {
		var rec AuditEntryRecord
		if err := rows.Scan(&rec.EntryID, &rec.TenantID, &rec.Actor, &rec.Action,
			&rec.Category, &rec.Details, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
