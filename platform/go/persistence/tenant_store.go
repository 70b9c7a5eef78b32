package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TenantsTable defines the fully-qualified table for the tenant registry.
const TenantsTable = "admin.tenants"

// ErrTenantNotFound is returned when a tenant record is not found.
var ErrTenantNotFound = errors.New("tenant not found")

// TenantRecord represents one clinic row. Settings is the opaque settings blob
// (currency, locale) stored as jsonb.
type TenantRecord struct {
	TenantID      uuid.UUID `db:"tenant_id"`
	Name          string    `db:"name"`
	PlanID        string    `db:"plan_id"`
	Status        string    `db:"status"`
	StorageUsedMB float64   `db:"storage_used_mb"`
	Settings      []byte    `db:"settings"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// TenantStore provides access to the tenants table.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore creates a store; assumes the bootstrap DDL already ran.
func NewTenantStore(pool *pgxpool.Pool) (*TenantStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TenantStore{pool: pool}, nil
}

const tenantColumns = "tenant_id, name, plan_id, status, storage_used_mb, settings, created_at, updated_at"

// Create inserts a new tenant row.
func (s *TenantStore) Create(ctx context.Context, rec TenantRecord) (TenantRecord, error) {
	if rec.TenantID == uuid.Nil {
		return TenantRecord{}, errors.New("tenant id is required")
	}
	if len(rec.Settings) == 0 {
		rec.Settings = []byte(`{}`)
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (tenant_id, name, plan_id, status, storage_used_mb, settings)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING %s
    `, TenantsTable, tenantColumns)

	row := s.pool.QueryRow(ctx, query,
		rec.TenantID, rec.Name, rec.PlanID, rec.Status, rec.StorageUsedMB, rec.Settings,
	)
	return scanTenantRecord(row)
}

// Get fetches a tenant by id.
func (s *TenantStore) Get(ctx context.Context, id uuid.UUID) (TenantRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = $1`, tenantColumns, TenantsTable)
	return scanTenantRecord(s.pool.QueryRow(ctx, query, id))
}

// List returns paginated tenants with an optional status filter.
func (s *TenantStore) List(ctx context.Context, status *string, limit, offset int) ([]TenantRecord, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if status != nil {
		where += " AND status = $1"
		args = append(args, *status)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", TenantsTable, where)
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tenants: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s %s
        ORDER BY created_at DESC
        LIMIT %d OFFSET %d`, tenantColumns, TenantsTable, where, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var records []TenantRecord
	for rows.Next() {
		rec, err := scanTenantRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// UpdateTenantParams represents admin-editable fields. Nil leaves the field unchanged.
type UpdateTenantParams struct {
	Name     *string
	PlanID   *string
	Status   *string
	Settings []byte
}

// Update applies the provided fields and returns the updated record.
func (s *TenantStore) Update(ctx context.Context, id uuid.UUID, params UpdateTenantParams) (TenantRecord, error) {
	setParts := []string{}
	var args []any

	if params.Name != nil {
		args = append(args, *params.Name)
		setParts = append(setParts, fmt.Sprintf("name = $%d", len(args)))
	}
	if params.PlanID != nil {
		args = append(args, *params.PlanID)
		setParts = append(setParts, fmt.Sprintf("plan_id = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		setParts = append(setParts, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(params.Settings) > 0 {
		args = append(args, params.Settings)
		setParts = append(setParts, fmt.Sprintf("settings = $%d", len(args)))
	}

	if len(setParts) == 0 {
		return TenantRecord{}, errors.New("no fields to update")
	}

	args = append(args, id)

	query := fmt.Sprintf(`
        UPDATE %s
        SET %s, updated_at = NOW()
        WHERE tenant_id = $%d
        RETURNING %s
    `, TenantsTable, strings.Join(setParts, ", "), len(args), tenantColumns)

	return scanTenantRecord(s.pool.QueryRow(ctx, query, args...))
}

// IncrementStorage atomically adds deltaMB (possibly negative) to the tenant's
// storage counter. The addition happens inside the database so concurrent
// increments never lose updates.
func (s *TenantStore) IncrementStorage(ctx context.Context, id uuid.UUID, deltaMB float64) error {
	query := fmt.Sprintf(`
        UPDATE %s
        SET storage_used_mb = GREATEST(storage_used_mb + $1, 0), updated_at = NOW()
        WHERE tenant_id = $2
    `, TenantsTable)

	tag, err := s.pool.Exec(ctx, query, deltaMB, id)
	if err != nil {
		return fmt.Errorf("increment storage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func scanTenantRecord(row pgx.Row) (TenantRecord, error) {
	var rec TenantRecord
	err := row.Scan(&rec.TenantID, &rec.Name, &rec.PlanID, &rec.Status,
		&rec.StorageUsedMB, &rec.Settings, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TenantRecord{}, ErrTenantNotFound
		}
		return TenantRecord{}, err
	}
	return rec, nil
}
