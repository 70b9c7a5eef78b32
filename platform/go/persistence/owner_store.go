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

// OwnersTable defines the fully-qualified table for pet owners ("clients").
const OwnersTable = "clinic.owners"

// Owner represents a row in the owners table.
type Owner struct {
	OwnerID   uuid.UUID `db:"owner_id" json:"ownerId"`
	TenantID  uuid.UUID `db:"tenant_id" json:"tenantId"`
	FullName  string    `db:"full_name" json:"fullName"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ErrOwnerNotFound indicates a missing owner record within the tenant scope.
var ErrOwnerNotFound = errors.New("owner not found")

// OwnerStore exposes persistence helpers for the owners table, tenant scoped.
type OwnerStore struct {
	pool *pgxpool.Pool
}

// NewOwnerStore returns a store instance.
func NewOwnerStore(pool *pgxpool.Pool) (*OwnerStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &OwnerStore{pool: pool}, nil
}

const ownerColumns = "owner_id, tenant_id, full_name, email, phone, created_at, updated_at"

// CreateOwnerParams captures the fields required to insert a new owner record.
type CreateOwnerParams struct {
	OwnerID  uuid.UUID
	TenantID uuid.UUID
	FullName string
	Email    string
	Phone    string
}

// CreateOwner inserts a new owner and returns the persisted record.
func (s *OwnerStore) CreateOwner(ctx context.Context, params CreateOwnerParams) (Owner, error) {
	if params.OwnerID == uuid.Nil {
		return Owner{}, errors.New("owner id is required")
	}
	if params.TenantID == uuid.Nil {
		return Owner{}, errors.New("tenant id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (owner_id, tenant_id, full_name, email, phone)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING %s
    `, OwnersTable, ownerColumns),
		params.OwnerID,
		params.TenantID,
		strings.TrimSpace(params.FullName),
		strings.TrimSpace(params.Email),
		strings.TrimSpace(params.Phone),
	)

	return scanOwner(row)
}

// ListOwnersParams captures filters and pagination for ListOwners.
type ListOwnersParams struct {
	TenantID uuid.UUID
	Page     int
	PageSize int
	Search   *string
}

// ListOwnersResult includes the rows and the total count for pagination metadata.
type ListOwnersResult struct {
	Owners     []Owner
	TotalItems int
}

// ListOwners returns the tenant's owners matching the filters with pagination applied.
func (s *OwnerStore) ListOwners(ctx context.Context, params ListOwnersParams) (ListOwnersResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	whereParts := []string{"tenant_id = $1"}
	args := []any{params.TenantID}

	if params.Search != nil && strings.TrimSpace(*params.Search) != "" {
		search := strings.TrimSpace(*params.Search)
		args = append(args, "%"+strings.ToLower(search)+"%")
		whereParts = append(whereParts, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args), len(args)))
	}

	whereSQL := strings.Join(whereParts, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", OwnersTable, whereSQL)
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListOwnersResult{}, fmt.Errorf("count owners: %w", err)
	}

	result := ListOwnersResult{Owners: []Owner{}, TotalItems: total}
	if total == 0 {
		return result, nil
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)

	query := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE %s
        ORDER BY created_at DESC
        LIMIT $%d OFFSET $%d
    `, ownerColumns, OwnersTable, whereSQL, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return ListOwnersResult{}, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	owners := make([]Owner, 0)
	for rows.Next() {
		owner, scanErr := scanOwner(rows)
		if scanErr != nil {
			return ListOwnersResult{}, fmt.Errorf("scan owner: %w", scanErr)
		}
		owners = append(owners, owner)
	}

	if err = rows.Err(); err != nil {
		return ListOwnersResult{}, fmt.Errorf("iterate owners: %w", err)
	}

	result.Owners = owners
	return result, nil
}

// GetOwner returns a single owner by identifier within the tenant scope.
func (s *OwnerStore) GetOwner(ctx context.Context, tenantID, id uuid.UUID) (Owner, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE tenant_id = $1 AND owner_id = $2
    `, ownerColumns, OwnersTable), tenantID, id)

	owner, err := scanOwner(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Owner{}, ErrOwnerNotFound
		}
		return Owner{}, err
	}

	return owner, nil
}

// UpdateOwnerParams represents editable fields.
type UpdateOwnerParams struct {
	FullName *string
	Email    *string
	Phone    *string
}

// UpdateOwner applies the provided fields and returns the updated record.
func (s *OwnerStore) UpdateOwner(ctx context.Context, tenantID, id uuid.UUID, params UpdateOwnerParams) (Owner, error) {
	setParts := []string{}
	var args []any

	if params.FullName != nil {
		args = append(args, strings.TrimSpace(*params.FullName))
		setParts = append(setParts, fmt.Sprintf("full_name = $%d", len(args)))
	}
	if params.Email != nil {
		args = append(args, strings.TrimSpace(*params.Email))
		setParts = append(setParts, fmt.Sprintf("email = $%d", len(args)))
	}
	if params.Phone != nil {
		args = append(args, strings.TrimSpace(*params.Phone))
		setParts = append(setParts, fmt.Sprintf("phone = $%d", len(args)))
	}

	if len(setParts) == 0 {
		return Owner{}, errors.New("no fields to update")
	}

	args = append(args, tenantID, id)

	query := fmt.Sprintf(`
        UPDATE %s
        SET %s, updated_at = NOW()
        WHERE tenant_id = $%d AND owner_id = $%d
        RETURNING %s
    `, OwnersTable, strings.Join(setParts, ", "), len(args)-1, len(args), ownerColumns)

	owner, err := scanOwner(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Owner{}, ErrOwnerNotFound
		}
		return Owner{}, err
	}

	return owner, nil
}

// DeleteOwner removes an owner by identifier within the tenant scope.
// Patients cascade at the database level.
func (s *OwnerStore) DeleteOwner(ctx context.Context, tenantID, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrOwnerNotFound
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
        DELETE FROM %s WHERE tenant_id = $1 AND owner_id = $2
    `, OwnersTable), tenantID, id)
	if err != nil {
		return fmt.Errorf("delete owner: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrOwnerNotFound
	}

	return nil
}

func scanOwner(row pgx.Row) (Owner, error) {
	var owner Owner
	if err := row.Scan(&owner.OwnerID, &owner.TenantID, &owner.FullName, &owner.Email,
		&owner.Phone, &owner.CreatedAt, &owner.UpdatedAt); err != nil {
		return Owner{}, err
	}
	return owner, nil
}
