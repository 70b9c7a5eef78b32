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

// UsersTable defines the fully-qualified table for clinic staff accounts.
const UsersTable = "clinic.users"

// User represents a row in the clinic users table.
type User struct {
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	TenantID  uuid.UUID `db:"tenant_id" json:"tenantId"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"fullName"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

var (
	// ErrUserNotFound indicates a missing user record within the tenant scope.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserConflict indicates a uniqueness violation (duplicated email per tenant).
	ErrUserConflict = errors.New("user conflict")
)

// UserStore exposes persistence helpers for the clinic users table.
// Every query is scoped by tenant_id; there is no cross-tenant read path.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore returns a store instance.
func NewUserStore(pool *pgxpool.Pool) (*UserStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &UserStore{pool: pool}, nil
}

const userColumns = "user_id, tenant_id, email, full_name, role, created_at, updated_at"

// CreateUserParams captures the fields required to insert a new user record.
type CreateUserParams struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Email    string
	FullName string
	Role     string
}

// CreateUser inserts a new user and returns the persisted record.
func (s *UserStore) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if params.UserID == uuid.Nil {
		return User{}, errors.New("user id is required")
	}
	if params.TenantID == uuid.Nil {
		return User{}, errors.New("tenant id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (user_id, tenant_id, email, full_name, role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING %s
    `, UsersTable, userColumns),
		params.UserID,
		params.TenantID,
		strings.TrimSpace(params.Email),
		strings.TrimSpace(params.FullName),
		params.Role,
	)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUserConflict
		}
		return User{}, err
	}

	return user, nil
}

// ListUsersParams captures filters and pagination for ListUsers.
type ListUsersParams struct {
	TenantID uuid.UUID
	Page     int
	PageSize int
	Email    *string
}

// ListUsersResult includes the rows and the total count for pagination metadata.
type ListUsersResult struct {
	Users      []User
	TotalItems int
}

// ListUsers returns the tenant's users matching the filters with pagination applied.
func (s *UserStore) ListUsers(ctx context.Context, params ListUsersParams) (ListUsersResult, error) {
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

	if params.Email != nil && strings.TrimSpace(*params.Email) != "" {
		email := strings.TrimSpace(*params.Email)
		args = append(args, "%"+strings.ToLower(email)+"%")
		whereParts = append(whereParts, fmt.Sprintf("LOWER(email) LIKE $%d", len(args)))
	}

	whereSQL := strings.Join(whereParts, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", UsersTable, whereSQL)
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListUsersResult{}, fmt.Errorf("count users: %w", err)
	}

	result := ListUsersResult{Users: []User{}, TotalItems: total}
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
    `, userColumns, UsersTable, whereSQL, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return ListUsersResult{}, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			return ListUsersResult{}, fmt.Errorf("scan user: %w", scanErr)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return ListUsersResult{}, fmt.Errorf("iterate users: %w", err)
	}

	result.Users = users
	return result, nil
}

// GetUser returns a single user by identifier within the tenant scope.
func (s *UserStore) GetUser(ctx context.Context, tenantID, id uuid.UUID) (User, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE tenant_id = $1 AND user_id = $2
    `, userColumns, UsersTable), tenantID, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}

	return user, nil
}

// UpdateUserParams represents admin-editable fields.
type UpdateUserParams struct {
	FullName *string
	Role     *string
}

// UpdateUser applies the provided fields and returns the updated record.
func (s *UserStore) UpdateUser(ctx context.Context, tenantID, id uuid.UUID, params UpdateUserParams) (User, error) {
	setParts := []string{}
	var args []any

	if params.FullName != nil {
		args = append(args, strings.TrimSpace(*params.FullName))
		setParts = append(setParts, fmt.Sprintf("full_name = $%d", len(args)))
	}
	if params.Role != nil {
		args = append(args, *params.Role)
		setParts = append(setParts, fmt.Sprintf("role = $%d", len(args)))
	}

	if len(setParts) == 0 {
		return User{}, errors.New("no fields to update")
	}

	args = append(args, tenantID, id)

	query := fmt.Sprintf(`
        UPDATE %s
        SET %s, updated_at = NOW()
        WHERE tenant_id = $%d AND user_id = $%d
        RETURNING %s
    `, UsersTable, strings.Join(setParts, ", "), len(args)-1, len(args), userColumns)

	user, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return User{}, ErrUserConflict
		}
		return User{}, err
	}

	return user, nil
}

// DeleteUser removes a user by identifier within the tenant scope.
func (s *UserStore) DeleteUser(ctx context.Context, tenantID, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrUserNotFound
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
        DELETE FROM %s WHERE tenant_id = $1 AND user_id = $2
    `, UsersTable), tenantID, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	if err := row.Scan(&user.UserID, &user.TenantID, &user.Email, &user.FullName,
		&user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return User{}, err
	}
	return user, nil
}
