package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
	"github.com/vetcare-hq/vetcare-saas/platform/go/tenant"
)

// Repository defines the persistence operations required by the users service.
// Every operation is scoped to the tenant resolved from the request context.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error)
	List(ctx context.Context, params persistence.ListUsersParams) (persistence.ListUsersResult, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.User, error)
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdateUserParams) (persistence.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.UserStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.UserStore) Repository {
	if store == nil {
		panic("user store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.User{}, err
	}
	params.TenantID = tenantID
	return r.store.CreateUser(ctx, params)
}

func (r *postgresRepository) List(ctx context.Context, params persistence.ListUsersParams) (persistence.ListUsersResult, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.ListUsersResult{}, err
	}
	params.TenantID = tenantID
	return r.store.ListUsers(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.User, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.User{}, err
	}
	return r.store.GetUser(ctx, tenantID, id)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateUserParams) (persistence.User, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.User{}, err
	}
	return r.store.UpdateUser(ctx, tenantID, id, params)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return err
	}
	return r.store.DeleteUser(ctx, tenantID, id)
}

func requireTenantID(ctx context.Context) (uuid.UUID, error) {
	id, ok := tenant.FromContext(ctx)
	if !ok || id == uuid.Nil {
		return uuid.Nil, errors.New("tenant id missing from context")
	}
	return id, nil
}
