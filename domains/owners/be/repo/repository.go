package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
	"github.com/vetcare-hq/vetcare-saas/platform/go/tenant"
)

// Repository defines the persistence operations required by the owners service.
// Every operation is scoped to the tenant resolved from the request context.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateOwnerParams) (persistence.Owner, error)
	List(ctx context.Context, params persistence.ListOwnersParams) (persistence.ListOwnersResult, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.Owner, error)
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdateOwnerParams) (persistence.Owner, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.OwnerStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.OwnerStore) Repository {
	if store == nil {
		panic("owner store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateOwnerParams) (persistence.Owner, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.Owner{}, err
	}
	params.TenantID = tenantID
	return r.store.CreateOwner(ctx, params)
}

func (r *postgresRepository) List(ctx context.Context, params persistence.ListOwnersParams) (persistence.ListOwnersResult, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.ListOwnersResult{}, err
	}
	params.TenantID = tenantID
	return r.store.ListOwners(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Owner, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.Owner{}, err
	}
	return r.store.GetOwner(ctx, tenantID, id)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateOwnerParams) (persistence.Owner, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.Owner{}, err
	}
	return r.store.UpdateOwner(ctx, tenantID, id, params)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return err
	}
	return r.store.DeleteOwner(ctx, tenantID, id)
}

func requireTenantID(ctx context.Context) (uuid.UUID, error) {
	id, ok := tenant.FromContext(ctx)
	if !ok || id == uuid.Nil {
		return uuid.Nil, errors.New("tenant id missing from context")
	}
	return id, nil
}
