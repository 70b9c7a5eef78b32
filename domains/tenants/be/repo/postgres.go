package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
)

// PostgresRepository implements the tenant repository using the shared persistence layer.
type PostgresRepository struct {
	store *persistence.TenantStore
}

// NewPostgresRepository constructs a repository backed by TenantStore.
func NewPostgresRepository(store *persistence.TenantStore) *PostgresRepository {
	if store == nil {
		panic("tenant store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) Create(ctx context.Context, t service.Tenant) (service.Tenant, error) {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return service.Tenant{}, fmt.Errorf("serialize settings: %w", err)
	}

	rec, err := r.store.Create(ctx, persistence.TenantRecord{
		TenantID:      t.ID,
		Name:          t.Name,
		PlanID:        t.PlanID,
		Status:        string(t.Status),
		StorageUsedMB: t.StorageUsedMB,
		Settings:      settings,
	})
	if err != nil {
		return service.Tenant{}, err
	}
	return toServiceTenant(rec)
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return service.Tenant{}, mapNotFound(err)
	}
	return toServiceTenant(rec)
}

func (r *PostgresRepository) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.PageSize
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	var statusStr *string
	if opts.Status != nil {
		s := string(*opts.Status)
		statusStr = &s
	}

	rows, total, err := r.store.List(ctx, statusStr, size, offset)
	if err != nil {
		return service.ListResult{}, err
	}

	tenants := make([]service.Tenant, 0, len(rows))
	for _, rec := range rows {
		t, err := toServiceTenant(rec)
		if err != nil {
			return service.ListResult{}, err
		}
		tenants = append(tenants, t)
	}

	totalPages := (total + size - 1) / size
	return service.ListResult{Tenants: tenants, Page: page, PageSize: size, TotalItems: total, TotalPages: totalPages}, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Tenant, error) {
	params := persistence.UpdateTenantParams{
		Name:   input.Name,
		PlanID: input.PlanID,
	}
	if input.Status != nil {
		s := string(*input.Status)
		params.Status = &s
	}
	if input.Settings != nil {
		settings, err := json.Marshal(*input.Settings)
		if err != nil {
			return service.Tenant{}, fmt.Errorf("serialize settings: %w", err)
		}
		params.Settings = settings
	}

	rec, err := r.store.Update(ctx, id, params)
	if err != nil {
		return service.Tenant{}, mapNotFound(err)
	}
	return toServiceTenant(rec)
}

func (r *PostgresRepository) IncrementStorage(ctx context.Context, id uuid.UUID, deltaMB float64) error {
	return mapNotFound(r.store.IncrementStorage(ctx, id, deltaMB))
}

func toServiceTenant(rec persistence.TenantRecord) (service.Tenant, error) {
	var settings service.Settings
	if len(rec.Settings) > 0 {
		if err := json.Unmarshal(rec.Settings, &settings); err != nil {
			return service.Tenant{}, fmt.Errorf("decode settings for tenant %s: %w", rec.TenantID, err)
		}
	}

	return service.Tenant{
		ID:            rec.TenantID,
		Name:          rec.Name,
		PlanID:        rec.PlanID,
		Status:        service.StatusFromString(rec.Status),
		StorageUsedMB: rec.StorageUsedMB,
		Settings:      settings,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, persistence.ErrTenantNotFound) {
		return service.ErrNotFound
	}
	return err
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
