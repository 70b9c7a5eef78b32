package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
)

// MemoryRepository is an in-memory tenant repository used by tests and local runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]service.Tenant
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tenants: make(map[uuid.UUID]service.Tenant)}
}

func (r *MemoryRepository) Create(ctx context.Context, t service.Tenant) (service.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.tenants[t.ID] = t
	return t, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tenants[id]
	if !ok {
		return service.Tenant{}, service.ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepository) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]service.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		if opts.Status != nil && t.Status != *opts.Status {
			continue
		}
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.PageSize
	if size <= 0 {
		size = 20
	}

	start := (page - 1) * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}

	totalPages := (len(all) + size - 1) / size
	return service.ListResult{
		Tenants:    all[start:end],
		Page:       page,
		PageSize:   size,
		TotalItems: len(all),
		TotalPages: totalPages,
	}, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tenants[id]
	if !ok {
		return service.Tenant{}, service.ErrNotFound
	}

	if input.Name != nil {
		t.Name = *input.Name
	}
	if input.PlanID != nil {
		t.PlanID = *input.PlanID
	}
	if input.Status != nil {
		t.Status = *input.Status
	}
	if input.Settings != nil {
		t.Settings = *input.Settings
	}
	t.UpdatedAt = time.Now().UTC()

	r.tenants[id] = t
	return t, nil
}

func (r *MemoryRepository) IncrementStorage(ctx context.Context, id uuid.UUID, deltaMB float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tenants[id]
	if !ok {
		return service.ErrNotFound
	}

	t.StorageUsedMB += deltaMB
	if t.StorageUsedMB < 0 {
		t.StorageUsedMB = 0
	}
	t.UpdatedAt = time.Now().UTC()

	r.tenants[id] = t
	return nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
