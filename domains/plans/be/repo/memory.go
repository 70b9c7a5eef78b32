package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vetcare-hq/vetcare-saas/domains/plans/be/service"
)

// MemoryRepository is an in-memory plan repository used by tests and local runs.
type MemoryRepository struct {
	mu    sync.RWMutex
	plans map[string]service.Plan
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{plans: make(map[string]service.Plan)}
}

func (r *MemoryRepository) Upsert(ctx context.Context, plan service.Plan) (service.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.plans[plan.ID]; ok {
		plan.CreatedAt = existing.CreatedAt
	} else {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	r.plans[plan.ID] = plan
	return plan, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (service.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plan, ok := r.plans[id]
	if !ok {
		return service.Plan{}, service.ErrNotFound
	}
	return plan, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]service.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plans := make([]service.Plan, 0, len(r.plans))
	for _, plan := range r.plans {
		plans = append(plans, plan)
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].MonthlyPrice != plans[j].MonthlyPrice {
			return plans[i].MonthlyPrice < plans[j].MonthlyPrice
		}
		return plans[i].ID < plans[j].ID
	})
	return plans, nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
