package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vetcare-hq/vetcare-saas/domains/audit/be/service"
)

// MemoryRepository is an in-memory audit repository used by tests and local runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []service.Entry
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(ctx context.Context, entry service.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *MemoryRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]service.Entry, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []service.Entry
	for _, entry := range r.entries {
		if entry.TenantID == tenantID {
			matched = append(matched, entry)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return matched[offset:end], total, nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
