package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vetcare-hq/vetcare-saas/domains/plans/be/service"
	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
)

// PostgresRepository implements the plan repository using the shared persistence layer.
type PostgresRepository struct {
	store *persistence.PlanStore
}

// NewPostgresRepository constructs a repository backed by PlanStore.
func NewPostgresRepository(store *persistence.PlanStore) *PostgresRepository {
	if store == nil {
		panic("plan store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) Upsert(ctx context.Context, plan service.Plan) (service.Plan, error) {
	rec, err := toRecord(plan)
	if err != nil {
		return service.Plan{}, err
	}
	out, err := r.store.Upsert(ctx, rec)
	if err != nil {
		return service.Plan{}, err
	}
	return toServicePlan(out)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (service.Plan, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrPlanNotFound) {
			return service.Plan{}, service.ErrNotFound
		}
		return service.Plan{}, err
	}
	return toServicePlan(rec)
}

func (r *PostgresRepository) List(ctx context.Context) ([]service.Plan, error) {
	records, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}

	plans := make([]service.Plan, 0, len(records))
	for _, rec := range records {
		plan, err := toServicePlan(rec)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func toRecord(plan service.Plan) (persistence.PlanRecord, error) {
	features, err := json.Marshal(plan.Features)
	if err != nil {
		return persistence.PlanRecord{}, fmt.Errorf("serialize features for plan %s: %w", plan.ID, err)
	}
	limits, err := plan.Limits.Marshal()
	if err != nil {
		return persistence.PlanRecord{}, fmt.Errorf("serialize limits for plan %s: %w", plan.ID, err)
	}

	return persistence.PlanRecord{
		PlanID:       plan.ID,
		Name:         plan.Name,
		MonthlyPrice: plan.MonthlyPrice,
		YearlyPrice:  plan.YearlyPrice,
		Features:     features,
		Limits:       limits,
	}, nil
}

func toServicePlan(rec persistence.PlanRecord) (service.Plan, error) {
	var features []string
	if len(rec.Features) > 0 {
		if err := json.Unmarshal(rec.Features, &features); err != nil {
			return service.Plan{}, fmt.Errorf("decode features for plan %s: %w", rec.PlanID, err)
		}
	}
	limits, err := service.UnmarshalLimits(rec.Limits)
	if err != nil {
		return service.Plan{}, fmt.Errorf("decode limits for plan %s: %w", rec.PlanID, err)
	}

	return service.Plan{
		ID:           rec.PlanID,
		Name:         rec.Name,
		MonthlyPrice: rec.MonthlyPrice,
		YearlyPrice:  rec.YearlyPrice,
		Features:     features,
		Limits:       limits,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
