package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	plansvc "github.com/vetcare-hq/vetcare-saas/domains/plans/be/service"
)

// Resource names a quota dimension.
type Resource string

const (
	ResourceStorage Resource = "storage"
	ResourceUsers   Resource = "users"
	ResourceClients Resource = "clients"
)

// QuotaExceededError carries the exceeded dimension and its plan limit so the
// HTTP layer can render an upgrade prompt. Limit is in the plan's native unit
// (GB for storage, a count otherwise).
type QuotaExceededError struct {
	Resource Resource
	Limit    float64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded (limit %g)", e.Resource, e.Limit)
}

// CheckLimits verifies that the tenant may consume `increment` more of the
// given resource. Increment 0 checks the current state only. The order is
// fixed: existence, then account status, then plan resolution, then the
// resource math. A plan id missing from the catalog logs a warning and passes
// the check (fail-open).
//
// Quotas are soft limits: the window between the count and the caller's
// insert is not serialized.
func (s *Service) CheckLimits(ctx context.Context, tenantID uuid.UUID, resource Resource, increment float64) (Tenant, error) {
	if increment < 0 {
		return Tenant{}, &ValidationError{Fields: FieldErrors{"increment": {"increment must not be negative"}}}
	}

	t, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return Tenant{}, err
	}

	if t.Status == StatusRestricted || t.Status == StatusSuspended {
		return Tenant{}, ErrAccountRestricted
	}

	plan, err := s.catalog.Get(ctx, t.PlanID)
	if err != nil {
		if errors.Is(err, plansvc.ErrNotFound) {
			s.logger.Warn("tenant references unknown plan, skipping quota check",
				zap.String("tenant_id", tenantID.String()),
				zap.String("plan_id", t.PlanID),
			)
			return t, nil
		}
		return Tenant{}, err
	}

	switch resource {
	case ResourceStorage:
		limitMB := plan.Limits.MaxStorageGB * 1024
		if t.StorageUsedMB+increment > limitMB {
			return Tenant{}, &QuotaExceededError{Resource: ResourceStorage, Limit: plan.Limits.MaxStorageGB}
		}
	case ResourceUsers:
		if plan.Limits.MaxUsers == plansvc.Unlimited {
			break
		}
		current, err := s.usage.CountUsers(ctx, tenantID)
		if err != nil {
			return Tenant{}, err
		}
		if float64(current)+increment > float64(plan.Limits.MaxUsers) {
			return Tenant{}, &QuotaExceededError{Resource: ResourceUsers, Limit: float64(plan.Limits.MaxUsers)}
		}
	case ResourceClients:
		if plan.Limits.MaxClients == plansvc.Unlimited {
			break
		}
		current, err := s.usage.CountOwners(ctx, tenantID)
		if err != nil {
			return Tenant{}, err
		}
		if float64(current)+increment > float64(plan.Limits.MaxClients) {
			return Tenant{}, &QuotaExceededError{Resource: ResourceClients, Limit: float64(plan.Limits.MaxClients)}
		}
	default:
		return Tenant{}, &ValidationError{Fields: FieldErrors{"resource": {fmt.Sprintf("unknown resource %q", resource)}}}
	}

	return t, nil
}

// TrackStorage adjusts the tenant's storage counter by deltaMB (negative to
// reclaim). The update is atomic in the database. Failures are logged and
// swallowed: storage accounting must never fail the upload that triggered it.
func (s *Service) TrackStorage(ctx context.Context, tenantID uuid.UUID, deltaMB float64) {
	if deltaMB == 0 {
		return
	}

	if err := s.repo.IncrementStorage(ctx, tenantID, deltaMB); err != nil {
		s.logger.Error("storage tracking failed",
			zap.String("tenant_id", tenantID.String()),
			zap.Float64("delta_mb", deltaMB),
			zap.Error(err),
		)
	}
}
