package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	plansvc "github.com/vetcare-hq/vetcare-saas/domains/plans/be/service"
	tenantsvc "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
)

// Domain sentinel errors.
var (
	ErrPaymentNotVerified = errors.New("payment not verified")
	ErrUnknownPlan        = errors.New("unknown plan")
)

// PaymentVerifier answers whether a payment reference is good.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, reference string) bool
}

// PlanCatalog resolves plan ids.
type PlanCatalog interface {
	Get(ctx context.Context, id string) (plansvc.Plan, error)
}

// TenantRegistry is the slice of the tenants service used for activation.
type TenantRegistry interface {
	Update(ctx context.Context, id uuid.UUID, input tenantsvc.UpdateInput) (tenantsvc.Tenant, error)
}

// Auditor records the plan change.
type Auditor interface {
	Record(tenantID uuid.UUID, actor, action, category, details string)
}

// Service activates paid plans once payment clears.
type Service struct {
	verifier PaymentVerifier
	catalog  PlanCatalog
	tenants  TenantRegistry
	auditor  Auditor
}

// New constructs a Service with required dependencies.
func New(verifier PaymentVerifier, catalog PlanCatalog, tenants TenantRegistry, auditor Auditor) *Service {
	if verifier == nil {
		panic("payment verifier is required")
	}
	if catalog == nil {
		panic("plan catalog is required")
	}
	if tenants == nil {
		panic("tenant registry is required")
	}
	if auditor == nil {
		panic("auditor is required")
	}
	return &Service{verifier: verifier, catalog: catalog, tenants: tenants, auditor: auditor}
}

// ActivatePlan verifies the payment reference and, on success, moves the
// tenant to the requested plan with an active status. A restricted account
// re-activates this way after settling its bill.
func (s *Service) ActivatePlan(ctx context.Context, tenantID uuid.UUID, planID, reference, actor string) (tenantsvc.Tenant, error) {
	planID = strings.TrimSpace(planID)
	if _, err := s.catalog.Get(ctx, planID); err != nil {
		if errors.Is(err, plansvc.ErrNotFound) {
			return tenantsvc.Tenant{}, ErrUnknownPlan
		}
		return tenantsvc.Tenant{}, err
	}

	if !s.verifier.VerifyPayment(ctx, reference) {
		return tenantsvc.Tenant{}, ErrPaymentNotVerified
	}

	active := tenantsvc.StatusActive
	tenant, err := s.tenants.Update(ctx, tenantID, tenantsvc.UpdateInput{
		PlanID: &planID,
		Status: &active,
	})
	if err != nil {
		return tenantsvc.Tenant{}, err
	}

	s.auditor.Record(tenantID, actor, "plan_activated", "billing",
		fmt.Sprintf("plan %s activated with reference %s", planID, reference))

	return tenant, nil
}
