package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vetcare-hq/vetcare-saas/domains/billing/be/service"
	plansvc "github.com/vetcare-hq/vetcare-saas/domains/plans/be/service"
	tenantsvc "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
)

type verifierMock struct {
	result bool
	calls  int
}

func (m *verifierMock) VerifyPayment(ctx context.Context, reference string) bool {
	m.calls++
	return m.result
}

type catalogMock struct {
	err error
}

func (m *catalogMock) Get(ctx context.Context, id string) (plansvc.Plan, error) {
	if m.err != nil {
		return plansvc.Plan{}, m.err
	}
	return plansvc.Plan{ID: id}, nil
}

type registryMock struct {
	updated *tenantsvc.UpdateInput
	err     error
}

func (m *registryMock) Update(ctx context.Context, id uuid.UUID, input tenantsvc.UpdateInput) (tenantsvc.Tenant, error) {
	if m.err != nil {
		return tenantsvc.Tenant{}, m.err
	}
	m.updated = &input
	return tenantsvc.Tenant{ID: id, PlanID: *input.PlanID, Status: *input.Status}, nil
}

type auditorMock struct {
	actions []string
}

func (m *auditorMock) Record(tenantID uuid.UUID, actor, action, category, details string) {
	m.actions = append(m.actions, action)
}

func TestActivatePlanHappyPath(t *testing.T) {
	t.Parallel()

	verifier := &verifierMock{result: true}
	registry := &registryMock{}
	auditor := &auditorMock{}
	svc := service.New(verifier, &catalogMock{}, registry, auditor)

	tenantID := uuid.New()
	tenant, err := svc.ActivatePlan(context.Background(), tenantID, "pro", "mock-ref", "admin@vetcare.test")
	require.NoError(t, err)
	require.Equal(t, "pro", tenant.PlanID)
	require.Equal(t, tenantsvc.StatusActive, tenant.Status)
	require.NotNil(t, registry.updated)
	require.Equal(t, []string{"plan_activated"}, auditor.actions)
}

func TestActivatePlanRejectsUnverifiedPayment(t *testing.T) {
	t.Parallel()

	verifier := &verifierMock{result: false}
	registry := &registryMock{}
	auditor := &auditorMock{}
	svc := service.New(verifier, &catalogMock{}, registry, auditor)

	_, err := svc.ActivatePlan(context.Background(), uuid.New(), "pro", "bad-ref", "admin")
	require.ErrorIs(t, err, service.ErrPaymentNotVerified)
	require.Nil(t, registry.updated)
	require.Empty(t, auditor.actions)
}

func TestActivatePlanRejectsUnknownPlan(t *testing.T) {
	t.Parallel()

	verifier := &verifierMock{result: true}
	svc := service.New(verifier, &catalogMock{err: plansvc.ErrNotFound}, &registryMock{}, &auditorMock{})

	_, err := svc.ActivatePlan(context.Background(), uuid.New(), "platinum", "mock-ref", "admin")
	require.ErrorIs(t, err, service.ErrUnknownPlan)
	require.Zero(t, verifier.calls)
}

func TestActivatePlanPropagatesTenantErrors(t *testing.T) {
	t.Parallel()

	registry := &registryMock{err: tenantsvc.ErrNotFound}
	auditor := &auditorMock{}
	svc := service.New(&verifierMock{result: true}, &catalogMock{}, registry, auditor)

	_, err := svc.ActivatePlan(context.Background(), uuid.New(), "pro", "mock-ref", "admin")
	require.ErrorIs(t, err, tenantsvc.ErrNotFound)
	require.Empty(t, auditor.actions)
}
