package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	plansvc "github.com/vetcare-hq/vetcare-saas/domains/plans/be/service"
	"github.com/vetcare-hq/vetcare-saas/domains/tenants/be/repo"
	"github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
)

func newService(memory *repo.MemoryRepository) *service.Service {
	return service.New(memory, planWithLimits(plansvc.Limits{}), &usageMock{}, zap.NewNop())
}

func TestCreateDefaultsToTrial(t *testing.T) {
	t.Parallel()

	memory := repo.NewMemoryRepository()
	svc := newService(memory)

	tenant, err := svc.Create(context.Background(), service.CreateInput{Name: "  Happy Paws  "})
	require.NoError(t, err)
	require.Equal(t, "Happy Paws", tenant.Name)
	require.Equal(t, "trial", tenant.PlanID)
	require.Equal(t, service.StatusActive, tenant.Status)
	require.Zero(t, tenant.StorageUsedMB)
}

func TestCreateRequiresName(t *testing.T) {
	t.Parallel()

	svc := newService(repo.NewMemoryRepository())

	_, err := svc.Create(context.Background(), service.CreateInput{Name: "   "})
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "name")
}

func TestUpdateStatusTransitions(t *testing.T) {
	t.Parallel()

	memory := repo.NewMemoryRepository()
	svc := newService(memory)

	tenant, err := svc.Create(context.Background(), service.CreateInput{Name: "Clinic", PlanID: "basic"})
	require.NoError(t, err)

	restricted := service.StatusRestricted
	updated, err := svc.Update(context.Background(), tenant.ID, service.UpdateInput{Status: &restricted})
	require.NoError(t, err)
	require.Equal(t, service.StatusRestricted, updated.Status)

	bogus := service.Status("deleted")
	_, err = svc.Update(context.Background(), tenant.ID, service.UpdateInput{Status: &bogus})
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestUpdateRequiresAtLeastOneField(t *testing.T) {
	t.Parallel()

	memory := repo.NewMemoryRepository()
	svc := newService(memory)

	tenant, err := svc.Create(context.Background(), service.CreateInput{Name: "Clinic"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), tenant.ID, service.UpdateInput{})
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestGetUnknownTenant(t *testing.T) {
	t.Parallel()

	svc := newService(repo.NewMemoryRepository())

	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.Get(context.Background(), uuid.Nil)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestStatusFromStringDefaultsToSuspended(t *testing.T) {
	t.Parallel()

	require.Equal(t, service.StatusActive, service.StatusFromString("active"))
	require.Equal(t, service.StatusRestricted, service.StatusFromString("restricted"))
	require.Equal(t, service.StatusSuspended, service.StatusFromString("garbage"))
}
