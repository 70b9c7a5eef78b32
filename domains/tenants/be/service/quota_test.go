package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	plansvc "github.com/vetcare-hq/vetcare-saas/domains/plans/be/service"
	"github.com/vetcare-hq/vetcare-saas/domains/tenants/be/repo"
	"github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
)

// catalogMock resolves plan ids via a function field.
type catalogMock struct {
	getFn func(ctx context.Context, id string) (plansvc.Plan, error)
}

func (m *catalogMock) Get(ctx context.Context, id string) (plansvc.Plan, error) {
	return m.getFn(ctx, id)
}

// usageMock reports fixed usage counts.
type usageMock struct {
	users     int
	owners    int
	usersErr  error
	ownersErr error
}

func (m *usageMock) CountUsers(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return m.users, m.usersErr
}

func (m *usageMock) CountOwners(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return m.owners, m.ownersErr
}

func planWithLimits(limits plansvc.Limits) *catalogMock {
	return &catalogMock{getFn: func(ctx context.Context, id string) (plansvc.Plan, error) {
		return plansvc.Plan{ID: id, Limits: limits}, nil
	}}
}

func seedTenant(t *testing.T, r *repo.MemoryRepository, status service.Status, usedMB float64) service.Tenant {
	t.Helper()

	tenant, err := r.Create(context.Background(), service.Tenant{
		ID:            uuid.New(),
		Name:          "Test Clinic",
		PlanID:        "basic",
		Status:        status,
		StorageUsedMB: usedMB,
	})
	require.NoError(t, err)
	return tenant
}

func TestCheckLimitsUnknownTenant(t *testing.T) {
	t.Parallel()

	svc := service.New(repo.NewMemoryRepository(), planWithLimits(plansvc.Limits{}), &usageMock{}, zap.NewNop())

	_, err := svc.CheckLimits(context.Background(), uuid.New(), service.ResourceUsers, 1)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestCheckLimitsStatusGateBeforeQuotaMath(t *testing.T) {
	t.Parallel()

	// Generous limits: only the account status can fail these checks.
	catalog := planWithLimits(plansvc.Limits{MaxUsers: plansvc.Unlimited, MaxClients: plansvc.Unlimited, MaxStorageGB: 1024})

	for _, status := range []service.Status{service.StatusRestricted, service.StatusSuspended} {
		memory := repo.NewMemoryRepository()
		tenant := seedTenant(t, memory, status, 0)
		svc := service.New(memory, catalog, &usageMock{}, zap.NewNop())

		for _, resource := range []service.Resource{service.ResourceStorage, service.ResourceUsers, service.ResourceClients} {
			_, err := svc.CheckLimits(context.Background(), tenant.ID, resource, 0)
			require.ErrorIs(t, err, service.ErrAccountRestricted, "status %s resource %s", status, resource)
		}
	}
}

func TestCheckLimitsUnlimitedUsers(t *testing.T) {
	t.Parallel()

	memory := repo.NewMemoryRepository()
	tenant := seedTenant(t, memory, service.StatusActive, 0)

	catalog := planWithLimits(plansvc.Limits{MaxUsers: plansvc.Unlimited, MaxClients: 10, MaxStorageGB: 5})
	svc := service.New(memory, catalog, &usageMock{users: 1_000_000}, zap.NewNop())

	got, err := svc.CheckLimits(context.Background(), tenant.ID, service.ResourceUsers, 50_000)
	require.NoError(t, err)
	require.Equal(t, tenant.ID, got.ID)
}

func TestCheckLimitsUsersAtCapacity(t *testing.T) {
	t.Parallel()

	memory := repo.NewMemoryRepository()
	tenant := seedTenant(t, memory, service.StatusActive, 0)

	catalog := planWithLimits(plansvc.Limits{MaxUsers: 2, MaxClients: 100, MaxStorageGB: 5})
	svc := service.New(memory, catalog, &usageMock{users: 2}, zap.NewNop())

	_, err := svc.CheckLimits(context.Background(), tenant.ID, service.ResourceUsers, 1)
	var quotaErr *service.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	require.Equal(t, service.ResourceUsers, quotaErr.Resource)
	require.InDelta(t, 2, quotaErr.Limit, 0.0001)

	// Increment 0 only inspects the current state, which is exactly at the cap.
	_, err = svc.CheckLimits(context.Background(), tenant.ID, service.ResourceUsers, 0)
	require.NoError(t, err)
}

func TestCheckLimitsClientsQuota(t *testing.T) {
	t.Parallel()

	memory := repo.NewMemoryRepository()
	tenant := seedTenant(t, memory, service.StatusActive, 0)

	catalog := planWithLimits(plansvc.Limits{MaxUsers: 5, MaxClients: 500, MaxStorageGB: 5})
	svc := service.New(memory, catalog, &usageMock{owners: 500}, zap.NewNop())

	_, err := svc.CheckLimits(context.Background(), tenant.ID, service.ResourceClients, 1)
	var quotaErr *service.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	require.Equal(t, service.ResourceClients, quotaErr.Resource)
}

func TestCheckLimitsUnknownPlanFailsOpen(t *testing.T) {
	t.Parallel()

	memory := repo.NewMemoryRepository()
	tenant := seedTenant(t, memory, service.StatusActive, 999_999)

	catalog := &catalogMock{getFn: func(ctx context.Context, id string) (plansvc.Plan, error) {
		return plansvc.Plan{}, plansvc.ErrNotFound
	}}
	svc := service.New(memory, catalog, &usageMock{users: 999, owners: 999}, zap.NewNop())

	for _, resource := range []service.Resource{service.ResourceStorage, service.ResourceUsers, service.ResourceClients} {
		got, err := svc.CheckLimits(context.Background(), tenant.ID, resource, 100)
		require.NoError(t, err, "resource %s", resource)
		require.Equal(t, tenant.ID, got.ID)
	}
}

func TestCheckLimitsCatalogFailurePropagates(t *testing.T) {
	t.Parallel()

	memory := repo.NewMemoryRepository()
	tenant := seedTenant(t, memory, service.StatusActive, 0)

	boom := errors.New("catalog unavailable")
	catalog := &catalogMock{getFn: func(ctx context.Context, id string) (plansvc.Plan, error) {
		return plansvc.Plan{}, boom
	}}
	svc := service.New(memory, catalog, &usageMock{}, zap.NewNop())

	_, err := svc.CheckLimits(context.Background(), tenant.ID, service.ResourceUsers, 1)
	require.ErrorIs(t, err, boom)
}

func TestCheckLimitsStorageBoundary(t *testing.T) {
	t.Parallel()

	// 2 GB plan, 2047 MB used: one more megabyte is exactly at the 2048 MB cap.
	catalog := planWithLimits(plansvc.Limits{MaxUsers: 5, MaxClients: 500, MaxStorageGB: 2})

	memory := repo.NewMemoryRepository()
	tenant := seedTenant(t, memory, service.StatusActive, 2047)
	svc := service.New(memory, catalog, &usageMock{}, zap.NewNop())

	_, err := svc.CheckLimits(context.Background(), tenant.ID, service.ResourceStorage, 1)
	require.NoError(t, err)

	_, err = svc.CheckLimits(context.Background(), tenant.ID, service.ResourceStorage, 2)
	var quotaErr *service.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	require.Equal(t, service.ResourceStorage, quotaErr.Resource)
	require.InDelta(t, 2, quotaErr.Limit, 0.0001)
}

func TestCheckLimitsRejectsNegativeIncrement(t *testing.T) {
	t.Parallel()

	memory := repo.NewMemoryRepository()
	tenant := seedTenant(t, memory, service.StatusActive, 0)
	svc := service.New(memory, planWithLimits(plansvc.Limits{}), &usageMock{}, zap.NewNop())

	_, err := svc.CheckLimits(context.Background(), tenant.ID, service.ResourceStorage, -5)
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestTrackStorageAdjustsCounter(t *testing.T) {
	t.Parallel()

	memory := repo.NewMemoryRepository()
	tenant := seedTenant(t, memory, service.StatusActive, 10)
	svc := service.New(memory, planWithLimits(plansvc.Limits{}), &usageMock{}, zap.NewNop())

	ctx := context.Background()
	svc.TrackStorage(ctx, tenant.ID, 5)
	svc.TrackStorage(ctx, tenant.ID, -3)

	got, err := memory.Get(ctx, tenant.ID)
	require.NoError(t, err)
	require.InDelta(t, 12, got.StorageUsedMB, 0.0001)
}

func TestTrackStorageSwallowsFailures(t *testing.T) {
	t.Parallel()

	failing := &failingRepo{err: errors.New("db down")}
	svc := service.New(failing, planWithLimits(plansvc.Limits{}), &usageMock{}, zap.NewNop())

	// Must not panic or surface the error in any way.
	svc.TrackStorage(context.Background(), uuid.New(), 25)
	require.Equal(t, 1, failing.incrementCalls)
}

// failingRepo fails every operation with a fixed error.
type failingRepo struct {
	err            error
	incrementCalls int
}

func (r *failingRepo) Create(ctx context.Context, t service.Tenant) (service.Tenant, error) {
	return service.Tenant{}, r.err
}

func (r *failingRepo) Get(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
	return service.Tenant{}, r.err
}

func (r *failingRepo) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	return service.ListResult{}, r.err
}

func (r *failingRepo) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Tenant, error) {
	return service.Tenant{}, r.err
}

func (r *failingRepo) IncrementStorage(ctx context.Context, id uuid.UUID, deltaMB float64) error {
	r.incrementCalls++
	return r.err
}
