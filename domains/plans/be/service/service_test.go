package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vetcare-hq/vetcare-saas/domains/plans/be/repo"
	"github.com/vetcare-hq/vetcare-saas/domains/plans/be/service"
	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
)

func TestSeedTwiceConvergesToLatestValues(t *testing.T) {
	t.Parallel()

	memory := repo.NewMemoryRepository()
	validator := persistence.NewLimitsValidator()
	ctx := context.Background()

	require.NoError(t, service.Seed(ctx, memory, validator, service.DefaultCatalog(), zap.NewNop()))

	// Second run with a changed price and limit must overwrite, not duplicate.
	catalog := service.DefaultCatalog()
	for i := range catalog {
		if catalog[i].ID == "basic" {
			catalog[i].MonthlyPrice = 35
			catalog[i].Limits.MaxUsers = 10
		}
	}
	require.NoError(t, service.Seed(ctx, memory, validator, catalog, zap.NewNop()))

	plans, err := memory.List(ctx)
	require.NoError(t, err)
	require.Len(t, plans, len(service.DefaultCatalog()))

	basic, err := memory.Get(ctx, "basic")
	require.NoError(t, err)
	require.InDelta(t, 35, basic.MonthlyPrice, 0.0001)
	require.Equal(t, 10, basic.Limits.MaxUsers)
}

func TestSeedRejectsInvalidLimits(t *testing.T) {
	t.Parallel()

	memory := repo.NewMemoryRepository()
	validator := persistence.NewLimitsValidator()

	catalog := []service.Plan{{
		ID:   "broken",
		Name: "Broken",
		Limits: service.Limits{
			MaxUsers:     -2,
			MaxClients:   10,
			MaxStorageGB: 1,
		},
	}}

	err := service.Seed(context.Background(), memory, validator, catalog, zap.NewNop())
	require.Error(t, err)

	_, err = memory.Get(context.Background(), "broken")
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestSeedStopsOnRepositoryFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	failing := &failingRepo{err: boom}

	err := service.Seed(context.Background(), failing, persistence.NewLimitsValidator(), service.DefaultCatalog(), zap.NewNop())
	require.ErrorIs(t, err, boom)
}

func TestDefaultCatalogShape(t *testing.T) {
	t.Parallel()

	catalog := service.DefaultCatalog()
	ids := make(map[string]service.Plan, len(catalog))
	for _, plan := range catalog {
		ids[plan.ID] = plan
	}

	require.Contains(t, ids, "trial")
	require.Contains(t, ids, "basic")
	require.Contains(t, ids, "pro")
	require.Contains(t, ids, "enterprise")

	require.Equal(t, service.Unlimited, ids["enterprise"].Limits.MaxUsers)
	require.Equal(t, service.Unlimited, ids["enterprise"].Limits.MaxClients)
	require.Zero(t, ids["trial"].MonthlyPrice)

	// Every catalog entry must pass the schema that guards seeding.
	validator := persistence.NewLimitsValidator()
	for _, plan := range catalog {
		payload, err := plan.Limits.Marshal()
		require.NoError(t, err)
		require.NoError(t, validator.Validate(payload), "plan %s", plan.ID)
	}
}

type failingRepo struct {
	err error
}

func (r *failingRepo) Upsert(ctx context.Context, plan service.Plan) (service.Plan, error) {
	return service.Plan{}, r.err
}

func (r *failingRepo) Get(ctx context.Context, id string) (service.Plan, error) {
	return service.Plan{}, r.err
}

func (r *failingRepo) List(ctx context.Context) ([]service.Plan, error) {
	return nil, r.err
}
