package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanStoreUpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	pool := mustTestPool(t)
	ctx := context.Background()

	store, err := NewPlanStore(pool)
	require.NoError(t, err)

	first, err := store.Upsert(ctx, PlanRecord{
		PlanID:       "basic",
		Name:         "Basic",
		MonthlyPrice: 29,
		YearlyPrice:  290,
		Limits:       []byte(`{"maxUsers": 5, "maxClients": 500, "maxStorageGB": 5}`),
	})
	require.NoError(t, err)
	require.Equal(t, "Basic", first.Name)

	second, err := store.Upsert(ctx, PlanRecord{
		PlanID:       "basic",
		Name:         "Basic",
		MonthlyPrice: 35,
		YearlyPrice:  350,
		Limits:       []byte(`{"maxUsers": 10, "maxClients": 500, "maxStorageGB": 5}`),
	})
	require.NoError(t, err)
	require.Equal(t, first.CreatedAt, second.CreatedAt)
	require.InDelta(t, 35, second.MonthlyPrice, 0.0001)
	require.JSONEq(t, `{"maxUsers": 10, "maxClients": 500, "maxStorageGB": 5}`, string(second.Limits))

	fetched, err := store.Get(ctx, "basic")
	require.NoError(t, err)
	require.InDelta(t, 35, fetched.MonthlyPrice, 0.0001)
}

func TestPlanStoreGetNotFound(t *testing.T) {
	t.Parallel()

	pool := mustTestPool(t)

	store, err := NewPlanStore(pool)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "no-such-plan")
	require.ErrorIs(t, err, ErrPlanNotFound)
}

func TestPlanStoreListOrdersByPrice(t *testing.T) {
	t.Parallel()

	pool := mustTestPool(t)
	ctx := context.Background()

	store, err := NewPlanStore(pool)
	require.NoError(t, err)

	for _, rec := range []PlanRecord{
		{PlanID: "enterprise", Name: "Enterprise", MonthlyPrice: 299},
		{PlanID: "trial", Name: "Trial", MonthlyPrice: 0},
		{PlanID: "pro", Name: "Professional", MonthlyPrice: 79},
	} {
		_, err := store.Upsert(ctx, rec)
		require.NoError(t, err)
	}

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(records), 3)

	for i := 1; i < len(records); i++ {
		require.LessOrEqual(t, records[i-1].MonthlyPrice, records[i].MonthlyPrice)
	}
}
