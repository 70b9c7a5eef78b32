package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTenantStoreLifecycle(t *testing.T) {
	t.Parallel()

	pool := mustTestPool(t)
	ctx := context.Background()

	store, err := NewTenantStore(pool)
	require.NoError(t, err)

	tenantID := uuid.New()
	created, err := store.Create(ctx, TenantRecord{
		TenantID: tenantID,
		Name:     "Happy Paws Clinic",
		PlanID:   "basic",
		Status:   "active",
	})
	require.NoError(t, err)
	require.Equal(t, tenantID, created.TenantID)
	require.Equal(t, "basic", created.PlanID)
	require.Zero(t, created.StorageUsedMB)
	require.JSONEq(t, `{}`, string(created.Settings))

	fetched, err := store.Get(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, created.Name, fetched.Name)

	newStatus := "restricted"
	updated, err := store.Update(ctx, tenantID, UpdateTenantParams{Status: &newStatus})
	require.NoError(t, err)
	require.Equal(t, "restricted", updated.Status)
	require.Equal(t, "basic", updated.PlanID)

	records, total, err := store.List(ctx, &newStatus, 10, 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, total, 1)
	found := false
	for _, rec := range records {
		if rec.TenantID == tenantID {
			found = true
		}
	}
	require.True(t, found)
}

func TestTenantStoreGetNotFound(t *testing.T) {
	t.Parallel()

	pool := mustTestPool(t)

	store, err := NewTenantStore(pool)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrTenantNotFound)
}

func TestTenantStoreIncrementStorage(t *testing.T) {
	t.Parallel()

	pool := mustTestPool(t)
	ctx := context.Background()

	store, err := NewTenantStore(pool)
	require.NoError(t, err)

	tenantID := uuid.New()
	_, err = store.Create(ctx, TenantRecord{
		TenantID: tenantID,
		Name:     "Storage Clinic",
		PlanID:   "pro",
		Status:   "active",
	})
	require.NoError(t, err)

	require.NoError(t, store.IncrementStorage(ctx, tenantID, 12.5))
	require.NoError(t, store.IncrementStorage(ctx, tenantID, 2.5))

	rec, err := store.Get(ctx, tenantID)
	require.NoError(t, err)
	require.InDelta(t, 15.0, rec.StorageUsedMB, 0.0001)

	// Releasing more than is tracked clamps at zero rather than going negative.
	require.NoError(t, store.IncrementStorage(ctx, tenantID, -100))
	rec, err = store.Get(ctx, tenantID)
	require.NoError(t, err)
	require.Zero(t, rec.StorageUsedMB)

	require.ErrorIs(t, store.IncrementStorage(ctx, uuid.New(), 1), ErrTenantNotFound)
}
