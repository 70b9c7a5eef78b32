package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vetcare-hq/vetcare-saas/domains/owners/be/service"
	tenantsvc "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
	"github.com/vetcare-hq/vetcare-saas/platform/go/tenant"
)

// mockRepo implements repo.Repository with function fields.
type mockRepo struct {
	createFn func(ctx context.Context, params persistence.CreateOwnerParams) (persistence.Owner, error)
	listFn   func(ctx context.Context, params persistence.ListOwnersParams) (persistence.ListOwnersResult, error)
	getFn    func(ctx context.Context, id uuid.UUID) (persistence.Owner, error)
	updateFn func(ctx context.Context, id uuid.UUID, params persistence.UpdateOwnerParams) (persistence.Owner, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockRepo) Create(ctx context.Context, params persistence.CreateOwnerParams) (persistence.Owner, error) {
	return m.createFn(ctx, params)
}

func (m *mockRepo) List(ctx context.Context, params persistence.ListOwnersParams) (persistence.ListOwnersResult, error) {
	return m.listFn(ctx, params)
}

func (m *mockRepo) Get(ctx context.Context, id uuid.UUID) (persistence.Owner, error) {
	return m.getFn(ctx, id)
}

func (m *mockRepo) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateOwnerParams) (persistence.Owner, error) {
	return m.updateFn(ctx, id, params)
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

type quotaMock struct {
	err     error
	checked []tenantsvc.Resource
}

func (m *quotaMock) CheckLimits(ctx context.Context, tenantID uuid.UUID, resource tenantsvc.Resource, increment float64) (tenantsvc.Tenant, error) {
	m.checked = append(m.checked, resource)
	if m.err != nil {
		return tenantsvc.Tenant{}, m.err
	}
	return tenantsvc.Tenant{ID: tenantID}, nil
}

type auditorMock struct {
	actions []string
}

func (m *auditorMock) Record(tenantID uuid.UUID, actor, action, category, details string) {
	m.actions = append(m.actions, action)
}

func tenantContext() context.Context {
	return tenant.WithID(context.Background(), uuid.New())
}

func TestCreateChecksClientQuota(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		createFn: func(ctx context.Context, params persistence.CreateOwnerParams) (persistence.Owner, error) {
			return persistence.Owner{
				OwnerID:  params.OwnerID,
				FullName: params.FullName,
				Email:    params.Email,
				Phone:    params.Phone,
			}, nil
		},
	}
	quota := &quotaMock{}
	auditor := &auditorMock{}
	svc := service.New(repo, quota, auditor)

	owner, err := svc.Create(tenantContext(), service.CreateInput{
		FullName: "Jon Arbuckle",
		Email:    "Jon@Example.Test",
		Phone:    " 555-0100 ",
	})
	require.NoError(t, err)
	require.Equal(t, "jon@example.test", owner.Email)
	require.Equal(t, "555-0100", owner.Phone)
	require.Equal(t, []tenantsvc.Resource{tenantsvc.ResourceClients}, quota.checked)
	require.Equal(t, []string{"owner_created"}, auditor.actions)
}

func TestCreateBlockedByClientQuota(t *testing.T) {
	t.Parallel()

	quota := &quotaMock{err: &tenantsvc.QuotaExceededError{Resource: tenantsvc.ResourceClients, Limit: 500}}
	auditor := &auditorMock{}
	svc := service.New(&mockRepo{}, quota, auditor)

	_, err := svc.Create(tenantContext(), service.CreateInput{FullName: "Jon Arbuckle"})
	var quotaErr *tenantsvc.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	require.Equal(t, tenantsvc.ResourceClients, quotaErr.Resource)
	require.Empty(t, auditor.actions)
}

func TestCreateAllowsMissingEmail(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		createFn: func(ctx context.Context, params persistence.CreateOwnerParams) (persistence.Owner, error) {
			return persistence.Owner{OwnerID: params.OwnerID, FullName: params.FullName}, nil
		},
	}
	svc := service.New(repo, &quotaMock{}, &auditorMock{})

	_, err := svc.Create(tenantContext(), service.CreateInput{FullName: "Walk-in Client"})
	require.NoError(t, err)
}

func TestCreateRequiresFullName(t *testing.T) {
	t.Parallel()

	quota := &quotaMock{}
	svc := service.New(&mockRepo{}, quota, &auditorMock{})

	_, err := svc.Create(tenantContext(), service.CreateInput{Email: "a@b.test"})
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "fullName")
	require.Empty(t, quota.checked)
}

func TestGetMapsNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		getFn: func(ctx context.Context, id uuid.UUID) (persistence.Owner, error) {
			return persistence.Owner{}, persistence.ErrOwnerNotFound
		},
	}
	svc := service.New(repo, &quotaMock{}, &auditorMock{})

	_, err := svc.Get(tenantContext(), uuid.New())
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteAuditsRemoval(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		deleteFn: func(ctx context.Context, id uuid.UUID) error { return nil },
	}
	auditor := &auditorMock{}
	svc := service.New(repo, &quotaMock{}, auditor)

	require.NoError(t, svc.Delete(tenantContext(), uuid.New()))
	require.Equal(t, []string{"owner_deleted"}, auditor.actions)
}
