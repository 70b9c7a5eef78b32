package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	tenantsvc "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	"github.com/vetcare-hq/vetcare-saas/domains/users/be/service"
	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
	"github.com/vetcare-hq/vetcare-saas/platform/go/tenant"
)

// mockRepo implements repo.Repository with function fields.
type mockRepo struct {
	createFn func(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error)
	listFn   func(ctx context.Context, params persistence.ListUsersParams) (persistence.ListUsersResult, error)
	getFn    func(ctx context.Context, id uuid.UUID) (persistence.User, error)
	updateFn func(ctx context.Context, id uuid.UUID, params persistence.UpdateUserParams) (persistence.User, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockRepo) Create(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
	return m.createFn(ctx, params)
}

func (m *mockRepo) List(ctx context.Context, params persistence.ListUsersParams) (persistence.ListUsersResult, error) {
	return m.listFn(ctx, params)
}

func (m *mockRepo) Get(ctx context.Context, id uuid.UUID) (persistence.User, error) {
	return m.getFn(ctx, id)
}

func (m *mockRepo) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateUserParams) (persistence.User, error) {
	return m.updateFn(ctx, id, params)
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

// quotaMock returns a fixed CheckLimits outcome and records invocations.
type quotaMock struct {
	err       error
	checked   []tenantsvc.Resource
	increment float64
}

func (m *quotaMock) CheckLimits(ctx context.Context, tenantID uuid.UUID, resource tenantsvc.Resource, increment float64) (tenantsvc.Tenant, error) {
	m.checked = append(m.checked, resource)
	m.increment = increment
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

func TestCreateChecksQuotaBeforeInsert(t *testing.T) {
	t.Parallel()

	inserted := false
	repo := &mockRepo{
		createFn: func(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
			inserted = true
			return persistence.User{
				UserID:   params.UserID,
				TenantID: params.TenantID,
				Email:    params.Email,
				FullName: params.FullName,
				Role:     params.Role,
			}, nil
		},
	}
	quota := &quotaMock{}
	auditor := &auditorMock{}
	svc := service.New(repo, quota, auditor)

	user, err := svc.Create(tenantContext(), service.CreateInput{
		Email:    "Jane@Clinic.Test",
		FullName: "Jane Vet",
		Role:     service.RoleVeterinarian,
	})
	require.NoError(t, err)
	require.True(t, inserted)
	require.Equal(t, "jane@clinic.test", user.Email)
	require.Equal(t, []tenantsvc.Resource{tenantsvc.ResourceUsers}, quota.checked)
	require.InDelta(t, 1, quota.increment, 0.0001)
	require.Equal(t, []string{"user_created"}, auditor.actions)
}

func TestCreateBlockedByQuota(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		createFn: func(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
			t.Fatal("create must not be reached when the quota check fails")
			return persistence.User{}, nil
		},
	}
	quota := &quotaMock{err: &tenantsvc.QuotaExceededError{Resource: tenantsvc.ResourceUsers, Limit: 5}}
	auditor := &auditorMock{}
	svc := service.New(repo, quota, auditor)

	_, err := svc.Create(tenantContext(), service.CreateInput{
		Email:    "jane@clinic.test",
		FullName: "Jane Vet",
	})
	var quotaErr *tenantsvc.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	require.Empty(t, auditor.actions)
}

func TestCreateBlockedByRestrictedAccount(t *testing.T) {
	t.Parallel()

	quota := &quotaMock{err: tenantsvc.ErrAccountRestricted}
	svc := service.New(&mockRepo{}, quota, &auditorMock{})

	_, err := svc.Create(tenantContext(), service.CreateInput{
		Email:    "jane@clinic.test",
		FullName: "Jane Vet",
	})
	require.ErrorIs(t, err, tenantsvc.ErrAccountRestricted)
}

func TestCreateValidatesBeforeQuota(t *testing.T) {
	t.Parallel()

	quota := &quotaMock{}
	svc := service.New(&mockRepo{}, quota, &auditorMock{})

	_, err := svc.Create(tenantContext(), service.CreateInput{Email: "not-an-email", Role: "janitor"})
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "email")
	require.Contains(t, validationErr.Fields, "fullName")
	require.Contains(t, validationErr.Fields, "role")
	require.Empty(t, quota.checked)
}

func TestCreateMapsConflict(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		createFn: func(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
			return persistence.User{}, persistence.ErrUserConflict
		},
	}
	svc := service.New(repo, &quotaMock{}, &auditorMock{})

	_, err := svc.Create(tenantContext(), service.CreateInput{
		Email:    "jane@clinic.test",
		FullName: "Jane Vet",
	})
	require.ErrorIs(t, err, service.ErrConflict)
}

func TestGetMapsNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		getFn: func(ctx context.Context, id uuid.UUID) (persistence.User, error) {
			return persistence.User{}, persistence.ErrUserNotFound
		},
	}
	svc := service.New(repo, &quotaMock{}, &auditorMock{})

	_, err := svc.Get(tenantContext(), uuid.New())
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateRequiresAtLeastOneField(t *testing.T) {
	t.Parallel()

	svc := service.New(&mockRepo{}, &quotaMock{}, &auditorMock{})

	_, err := svc.Update(tenantContext(), uuid.New(), service.UpdateInput{})
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestDeleteAuditsRemoval(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		deleteFn: func(ctx context.Context, id uuid.UUID) error { return nil },
	}
	auditor := &auditorMock{}
	svc := service.New(repo, &quotaMock{}, auditor)

	require.NoError(t, svc.Delete(tenantContext(), uuid.New()))
	require.Equal(t, []string{"user_deleted"}, auditor.actions)
}
