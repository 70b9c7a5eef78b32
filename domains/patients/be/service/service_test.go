package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vetcare-hq/vetcare-saas/domains/patients/be/service"
	tenantsvc "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
	"github.com/vetcare-hq/vetcare-saas/platform/go/tenant"
)

// mockRepo implements repo.Repository with function fields.
type mockRepo struct {
	createFn           func(ctx context.Context, params persistence.CreatePatientParams) (persistence.Patient, error)
	listFn             func(ctx context.Context, params persistence.ListPatientsParams) (persistence.ListPatientsResult, error)
	getFn              func(ctx context.Context, id uuid.UUID) (persistence.Patient, error)
	updateFn           func(ctx context.Context, id uuid.UUID, params persistence.UpdatePatientParams) (persistence.Patient, error)
	deleteFn           func(ctx context.Context, id uuid.UUID) error
	ownerExistsFn      func(ctx context.Context, ownerID uuid.UUID) (bool, error)
	createAttachmentFn func(ctx context.Context, params persistence.CreateAttachmentParams) (persistence.Attachment, error)
	listAttachmentsFn  func(ctx context.Context, patientID uuid.UUID) ([]persistence.Attachment, error)
	deleteAttachmentFn func(ctx context.Context, id uuid.UUID) (persistence.Attachment, error)
	sumSizesFn         func(ctx context.Context, patientID uuid.UUID) (float64, error)
}

func (m *mockRepo) Create(ctx context.Context, params persistence.CreatePatientParams) (persistence.Patient, error) {
	return m.createFn(ctx, params)
}

func (m *mockRepo) List(ctx context.Context, params persistence.ListPatientsParams) (persistence.ListPatientsResult, error) {
	return m.listFn(ctx, params)
}

func (m *mockRepo) Get(ctx context.Context, id uuid.UUID) (persistence.Patient, error) {
	return m.getFn(ctx, id)
}

func (m *mockRepo) Update(ctx context.Context, id uuid.UUID, params persistence.UpdatePatientParams) (persistence.Patient, error) {
	return m.updateFn(ctx, id, params)
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockRepo) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	if m.ownerExistsFn == nil {
		return true, nil
	}
	return m.ownerExistsFn(ctx, ownerID)
}

func (m *mockRepo) CreateAttachment(ctx context.Context, params persistence.CreateAttachmentParams) (persistence.Attachment, error) {
	return m.createAttachmentFn(ctx, params)
}

func (m *mockRepo) ListAttachments(ctx context.Context, patientID uuid.UUID) ([]persistence.Attachment, error) {
	return m.listAttachmentsFn(ctx, patientID)
}

func (m *mockRepo) DeleteAttachment(ctx context.Context, id uuid.UUID) (persistence.Attachment, error) {
	return m.deleteAttachmentFn(ctx, id)
}

func (m *mockRepo) SumAttachmentSizes(ctx context.Context, patientID uuid.UUID) (float64, error) {
	if m.sumSizesFn == nil {
		return 0, nil
	}
	return m.sumSizesFn(ctx, patientID)
}

type quotaMock struct {
	err        error
	resources  []tenantsvc.Resource
	increments []float64
}

func (m *quotaMock) CheckLimits(ctx context.Context, tenantID uuid.UUID, resource tenantsvc.Resource, increment float64) (tenantsvc.Tenant, error) {
	m.resources = append(m.resources, resource)
	m.increments = append(m.increments, increment)
	if m.err != nil {
		return tenantsvc.Tenant{}, m.err
	}
	return tenantsvc.Tenant{ID: tenantID}, nil
}

type trackerMock struct {
	deltas []float64
}

func (m *trackerMock) TrackStorage(ctx context.Context, tenantID uuid.UUID, deltaMB float64) {
	m.deltas = append(m.deltas, deltaMB)
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

func existingPatient(id uuid.UUID) func(ctx context.Context, patientID uuid.UUID) (persistence.Patient, error) {
	return func(ctx context.Context, patientID uuid.UUID) (persistence.Patient, error) {
		return persistence.Patient{PatientID: id, Name: "Garfield", Species: "cat"}, nil
	}
}

func TestCreateVerifiesOwner(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	repo := &mockRepo{
		ownerExistsFn: func(ctx context.Context, id uuid.UUID) (bool, error) {
			require.Equal(t, ownerID, id)
			return true, nil
		},
		createFn: func(ctx context.Context, params persistence.CreatePatientParams) (persistence.Patient, error) {
			return persistence.Patient{
				PatientID: params.PatientID,
				OwnerID:   params.OwnerID,
				Name:      params.Name,
				Species:   params.Species,
			}, nil
		},
	}
	auditor := &auditorMock{}
	svc := service.New(repo, &quotaMock{}, &trackerMock{}, auditor, "vetcare-test")

	patient, err := svc.Create(tenantContext(), service.CreateInput{
		OwnerID: ownerID,
		Name:    " Garfield ",
		Species: "cat",
	})
	require.NoError(t, err)
	require.Equal(t, "Garfield", patient.Name)
	require.Equal(t, ownerID, patient.OwnerID)
	require.Equal(t, []string{"patient_created"}, auditor.actions)
}

func TestCreateRejectsUnknownOwner(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		ownerExistsFn: func(ctx context.Context, id uuid.UUID) (bool, error) { return false, nil },
	}
	svc := service.New(repo, &quotaMock{}, &trackerMock{}, &auditorMock{}, "vetcare-test")

	_, err := svc.Create(tenantContext(), service.CreateInput{
		OwnerID: uuid.New(),
		Name:    "Garfield",
		Species: "cat",
	})
	require.ErrorIs(t, err, service.ErrOwnerNotFound)
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	t.Parallel()

	svc := service.New(&mockRepo{}, &quotaMock{}, &trackerMock{}, &auditorMock{}, "vetcare-test")

	_, err := svc.Create(tenantContext(), service.CreateInput{})
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "name")
	require.Contains(t, validationErr.Fields, "species")
	require.Contains(t, validationErr.Fields, "ownerId")
}

func TestAddAttachmentChecksStorageQuota(t *testing.T) {
	t.Parallel()

	patientID := uuid.New()
	repo := &mockRepo{
		getFn: existingPatient(patientID),
		createAttachmentFn: func(ctx context.Context, params persistence.CreateAttachmentParams) (persistence.Attachment, error) {
			return persistence.Attachment{
				AttachmentID: params.AttachmentID,
				TenantID:     params.TenantID,
				PatientID:    params.PatientID,
				FileName:     params.FileName,
				ContentType:  params.ContentType,
				SizeMB:       params.SizeMB,
			}, nil
		},
	}
	quota := &quotaMock{}
	tracker := &trackerMock{}
	auditor := &auditorMock{}
	svc := service.New(repo, quota, tracker, auditor, "vetcare-test")

	attachment, err := svc.AddAttachment(tenantContext(), patientID, service.AttachmentInput{
		FileName: "xray.png",
		SizeMB:   12.5,
	})
	require.NoError(t, err)
	require.Equal(t, []tenantsvc.Resource{tenantsvc.ResourceStorage}, quota.resources)
	require.Equal(t, []float64{12.5}, quota.increments)
	require.Equal(t, []float64{12.5}, tracker.deltas)
	require.Equal(t, []string{"attachment_added"}, auditor.actions)
	require.Equal(t, "vetcare-test", attachment.Bucket)
	require.Contains(t, attachment.ObjectPath, "patients/"+patientID.String()+"/attachments/xray.png")
}

func TestAddAttachmentBlockedByStorageQuota(t *testing.T) {
	t.Parallel()

	patientID := uuid.New()
	repo := &mockRepo{
		getFn: existingPatient(patientID),
		createAttachmentFn: func(ctx context.Context, params persistence.CreateAttachmentParams) (persistence.Attachment, error) {
			t.Fatal("attachment must not be inserted when the quota check fails")
			return persistence.Attachment{}, nil
		},
	}
	quota := &quotaMock{err: &tenantsvc.QuotaExceededError{Resource: tenantsvc.ResourceStorage, Limit: 2048}}
	tracker := &trackerMock{}
	svc := service.New(repo, quota, tracker, &auditorMock{}, "vetcare-test")

	_, err := svc.AddAttachment(tenantContext(), patientID, service.AttachmentInput{
		FileName: "xray.png",
		SizeMB:   100,
	})
	var quotaErr *tenantsvc.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	require.Empty(t, tracker.deltas)
}

func TestAddAttachmentRejectsNonPositiveSize(t *testing.T) {
	t.Parallel()

	quota := &quotaMock{}
	svc := service.New(&mockRepo{}, quota, &trackerMock{}, &auditorMock{}, "vetcare-test")

	_, err := svc.AddAttachment(tenantContext(), uuid.New(), service.AttachmentInput{
		FileName: "xray.png",
		SizeMB:   0,
	})
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "sizeMb")
	require.Empty(t, quota.resources)
}

func TestAddAttachmentUnknownPatient(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		getFn: func(ctx context.Context, id uuid.UUID) (persistence.Patient, error) {
			return persistence.Patient{}, persistence.ErrPatientNotFound
		},
	}
	quota := &quotaMock{}
	svc := service.New(repo, quota, &trackerMock{}, &auditorMock{}, "vetcare-test")

	_, err := svc.AddAttachment(tenantContext(), uuid.New(), service.AttachmentInput{
		FileName: "xray.png",
		SizeMB:   1,
	})
	require.ErrorIs(t, err, service.ErrNotFound)
	require.Empty(t, quota.resources)
}

func TestDeleteAttachmentReleasesStorage(t *testing.T) {
	t.Parallel()

	attachmentID := uuid.New()
	repo := &mockRepo{
		deleteAttachmentFn: func(ctx context.Context, id uuid.UUID) (persistence.Attachment, error) {
			require.Equal(t, attachmentID, id)
			return persistence.Attachment{AttachmentID: id, FileName: "xray.png", SizeMB: 7.25}, nil
		},
	}
	tracker := &trackerMock{}
	auditor := &auditorMock{}
	svc := service.New(repo, &quotaMock{}, tracker, auditor, "vetcare-test")

	require.NoError(t, svc.DeleteAttachment(tenantContext(), attachmentID))
	require.Equal(t, []float64{-7.25}, tracker.deltas)
	require.Equal(t, []string{"attachment_removed"}, auditor.actions)
}

func TestDeleteAttachmentMapsNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		deleteAttachmentFn: func(ctx context.Context, id uuid.UUID) (persistence.Attachment, error) {
			return persistence.Attachment{}, persistence.ErrAttachmentNotFound
		},
	}
	tracker := &trackerMock{}
	svc := service.New(repo, &quotaMock{}, tracker, &auditorMock{}, "vetcare-test")

	err := svc.DeleteAttachment(tenantContext(), uuid.New())
	require.ErrorIs(t, err, service.ErrAttachmentNotFound)
	require.Empty(t, tracker.deltas)
}

func TestDeletePatientReleasesAttachmentStorage(t *testing.T) {
	t.Parallel()

	patientID := uuid.New()
	repo := &mockRepo{
		sumSizesFn: func(ctx context.Context, id uuid.UUID) (float64, error) {
			require.Equal(t, patientID, id)
			return 20.5, nil
		},
		deleteFn: func(ctx context.Context, id uuid.UUID) error { return nil },
	}
	tracker := &trackerMock{}
	auditor := &auditorMock{}
	svc := service.New(repo, &quotaMock{}, tracker, auditor, "vetcare-test")

	require.NoError(t, svc.Delete(tenantContext(), patientID))
	require.Equal(t, []float64{-20.5}, tracker.deltas)
	require.Equal(t, []string{"patient_deleted"}, auditor.actions)
}

func TestUpdateRequiresAtLeastOneField(t *testing.T) {
	t.Parallel()

	svc := service.New(&mockRepo{}, &quotaMock{}, &trackerMock{}, &auditorMock{}, "vetcare-test")

	_, err := svc.Update(tenantContext(), uuid.New(), service.UpdateInput{})
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "payload")
}
