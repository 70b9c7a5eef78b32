package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
	"github.com/vetcare-hq/vetcare-saas/platform/go/tenant"
)

// Repository defines the persistence operations required by the patients
// service, covering patients and their file attachments. Every operation is
// scoped to the tenant resolved from the request context.
type Repository interface {
	Create(ctx context.Context, params persistence.CreatePatientParams) (persistence.Patient, error)
	List(ctx context.Context, params persistence.ListPatientsParams) (persistence.ListPatientsResult, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.Patient, error)
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdatePatientParams) (persistence.Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error

	OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error)

	CreateAttachment(ctx context.Context, params persistence.CreateAttachmentParams) (persistence.Attachment, error)
	ListAttachments(ctx context.Context, patientID uuid.UUID) ([]persistence.Attachment, error)
	DeleteAttachment(ctx context.Context, id uuid.UUID) (persistence.Attachment, error)
	SumAttachmentSizes(ctx context.Context, patientID uuid.UUID) (float64, error)
}

type postgresRepository struct {
	patients    *persistence.PatientStore
	owners      *persistence.OwnerStore
	attachments *persistence.AttachmentStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(patients *persistence.PatientStore, owners *persistence.OwnerStore, attachments *persistence.AttachmentStore) Repository {
	if patients == nil {
		panic("patient store is required")
	}
	if owners == nil {
		panic("owner store is required")
	}
	if attachments == nil {
		panic("attachment store is required")
	}
	return &postgresRepository{patients: patients, owners: owners, attachments: attachments}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreatePatientParams) (persistence.Patient, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.Patient{}, err
	}
	params.TenantID = tenantID
	return r.patients.CreatePatient(ctx, params)
}

func (r *postgresRepository) List(ctx context.Context, params persistence.ListPatientsParams) (persistence.ListPatientsResult, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.ListPatientsResult{}, err
	}
	params.TenantID = tenantID
	return r.patients.ListPatients(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Patient, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.Patient{}, err
	}
	return r.patients.GetPatient(ctx, tenantID, id)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdatePatientParams) (persistence.Patient, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.Patient{}, err
	}
	return r.patients.UpdatePatient(ctx, tenantID, id, params)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return err
	}
	return r.patients.DeletePatient(ctx, tenantID, id)
}

func (r *postgresRepository) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return false, err
	}
	_, err = r.owners.GetOwner(ctx, tenantID, ownerID)
	if err != nil {
		if errors.Is(err, persistence.ErrOwnerNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *postgresRepository) CreateAttachment(ctx context.Context, params persistence.CreateAttachmentParams) (persistence.Attachment, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.Attachment{}, err
	}
	params.TenantID = tenantID
	return r.attachments.CreateAttachment(ctx, params)
}

func (r *postgresRepository) ListAttachments(ctx context.Context, patientID uuid.UUID) ([]persistence.Attachment, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return r.attachments.ListAttachments(ctx, tenantID, patientID)
}

func (r *postgresRepository) DeleteAttachment(ctx context.Context, id uuid.UUID) (persistence.Attachment, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return persistence.Attachment{}, err
	}
	return r.attachments.DeleteAttachment(ctx, tenantID, id)
}

func (r *postgresRepository) SumAttachmentSizes(ctx context.Context, patientID uuid.UUID) (float64, error) {
	tenantID, err := requireTenantID(ctx)
	if err != nil {
		return 0, err
	}
	attachments, err := r.attachments.ListAttachments(ctx, tenantID, patientID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, attachment := range attachments {
		total += attachment.SizeMB
	}
	return total, nil
}

func requireTenantID(ctx context.Context) (uuid.UUID, error) {
	id, ok := tenant.FromContext(ctx)
	if !ok || id == uuid.Nil {
		return uuid.Nil, errors.New("tenant id missing from context")
	}
	return id, nil
}
