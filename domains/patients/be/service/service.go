package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vetcare-hq/vetcare-saas/domains/patients/be/repo"
	tenantsvc "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
	"github.com/vetcare-hq/vetcare-saas/platform/go/requesttrace"
	"github.com/vetcare-hq/vetcare-saas/platform/go/storage"
	"github.com/vetcare-hq/vetcare-saas/platform/go/tenant"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain sentinels.
var (
	ErrNotFound           = errors.New("patient not found")
	ErrOwnerNotFound      = errors.New("owner not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
)

// Patient represents an animal under the clinic's care.
type Patient struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Species   string
	Breed     string
	BornOn    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attachment is the metadata record for a file stored against a patient.
// Bucket and ObjectPath point at the blob location derived from the tenant
// partition; the blob itself is uploaded out of band.
type Attachment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	FileName    string
	ContentType string
	SizeMB      float64
	Bucket      string
	ObjectPath  string
	CreatedAt   time.Time
}

// ListOptions controls filtering and pagination.
type ListOptions struct {
	OwnerID  *uuid.UUID
	Page     int
	PageSize int
}

// ListResult wraps a page of patients with pagination metadata.
type ListResult struct {
	Patients   []Patient
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// CreateInput represents the payload required to register a patient.
type CreateInput struct {
	OwnerID uuid.UUID
	Name    string
	Species string
	Breed   string
	BornOn  *time.Time
}

// UpdateInput encapsulates mutable fields.
type UpdateInput struct {
	Name    *string
	Species *string
	Breed   *string
	BornOn  *time.Time
}

// AttachmentInput registers file metadata ahead of the blob upload.
type AttachmentInput struct {
	FileName    string
	ContentType string
	SizeMB      float64
}

// QuotaChecker gates resource-consuming mutations against the tenant's plan.
type QuotaChecker interface {
	CheckLimits(ctx context.Context, tenantID uuid.UUID, resource tenantsvc.Resource, increment float64) (tenantsvc.Tenant, error)
}

// StorageTracker adjusts the tenant's storage counter after attachment changes.
type StorageTracker interface {
	TrackStorage(ctx context.Context, tenantID uuid.UUID, deltaMB float64)
}

// Auditor records data-level changes.
type Auditor interface {
	Record(tenantID uuid.UUID, actor, action, category, details string)
}

// Service defines the business operations for the patients domain.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Patient, error)
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (Patient, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddAttachment(ctx context.Context, patientID uuid.UUID, input AttachmentInput) (Attachment, error)
	ListAttachments(ctx context.Context, patientID uuid.UUID) ([]Attachment, error)
	DeleteAttachment(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo    repo.Repository
	quota   QuotaChecker
	tracker StorageTracker
	auditor Auditor
	bucket  string
}

// New constructs a patients Service instance. bucket names the blob bucket for
// this deployment and feeds attachment object locations.
func New(r repo.Repository, quota QuotaChecker, tracker StorageTracker, auditor Auditor, bucket string) Service {
	if r == nil {
		panic("patients repository is required")
	}
	if quota == nil {
		panic("quota checker is required")
	}
	if tracker == nil {
		panic("storage tracker is required")
	}
	if auditor == nil {
		panic("auditor is required")
	}
	if strings.TrimSpace(bucket) == "" {
		panic("attachment bucket is required")
	}
	return &service{repo: r, quota: quota, tracker: tracker, auditor: auditor, bucket: bucket}
}

func (s *service) Create(ctx context.Context, input CreateInput) (Patient, error) {
	fieldErrors := FieldErrors{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		fieldErrors.add("name", "name is required")
	}
	species := strings.TrimSpace(input.Species)
	if species == "" {
		fieldErrors.add("species", "species is required")
	}
	if input.OwnerID == uuid.Nil {
		fieldErrors.add("ownerId", "ownerId is required")
	}
	if len(fieldErrors) > 0 {
		return Patient{}, &ValidationError{Fields: fieldErrors}
	}

	exists, err := s.repo.OwnerExists(ctx, input.OwnerID)
	if err != nil {
		return Patient{}, err
	}
	if !exists {
		return Patient{}, ErrOwnerNotFound
	}

	record, err := s.repo.Create(ctx, persistence.CreatePatientParams{
		PatientID: uuid.New(),
		OwnerID:   input.OwnerID,
		Name:      name,
		Species:   species,
		Breed:     strings.TrimSpace(input.Breed),
		BornOn:    input.BornOn,
	})
	if err != nil {
		return Patient{}, err
	}

	if tenantID, ok := tenant.FromContext(ctx); ok {
		actor := requesttrace.FromContextOrAnonymous(ctx).ActorLabel()
		s.auditor.Record(tenantID, actor, "patient_created", "data",
			fmt.Sprintf("created patient %s (%s)", record.Name, record.Species))
	}

	return mapPatient(record), nil
}

func (s *service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	result, err := s.repo.List(ctx, persistence.ListPatientsParams{
		OwnerID:  opts.OwnerID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return ListResult{}, err
	}

	patients := make([]Patient, 0, len(result.Patients))
	for _, record := range result.Patients {
		patients = append(patients, mapPatient(record))
	}

	totalPages := 0
	if result.TotalItems > 0 {
		totalPages = (result.TotalItems + pageSize - 1) / pageSize
	}

	return ListResult{
		Patients:   patients,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: result.TotalItems,
		TotalPages: totalPages,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Patient, error) {
	if id == uuid.Nil {
		return Patient{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return Patient{}, mapPersistenceError(err)
	}
	return mapPatient(record), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Patient, error) {
	if id == uuid.Nil {
		return Patient{}, ErrNotFound
	}

	fieldErrors := FieldErrors{}
	params := persistence.UpdatePatientParams{}
	fieldsSet := 0

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			fieldErrors.add("name", "name cannot be empty")
		} else {
			params.Name = &name
			fieldsSet++
		}
	}
	if input.Species != nil {
		species := strings.TrimSpace(*input.Species)
		if species == "" {
			fieldErrors.add("species", "species cannot be empty")
		} else {
			params.Species = &species
			fieldsSet++
		}
	}
	if input.Breed != nil {
		breed := strings.TrimSpace(*input.Breed)
		params.Breed = &breed
		fieldsSet++
	}
	if input.BornOn != nil {
		params.BornOn = input.BornOn
		fieldsSet++
	}

	if fieldsSet == 0 && len(fieldErrors) == 0 {
		fieldErrors.add("payload", "at least one field must be provided")
	}
	if len(fieldErrors) > 0 {
		return Patient{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return Patient{}, mapPersistenceError(err)
	}
	return mapPatient(record), nil
}

// Delete removes the patient and releases the storage held by its attachments.
// Attachment rows cascade at the database level, so the size is summed first.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrNotFound
	}

	releasedMB, err := s.repo.SumAttachmentSizes(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapPersistenceError(err)
	}

	if tenantID, ok := tenant.FromContext(ctx); ok {
		if releasedMB > 0 {
			s.tracker.TrackStorage(ctx, tenantID, -releasedMB)
		}
		actor := requesttrace.FromContextOrAnonymous(ctx).ActorLabel()
		s.auditor.Record(tenantID, actor, "patient_deleted", "data",
			fmt.Sprintf("deleted patient %s", id))
	}

	return nil
}

// AddAttachment registers file metadata for a patient. The declared size is
// checked against the plan's storage quota before the row is inserted, then
// added to the tenant's storage counter.
func (s *service) AddAttachment(ctx context.Context, patientID uuid.UUID, input AttachmentInput) (Attachment, error) {
	fieldErrors := FieldErrors{}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		fieldErrors.add("fileName", "fileName is required")
	}
	if input.SizeMB <= 0 {
		fieldErrors.add("sizeMb", "sizeMb must be greater than zero")
	}
	if len(fieldErrors) > 0 {
		return Attachment{}, &ValidationError{Fields: fieldErrors}
	}

	if _, err := s.repo.Get(ctx, patientID); err != nil {
		return Attachment{}, mapPersistenceError(err)
	}

	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		return Attachment{}, errors.New("tenant id missing from context")
	}

	if _, err := s.quota.CheckLimits(ctx, tenantID, tenantsvc.ResourceStorage, input.SizeMB); err != nil {
		return Attachment{}, err
	}

	record, err := s.repo.CreateAttachment(ctx, persistence.CreateAttachmentParams{
		AttachmentID: uuid.New(),
		PatientID:    patientID,
		FileName:     fileName,
		ContentType:  strings.TrimSpace(input.ContentType),
		SizeMB:       input.SizeMB,
	})
	if err != nil {
		return Attachment{}, err
	}

	s.tracker.TrackStorage(ctx, tenantID, record.SizeMB)

	actor := requesttrace.FromContextOrAnonymous(ctx).ActorLabel()
	s.auditor.Record(tenantID, actor, "attachment_added", "data",
		fmt.Sprintf("added attachment %s (%.2f MB) to patient %s", record.FileName, record.SizeMB, patientID))

	return s.mapAttachment(record), nil
}

func (s *service) ListAttachments(ctx context.Context, patientID uuid.UUID) ([]Attachment, error) {
	if _, err := s.repo.Get(ctx, patientID); err != nil {
		return nil, mapPersistenceError(err)
	}

	records, err := s.repo.ListAttachments(ctx, patientID)
	if err != nil {
		return nil, err
	}

	attachments := make([]Attachment, 0, len(records))
	for _, record := range records {
		attachments = append(attachments, s.mapAttachment(record))
	}
	return attachments, nil
}

// DeleteAttachment removes the metadata row and releases its size from the
// tenant's storage counter.
func (s *service) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrAttachmentNotFound
	}

	record, err := s.repo.DeleteAttachment(ctx, id)
	if err != nil {
		return mapPersistenceError(err)
	}

	if tenantID, ok := tenant.FromContext(ctx); ok {
		s.tracker.TrackStorage(ctx, tenantID, -record.SizeMB)
		actor := requesttrace.FromContextOrAnonymous(ctx).ActorLabel()
		s.auditor.Record(tenantID, actor, "attachment_removed", "data",
			fmt.Sprintf("removed attachment %s (%.2f MB)", record.FileName, record.SizeMB))
	}

	return nil
}

func (s *service) mapAttachment(record persistence.Attachment) Attachment {
	attachment := Attachment{
		ID:          record.AttachmentID,
		PatientID:   record.PatientID,
		FileName:    record.FileName,
		ContentType: record.ContentType,
		SizeMB:      record.SizeMB,
		CreatedAt:   record.CreatedAt,
	}

	key := fmt.Sprintf("patients/%s/attachments/%s", record.PatientID, record.FileName)
	if location, err := storage.ResolveObjectLocation(record.TenantID, s.bucket, key); err == nil {
		attachment.Bucket = location.Bucket
		attachment.ObjectPath = location.FullPath
	}

	return attachment
}

func mapPatient(record persistence.Patient) Patient {
	return Patient{
		ID:        record.PatientID,
		OwnerID:   record.OwnerID,
		Name:      record.Name,
		Species:   record.Species,
		Breed:     record.Breed,
		BornOn:    record.BornOn,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrPatientNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrAttachmentNotFound):
		return ErrAttachmentNotFound
	default:
		return err
	}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
