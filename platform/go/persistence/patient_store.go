package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PatientsTable defines the fully-qualified table for patients (pets).
const PatientsTable = "clinic.patients"

// Patient represents a row in the patients table.
type Patient struct {
	PatientID uuid.UUID  `db:"patient_id" json:"patientId"`
	TenantID  uuid.UUID  `db:"tenant_id" json:"tenantId"`
	OwnerID   uuid.UUID  `db:"owner_id" json:"ownerId"`
	Name      string     `db:"name" json:"name"`
	Species   string     `db:"species" json:"species"`
	Breed     string     `db:"breed" json:"breed"`
	BornOn    *time.Time `db:"born_on" json:"bornOn,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// ErrPatientNotFound indicates a missing patient record within the tenant scope.
var ErrPatientNotFound = errors.New("patient not found")

// PatientStore exposes persistence helpers for the patients table, tenant scoped.
type PatientStore struct {
	pool *pgxpool.Pool
}

// NewPatientStore returns a store instance.
func NewPatientStore(pool *pgxpool.Pool) (*PatientStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &PatientStore{pool: pool}, nil
}

const patientColumns = "patient_id, tenant_id, owner_id, name, species, breed, born_on, created_at, updated_at"

// CreatePatientParams captures the fields required to insert a new patient record.
type CreatePatientParams struct {
	PatientID uuid.UUID
	TenantID  uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Species   string
	Breed     string
	BornOn    *time.Time
}

// CreatePatient inserts a new patient and returns the persisted record.
func (s *PatientStore) CreatePatient(ctx context.Context, params CreatePatientParams) (Patient, error) {
	if params.PatientID == uuid.Nil {
		return Patient{}, errors.New("patient id is required")
	}
	if params.TenantID == uuid.Nil {
		return Patient{}, errors.New("tenant id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (patient_id, tenant_id, owner_id, name, species, breed, born_on)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING %s
    `, PatientsTable, patientColumns),
		params.PatientID,
		params.TenantID,
		params.OwnerID,
		strings.TrimSpace(params.Name),
		strings.TrimSpace(params.Species),
		strings.TrimSpace(params.Breed),
		params.BornOn,
	)

	return scanPatient(row)
}

// ListPatientsParams captures filters and pagination for ListPatients.
type ListPatientsParams struct {
	TenantID uuid.UUID
	OwnerID  *uuid.UUID
	Page     int
	PageSize int
}

// ListPatientsResult includes the rows and the total count for pagination metadata.
type ListPatientsResult struct {
	Patients   []Patient
	TotalItems int
}

// ListPatients returns the tenant's patients, optionally filtered by owner.
func (s *PatientStore) ListPatients(ctx context.Context, params ListPatientsParams) (ListPatientsResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	whereParts := []string{"tenant_id = $1"}
	args := []any{params.TenantID}

	if params.OwnerID != nil {
		args = append(args, *params.OwnerID)
		whereParts = append(whereParts, fmt.Sprintf("owner_id = $%d", len(args)))
	}

	whereSQL := strings.Join(whereParts, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", PatientsTable, whereSQL)
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListPatientsResult{}, fmt.Errorf("count patients: %w", err)
	}

	result := ListPatientsResult{Patients: []Patient{}, TotalItems: total}
	if total == 0 {
		return result, nil
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)

	query := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE %s
        ORDER BY created_at DESC
        LIMIT $%d OFFSET $%d
    `, patientColumns, PatientsTable, whereSQL, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return ListPatientsResult{}, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	patients := make([]Patient, 0)
	for rows.Next() {
		patient, scanErr := scanPatient(rows)
		if scanErr != nil {
			return ListPatientsResult{}, fmt.Errorf("scan patient: %w", scanErr)
		}
		patients = append(patients, patient)
	}

	if err = rows.Err(); err != nil {
		return ListPatientsResult{}, fmt.Errorf("iterate patients: %w", err)
	}

	result.Patients = patients
	return result, nil
}

// GetPatient returns a single patient by identifier within the tenant scope.
func (s *PatientStore) GetPatient(ctx context.Context, tenantID, id uuid.UUID) (Patient, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE tenant_id = $1 AND patient_id = $2
    `, patientColumns, PatientsTable), tenantID, id)

	patient, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Patient{}, ErrPatientNotFound
		}
		return Patient{}, err
	}

	return patient, nil
}

// UpdatePatientParams represents editable fields.
type UpdatePatientParams struct {
	Name    *string
	Species *string
	Breed   *string
	BornOn  *time.Time
}

// UpdatePatient applies the provided fields and returns the updated record.
func (s *PatientStore) UpdatePatient(ctx context.Context, tenantID, id uuid.UUID, params UpdatePatientParams) (Patient, error) {
	setParts := []string{}
	var args []any

	if params.Name != nil {
		args = append(args, strings.TrimSpace(*params.Name))
		setParts = append(setParts, fmt.Sprintf("name = $%d", len(args)))
	}
	if params.Species != nil {
		args = append(args, strings.TrimSpace(*params.Species))
		setParts = append(setParts, fmt.Sprintf("species = $%d", len(args)))
	}
	if params.Breed != nil {
		args = append(args, strings.TrimSpace(*params.Breed))
		setParts = append(setParts, fmt.Sprintf("breed = $%d", len(args)))
	}
	if params.BornOn != nil {
		args = append(args, *params.BornOn)
		setParts = append(setParts, fmt.Sprintf("born_on = $%d", len(args)))
	}

	if len(setParts) == 0 {
		return Patient{}, errors.New("no fields to update")
	}

	args = append(args, tenantID, id)

	query := fmt.Sprintf(`
        UPDATE %s
        SET %s, updated_at = NOW()
        WHERE tenant_id = $%d AND patient_id = $%d
        RETURNING %s
    `, PatientsTable, strings.Join(setParts, ", "), len(args)-1, len(args), patientColumns)

	patient, err := scanPatient(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Patient{}, ErrPatientNotFound
		}
		return Patient{}, err
	}

	return patient, nil
}

// DeletePatient removes a patient by identifier within the tenant scope.
// Attachments cascade at the database level.
func (s *PatientStore) DeletePatient(ctx context.Context, tenantID, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrPatientNotFound
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
        DELETE FROM %s WHERE tenant_id = $1 AND patient_id = $2
    `, PatientsTable), tenantID, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}

	return nil
}

func scanPatient(row pgx.Row) (Patient, error) {
	var patient Patient
	if err := row.Scan(&patient.PatientID, &patient.TenantID, &patient.OwnerID, &patient.Name,
		&patient.Species, &patient.Breed, &patient.BornOn, &patient.CreatedAt, &patient.UpdatedAt); err != nil {
		return Patient{}, err
	}
	return patient, nil
}
