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

// AttachmentsTable defines the fully-qualified table for patient file attachments.
const AttachmentsTable = "clinic.attachments"

// Attachment represents a row in the attachments table. SizeMB is recorded at
// upload time and drives the tenant's storage counter.
type Attachment struct {
	AttachmentID uuid.UUID `db:"attachment_id" json:"attachmentId"`
	TenantID     uuid.UUID `db:"tenant_id" json:"tenantId"`
	PatientID    uuid.UUID `db:"patient_id" json:"patientId"`
	FileName     string    `db:"file_name" json:"fileName"`
	ContentType  string    `db:"content_type" json:"contentType"`
	SizeMB       float64   `db:"size_mb" json:"sizeMb"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// ErrAttachmentNotFound indicates a missing attachment record within the tenant scope.
var ErrAttachmentNotFound = errors.New("attachment not found")

// AttachmentStore exposes persistence helpers for the attachments table, tenant scoped.
type AttachmentStore struct {
	pool *pgxpool.Pool
}

// NewAttachmentStore returns a store instance.
func NewAttachmentStore(pool *pgxpool.Pool) (*AttachmentStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &AttachmentStore{pool: pool}, nil
}

const attachmentColumns = "attachment_id, tenant_id, patient_id, file_name, content_type, size_mb, created_at"

// CreateAttachmentParams captures the fields required to insert a new attachment record.
type CreateAttachmentParams struct {
	AttachmentID uuid.UUID
	TenantID     uuid.UUID
	PatientID    uuid.UUID
	FileName     string
	ContentType  string
	SizeMB       float64
}

// CreateAttachment inserts a new attachment and returns the persisted record.
func (s *AttachmentStore) CreateAttachment(ctx context.Context, params CreateAttachmentParams) (Attachment, error) {
	if params.AttachmentID == uuid.Nil {
		return Attachment{}, errors.New("attachment id is required")
	}
	if params.TenantID == uuid.Nil {
		return Attachment{}, errors.New("tenant id is required")
	}
	if params.SizeMB < 0 {
		return Attachment{}, errors.New("size must not be negative")
	}

	contentType := strings.TrimSpace(params.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (attachment_id, tenant_id, patient_id, file_name, content_type, size_mb)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING %s
    `, AttachmentsTable, attachmentColumns),
		params.AttachmentID,
		params.TenantID,
		params.PatientID,
		strings.TrimSpace(params.FileName),
		contentType,
		params.SizeMB,
	)

	return scanAttachment(row)
}

// ListAttachments returns the attachments for one patient, newest first.
func (s *AttachmentStore) ListAttachments(ctx context.Context, tenantID, patientID uuid.UUID) ([]Attachment, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE tenant_id = $1 AND patient_id = $2
        ORDER BY created_at DESC
    `, attachmentColumns, AttachmentsTable)

	rows, err := s.pool.Query(ctx, query, tenantID, patientID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	attachments := make([]Attachment, 0)
	for rows.Next() {
		attachment, scanErr := scanAttachment(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan attachment: %w", scanErr)
		}
		attachments = append(attachments, attachment)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}

	return attachments, nil
}

// GetAttachment returns a single attachment by identifier within the tenant scope.
func (s *AttachmentStore) GetAttachment(ctx context.Context, tenantID, id uuid.UUID) (Attachment, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE tenant_id = $1 AND attachment_id = $2
    `, attachmentColumns, AttachmentsTable), tenantID, id)

	attachment, err := scanAttachment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attachment{}, ErrAttachmentNotFound
		}
		return Attachment{}, err
	}

	return attachment, nil
}

// DeleteAttachment removes an attachment and returns the deleted record so the
// caller can release its size from the tenant's storage counter.
func (s *AttachmentStore) DeleteAttachment(ctx context.Context, tenantID, id uuid.UUID) (Attachment, error) {
	if id == uuid.Nil {
		return Attachment{}, ErrAttachmentNotFound
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        DELETE FROM %s WHERE tenant_id = $1 AND attachment_id = $2
        RETURNING %s
    `, AttachmentsTable, attachmentColumns), tenantID, id)

	attachment, err := scanAttachment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attachment{}, ErrAttachmentNotFound
		}
		return Attachment{}, fmt.Errorf("delete attachment: %w", err)
	}

	return attachment, nil
}

func scanAttachment(row pgx.Row) (Attachment, error) {
	var attachment Attachment
	if err := row.Scan(&attachment.AttachmentID, &attachment.TenantID, &attachment.PatientID,
		&attachment.FileName, &attachment.ContentType, &attachment.SizeMB, &attachment.CreatedAt); err != nil {
		return Attachment{}, err
	}
	return attachment, nil
}
