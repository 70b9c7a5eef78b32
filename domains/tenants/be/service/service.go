package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	plansvc "github.com/vetcare-hq/vetcare-saas/domains/plans/be/service"
)

// Status is the tenant account lifecycle state. Tenants are never hard-deleted;
// suspension and restriction are the only off-ramps.
type Status string

const (
	StatusActive     Status = "active"
	StatusRestricted Status = "restricted"
	StatusSuspended  Status = "suspended"
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

// Domain sentinel errors.
var (
	ErrNotFound          = errors.New("tenant not found")
	ErrAccountRestricted = errors.New("account restricted")
)

// Settings is the per-clinic preferences blob.
type Settings struct {
	Currency string `json:"currency,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// Tenant represents one clinic account.
type Tenant struct {
	ID            uuid.UUID
	Name          string
	PlanID        string
	Status        Status
	StorageUsedMB float64
	Settings      Settings
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateInput represents the request to register a clinic.
type CreateInput struct {
	Name     string
	PlanID   string
	Settings Settings
}

// UpdateInput represents mutable fields for a tenant. Nil leaves a field unchanged.
type UpdateInput struct {
	Name     *string
	PlanID   *string
	Status   *Status
	Settings *Settings
}

// ListOptions captures filters and pagination.
type ListOptions struct {
	Page     int
	PageSize int
	Status   *Status
}

// ListResult wraps paginated tenants.
type ListResult struct {
	Tenants    []Tenant
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// Repository abstracts persistence.
type Repository interface {
	Create(ctx context.Context, t Tenant) (Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (Tenant, error)
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Tenant, error)
	IncrementStorage(ctx context.Context, id uuid.UUID, deltaMB float64) error
}

// PlanCatalog resolves plan ids to their limit payloads.
type PlanCatalog interface {
	Get(ctx context.Context, id string) (plansvc.Plan, error)
}

// UsageCounter reports current per-tenant resource consumption. Counts are
// computed live at check time, never cached.
type UsageCounter interface {
	CountUsers(ctx context.Context, tenantID uuid.UUID) (int, error)
	CountOwners(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// Service provides the tenant registry and the quota gate over it.
type Service struct {
	repo    Repository
	catalog PlanCatalog
	usage   UsageCounter
	logger  *zap.Logger
}

// New constructs a Service with required dependencies.
func New(repo Repository, catalog PlanCatalog, usage UsageCounter, logger *zap.Logger) *Service {
	if repo == nil {
		panic("tenants repo is required")
	}
	if catalog == nil {
		panic("plan catalog is required")
	}
	if usage == nil {
		panic("usage counter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, catalog: catalog, usage: usage, logger: logger}
}

// Create registers a new clinic. New tenants start active on the requested
// plan (trial when unspecified) with an empty storage counter.
func (s *Service) Create(ctx context.Context, input CreateInput) (Tenant, error) {
	fieldErrors := FieldErrors{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		fieldErrors.add("name", "name is required")
	}

	planID := strings.TrimSpace(input.PlanID)
	if planID == "" {
		planID = "trial"
	}

	if len(fieldErrors) > 0 {
		return Tenant{}, &ValidationError{Fields: fieldErrors}
	}

	t := Tenant{
		ID:       uuid.New(),
		Name:     name,
		PlanID:   planID,
		Status:   StatusActive,
		Settings: input.Settings,
	}

	return s.repo.Create(ctx, t)
}

// Get returns a tenant by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Tenant, error) {
	if id == uuid.Nil {
		return Tenant{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List tenants with optional status filter.
func (s *Service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.PageSize > 100 {
		opts.PageSize = 100
	}
	return s.repo.List(ctx, opts)
}

// Update modifies mutable fields of a tenant.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Tenant, error) {
	if id == uuid.Nil {
		return Tenant{}, ErrNotFound
	}

	fieldErrors := FieldErrors{}
	fieldsSet := 0

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			fieldErrors.add("name", "name cannot be empty")
		} else {
			input.Name = &name
			fieldsSet++
		}
	}
	if input.PlanID != nil {
		planID := strings.TrimSpace(*input.PlanID)
		if planID == "" {
			fieldErrors.add("planId", "planId cannot be empty")
		} else {
			input.PlanID = &planID
			fieldsSet++
		}
	}
	if input.Status != nil {
		switch *input.Status {
		case StatusActive, StatusRestricted, StatusSuspended:
			fieldsSet++
		default:
			fieldErrors.add("status", "status must be one of active, restricted, suspended")
		}
	}
	if input.Settings != nil {
		fieldsSet++
	}

	if fieldsSet == 0 && len(fieldErrors) == 0 {
		fieldErrors.add("payload", "at least one field must be provided")
	}
	if len(fieldErrors) > 0 {
		return Tenant{}, &ValidationError{Fields: fieldErrors}
	}

	return s.repo.Update(ctx, id, input)
}

// StatusFromString converts a stored status string; unknown values map to
// suspended so a corrupted row can never widen access.
func StatusFromString(s string) Status {
	switch Status(s) {
	case StatusActive, StatusRestricted, StatusSuspended:
		return Status(s)
	default:
		return StatusSuspended
	}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
