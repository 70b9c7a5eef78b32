package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vetcare-hq/vetcare-saas/domains/owners/be/repo"
	tenantsvc "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	"github.com/vetcare-hq/vetcare-saas/platform/go/persistence"
	"github.com/vetcare-hq/vetcare-saas/platform/go/requesttrace"
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

// ErrNotFound is the domain sentinel for a missing owner.
var ErrNotFound = errors.New("owner not found")

// Owner represents a pet owner ("client" in plan-limit terms).
type Owner struct {
	ID        uuid.UUID
	FullName  string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListOptions controls filtering and pagination.
type ListOptions struct {
	Search   *string
	Page     int
	PageSize int
}

// ListResult wraps a page of owners with pagination metadata.
type ListResult struct {
	Owners     []Owner
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// CreateInput represents the payload required to register an owner.
type CreateInput struct {
	FullName string
	Email    string
	Phone    string
}

// UpdateInput encapsulates mutable fields.
type UpdateInput struct {
	FullName *string
	Email    *string
	Phone    *string
}

// QuotaChecker gates resource-consuming mutations against the tenant's plan.
type QuotaChecker interface {
	CheckLimits(ctx context.Context, tenantID uuid.UUID, resource tenantsvc.Resource, increment float64) (tenantsvc.Tenant, error)
}

// Auditor records data-level changes.
type Auditor interface {
	Record(tenantID uuid.UUID, actor, action, category, details string)
}

// Service defines the business operations for the owners domain.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Owner, error)
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (Owner, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Owner, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo    repo.Repository
	quota   QuotaChecker
	auditor Auditor
}

// New constructs an owners Service instance.
func New(r repo.Repository, quota QuotaChecker, auditor Auditor) Service {
	if r == nil {
		panic("owners repository is required")
	}
	if quota == nil {
		panic("quota checker is required")
	}
	if auditor == nil {
		panic("auditor is required")
	}
	return &service{repo: r, quota: quota, auditor: auditor}
}

func (s *service) Create(ctx context.Context, input CreateInput) (Owner, error) {
	fieldErrors := FieldErrors{}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		fieldErrors.add("fullName", "fullName is required")
	}

	email := strings.TrimSpace(input.Email)
	if email != "" && !strings.Contains(email, "@") {
		fieldErrors.add("email", "email must contain '@'")
	}

	if len(fieldErrors) > 0 {
		return Owner{}, &ValidationError{Fields: fieldErrors}
	}

	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		return Owner{}, errors.New("tenant id missing from context")
	}

	if _, err := s.quota.CheckLimits(ctx, tenantID, tenantsvc.ResourceClients, 1); err != nil {
		return Owner{}, err
	}

	record, err := s.repo.Create(ctx, persistence.CreateOwnerParams{
		OwnerID:  uuid.New(),
		FullName: fullName,
		Email:    strings.ToLower(email),
		Phone:    strings.TrimSpace(input.Phone),
	})
	if err != nil {
		return Owner{}, mapPersistenceError(err)
	}

	actor := requesttrace.FromContextOrAnonymous(ctx).ActorLabel()
	s.auditor.Record(tenantID, actor, "owner_created", "data",
		fmt.Sprintf("created owner %s", record.FullName))

	return mapOwner(record), nil
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

	params := persistence.ListOwnersParams{
		Page:     page,
		PageSize: pageSize,
		Search:   opts.Search,
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return ListResult{}, err
	}

	owners := make([]Owner, 0, len(result.Owners))
	for _, record := range result.Owners {
		owners = append(owners, mapOwner(record))
	}

	totalPages := 0
	if result.TotalItems > 0 {
		totalPages = (result.TotalItems + pageSize - 1) / pageSize
	}

	return ListResult{
		Owners:     owners,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: result.TotalItems,
		TotalPages: totalPages,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Owner, error) {
	if id == uuid.Nil {
		return Owner{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return Owner{}, mapPersistenceError(err)
	}
	return mapOwner(record), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Owner, error) {
	if id == uuid.Nil {
		return Owner{}, ErrNotFound
	}

	fieldErrors := FieldErrors{}
	params := persistence.UpdateOwnerParams{}
	fieldsSet := 0

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			fieldErrors.add("fullName", "fullName cannot be empty")
		} else {
			params.FullName = &name
			fieldsSet++
		}
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != "" && !strings.Contains(email, "@") {
			fieldErrors.add("email", "email must contain '@'")
		} else {
			params.Email = &email
			fieldsSet++
		}
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		params.Phone = &phone
		fieldsSet++
	}

	if fieldsSet == 0 && len(fieldErrors) == 0 {
		fieldErrors.add("payload", "at least one field must be provided")
	}
	if len(fieldErrors) > 0 {
		return Owner{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return Owner{}, mapPersistenceError(err)
	}
	return mapOwner(record), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapPersistenceError(err)
	}

	if tenantID, ok := tenant.FromContext(ctx); ok {
		actor := requesttrace.FromContextOrAnonymous(ctx).ActorLabel()
		s.auditor.Record(tenantID, actor, "owner_deleted", "data",
			fmt.Sprintf("deleted owner %s", id))
	}

	return nil
}

func mapOwner(record persistence.Owner) Owner {
	return Owner{
		ID:        record.OwnerID,
		FullName:  record.FullName,
		Email:     record.Email,
		Phone:     record.Phone,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	if errors.Is(err, persistence.ErrOwnerNotFound) {
		return ErrNotFound
	}
	return err
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
