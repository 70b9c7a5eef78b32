package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	tenantsvc "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	"github.com/vetcare-hq/vetcare-saas/domains/users/be/repo"
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

// Domain sentinel errors.
var (
	ErrNotFound = errors.New("user not found")
	ErrConflict = errors.New("user conflict")
)

// Roles assignable to clinic staff.
const (
	RoleAdmin        = "admin"
	RoleVeterinarian = "veterinarian"
	RoleAssistant    = "assistant"
	RoleReceptionist = "receptionist"
)

// User represents the domain view of a clinic staff record.
type User struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListOptions controls filtering and pagination.
type ListOptions struct {
	Email    *string
	Page     int
	PageSize int
}

// ListResult wraps a page of users with pagination metadata.
type ListResult struct {
	Users      []User
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// CreateInput represents the payload required to create a new user.
type CreateInput struct {
	Email    string
	FullName string
	Role     string
}

// UpdateInput encapsulates mutable fields.
type UpdateInput struct {
	FullName *string
	Role     *string
}

// QuotaChecker gates resource-consuming mutations against the tenant's plan.
type QuotaChecker interface {
	CheckLimits(ctx context.Context, tenantID uuid.UUID, resource tenantsvc.Resource, increment float64) (tenantsvc.Tenant, error)
}

// Auditor records account-level changes.
type Auditor interface {
	Record(tenantID uuid.UUID, actor, action, category, details string)
}

// Service defines the business operations for the users domain.
type Service interface {
	Create(ctx context.Context, input CreateInput) (User, error)
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (User, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo    repo.Repository
	quota   QuotaChecker
	auditor Auditor
}

// New constructs a users Service instance.
func New(r repo.Repository, quota QuotaChecker, auditor Auditor) Service {
	if r == nil {
		panic("users repository is required")
	}
	if quota == nil {
		panic("quota checker is required")
	}
	if auditor == nil {
		panic("auditor is required")
	}
	return &service{repo: r, quota: quota, auditor: auditor}
}

func validRole(role string) bool {
	switch role {
	case RoleAdmin, RoleVeterinarian, RoleAssistant, RoleReceptionist:
		return true
	default:
		return false
	}
}

func (s *service) Create(ctx context.Context, input CreateInput) (User, error) {
	fieldErrors := FieldErrors{}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		fieldErrors.add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		fieldErrors.add("email", "email must contain '@'")
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		fieldErrors.add("fullName", "fullName is required")
	}

	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = RoleAssistant
	} else if !validRole(role) {
		fieldErrors.add("role", "role must be one of admin, veterinarian, assistant, receptionist")
	}

	if len(fieldErrors) > 0 {
		return User{}, &ValidationError{Fields: fieldErrors}
	}

	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		return User{}, errors.New("tenant id missing from context")
	}

	if _, err := s.quota.CheckLimits(ctx, tenantID, tenantsvc.ResourceUsers, 1); err != nil {
		return User{}, err
	}

	record, err := s.repo.Create(ctx, persistence.CreateUserParams{
		UserID:   uuid.New(),
		Email:    strings.ToLower(email),
		FullName: fullName,
		Role:     role,
	})
	if err != nil {
		return User{}, mapPersistenceError(err)
	}

	actor := requesttrace.FromContextOrAnonymous(ctx).ActorLabel()
	s.auditor.Record(tenantID, actor, "user_created", "account",
		fmt.Sprintf("created user %s (%s)", record.Email, record.Role))

	return mapUser(record), nil
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

	params := persistence.ListUsersParams{
		Page:     page,
		PageSize: pageSize,
	}
	if opts.Email != nil && strings.TrimSpace(*opts.Email) != "" {
		email := strings.TrimSpace(*opts.Email)
		params.Email = &email
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return ListResult{}, err
	}

	users := make([]User, 0, len(result.Users))
	for _, record := range result.Users {
		users = append(users, mapUser(record))
	}

	totalPages := 0
	if result.TotalItems > 0 {
		totalPages = (result.TotalItems + pageSize - 1) / pageSize
	}

	return ListResult{
		Users:      users,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: result.TotalItems,
		TotalPages: totalPages,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	if id == uuid.Nil {
		return User{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, mapPersistenceError(err)
	}
	return mapUser(record), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (User, error) {
	if id == uuid.Nil {
		return User{}, ErrNotFound
	}

	fieldErrors := FieldErrors{}
	params := persistence.UpdateUserParams{}
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
	if input.Role != nil {
		role := strings.TrimSpace(*input.Role)
		if !validRole(role) {
			fieldErrors.add("role", "role must be one of admin, veterinarian, assistant, receptionist")
		} else {
			params.Role = &role
			fieldsSet++
		}
	}

	if fieldsSet == 0 && len(fieldErrors) == 0 {
		fieldErrors.add("payload", "at least one field must be provided")
	}
	if len(fieldErrors) > 0 {
		return User{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return User{}, mapPersistenceError(err)
	}
	return mapUser(record), nil
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
		s.auditor.Record(tenantID, actor, "user_deleted", "account",
			fmt.Sprintf("deleted user %s", id))
	}

	return nil
}

func mapUser(record persistence.User) User {
	return User{
		ID:        record.UserID,
		Email:     record.Email,
		FullName:  record.FullName,
		Role:      record.Role,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrUserNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrUserConflict):
		return ErrConflict
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
