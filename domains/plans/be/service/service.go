package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Unlimited marks a quota dimension with no cap.
const Unlimited = -1

// Errors returned by the service layer.
var ErrNotFound = errors.New("plan not found")

// Modules flags which product areas a plan unlocks.
type Modules struct {
	POS         bool `json:"pos"`
	Lab         bool `json:"lab"`
	AI          bool `json:"ai"`
	Reports     bool `json:"reports"`
	MultiBranch bool `json:"multiBranch"`
	Print       bool `json:"print,omitempty"`
}

// Limits is the quota payload attached to every plan. Unlimited (-1) applies
// to MaxUsers, MaxClients and AILimit; storage is always a finite cap in GB.
type Limits struct {
	MaxUsers     int     `json:"maxUsers"`
	MaxClients   int     `json:"maxClients"`
	MaxStorageGB float64 `json:"maxStorageGB"`
	AILimit      int     `json:"aiLimit,omitempty"`
	Modules      Modules `json:"modules"`
}

// Plan represents one subscription tier of the catalog.
type Plan struct {
	ID           string
	Name         string
	MonthlyPrice float64
	YearlyPrice  float64
	Features     []string
	Limits       Limits
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository abstracts persistence.
type Repository interface {
	Upsert(ctx context.Context, plan Plan) (Plan, error)
	Get(ctx context.Context, id string) (Plan, error)
	List(ctx context.Context) ([]Plan, error)
}

// LimitsValidator checks the serialized limits payload before it is persisted.
type LimitsValidator interface {
	Validate(payload []byte) error
}

// Service provides read access to the plan catalog.
type Service struct {
	repo Repository
}

// New constructs a Service with required dependencies.
func New(repo Repository) *Service {
	if repo == nil {
		panic("plans repo is required")
	}
	return &Service{repo: repo}
}

// List returns the whole catalog ordered by price.
func (s *Service) List(ctx context.Context) ([]Plan, error) {
	return s.repo.List(ctx)
}

// Get returns one plan by id.
func (s *Service) Get(ctx context.Context, id string) (Plan, error) {
	return s.repo.Get(ctx, id)
}

// DefaultCatalog returns the built-in subscription tiers. Seeded on every boot;
// ids are stable and referenced by tenant rows.
func DefaultCatalog() []Plan {
	return []Plan{
		{
			ID:           "trial",
			Name:         "Trial",
			MonthlyPrice: 0,
			YearlyPrice:  0,
			Features:     []string{"All modules unlocked for 14 days"},
			Limits: Limits{
				MaxUsers:     2,
				MaxClients:   100,
				MaxStorageGB: 1,
				AILimit:      10,
				Modules:      Modules{POS: true, Lab: true, AI: true, Reports: true, MultiBranch: false, Print: true},
			},
		},
		{
			ID:           "basic",
			Name:         "Basic",
			MonthlyPrice: 29,
			YearlyPrice:  290,
			Features:     []string{"Appointments", "Patient records", "Billing"},
			Limits: Limits{
				MaxUsers:     5,
				MaxClients:   500,
				MaxStorageGB: 5,
				Modules:      Modules{POS: true, Reports: true, Print: true},
			},
		},
		{
			ID:           "pro",
			Name:         "Professional",
			MonthlyPrice: 79,
			YearlyPrice:  790,
			Features:     []string{"Everything in Basic", "Lab integrations", "AI assistant"},
			Limits: Limits{
				MaxUsers:     15,
				MaxClients:   2000,
				MaxStorageGB: 25,
				AILimit:      100,
				Modules:      Modules{POS: true, Lab: true, AI: true, Reports: true, Print: true},
			},
		},
		{
			ID:           "enterprise",
			Name:         "Enterprise",
			MonthlyPrice: 299,
			YearlyPrice:  2990,
			Features:     []string{"Everything in Professional", "Multi-branch", "Priority support"},
			Limits: Limits{
				MaxUsers:     Unlimited,
				MaxClients:   Unlimited,
				MaxStorageGB: 1024,
				AILimit:      Unlimited,
				Modules:      Modules{POS: true, Lab: true, AI: true, Reports: true, MultiBranch: true, Print: true},
			},
		},
	}
}

// Seed validates and upserts every catalog entry. Re-running is safe: upsert
// is keyed by plan id, so the catalog converges to the latest values.
func Seed(ctx context.Context, repo Repository, validator LimitsValidator, catalog []Plan, logger *zap.Logger) error {
	if repo == nil {
		panic("plans repo is required")
	}
	if validator == nil {
		panic("limits validator is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, plan := range catalog {
		payload, err := plan.Limits.Marshal()
		if err != nil {
			return fmt.Errorf("serialize limits for plan %s: %w", plan.ID, err)
		}
		if err := validator.Validate(payload); err != nil {
			return fmt.Errorf("invalid limits for plan %s: %w", plan.ID, err)
		}

		if _, err := repo.Upsert(ctx, plan); err != nil {
			return fmt.Errorf("seed plan %s: %w", plan.ID, err)
		}

		logger.Info("plan seeded", zap.String("plan_id", plan.ID))
	}

	return nil
}
