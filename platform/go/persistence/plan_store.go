package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlansTable defines the fully-qualified table for the plan catalog.
const PlansTable = "admin.plans"

// ErrPlanNotFound is returned when a plan id does not resolve to a row.
var ErrPlanNotFound = errors.New("plan not found")

// PlanRecord represents a subscription tier row. Features and Limits are stored
// as jsonb blobs; the limits shape is validated by LimitsValidator before writes.
type PlanRecord struct {
	PlanID       string    `db:"plan_id"`
	Name         string    `db:"name"`
	MonthlyPrice float64   `db:"monthly_price"`
	YearlyPrice  float64   `db:"yearly_price"`
	Features     []byte    `db:"features"`
	Limits       []byte    `db:"limits"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// PlanStore provides access to the plans table.
type PlanStore struct {
	pool *pgxpool.Pool
}

// NewPlanStore creates a store; assumes the bootstrap DDL already ran.
func NewPlanStore(pool *pgxpool.Pool) (*PlanStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &PlanStore{pool: pool}, nil
}

const planColumns = "plan_id, name, monthly_price, yearly_price, features, limits, created_at, updated_at"

// Upsert inserts the plan or, when the id already exists, updates every field.
// Used by catalog seeding at boot; safe to re-run.
func (s *PlanStore) Upsert(ctx context.Context, rec PlanRecord) (PlanRecord, error) {
	if rec.PlanID == "" {
		return PlanRecord{}, errors.New("plan id is required")
	}
	if len(rec.Features) == 0 {
		rec.Features = []byte(`[]`)
	}
	if len(rec.Limits) == 0 {
		rec.Limits = []byte(`{}`)
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (plan_id, name, monthly_price, yearly_price, features, limits)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (plan_id) DO UPDATE SET
            name = EXCLUDED.name,
            monthly_price = EXCLUDED.monthly_price,
            yearly_price = EXCLUDED.yearly_price,
            features = EXCLUDED.features,
            limits = EXCLUDED.limits,
            updated_at = NOW()
        RETURNING %s
    `, PlansTable, planColumns)

	row := s.pool.QueryRow(ctx, query,
		rec.PlanID, rec.Name, rec.MonthlyPrice, rec.YearlyPrice, rec.Features, rec.Limits,
	)
	return scanPlanRecord(row)
}

// Get fetches a plan by id.
func (s *PlanStore) Get(ctx context.Context, id string) (PlanRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE plan_id = $1`, planColumns, PlansTable)
	return scanPlanRecord(s.pool.QueryRow(ctx, query, id))
}

// List returns the whole catalog ordered by monthly price.
func (s *PlanStore) List(ctx context.Context) ([]PlanRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY monthly_price ASC, plan_id ASC`, planColumns, PlansTable)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var records []PlanRecord
	for rows.Next() {
		rec, err := scanPlanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func scanPlanRecord(row pgx.Row) (PlanRecord, error) {
	var rec PlanRecord
	err := row.Scan(&rec.PlanID, &rec.Name, &rec.MonthlyPrice, &rec.YearlyPrice,
		&rec.Features, &rec.Limits, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PlanRecord{}, ErrPlanNotFound
		}
		return PlanRecord{}, err
	}
	return rec, nil
}
