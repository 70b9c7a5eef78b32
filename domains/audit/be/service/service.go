package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entry is one immutable audit record.
type Entry struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Actor     string
	Action    string
	Category  string
	Details   string
	CreatedAt time.Time
}

// Categories stamped by the known callers.
const (
	CategoryAccount = "account"
	CategoryBilling = "billing"
	CategoryData    = "data"
)

// ListResult wraps a page of entries with pagination metadata.
type ListResult struct {
	Entries    []Entry
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// Repository abstracts persistence. The audit log is append-only: inserts and
// tenant-scoped reads are the whole surface.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]Entry, int, error)
}

// Recorder accepts audit events without blocking the request path. Events go
// onto a bounded queue drained by a single worker goroutine; when the queue is
// full the event is dropped and the drop is logged. Audit is advisory: no
// failure here may fail the business operation that produced the event.
type Recorder struct {
	repo   Repository
	logger *zap.Logger

	queue     chan Entry
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

const defaultQueueSize = 256

// persistTimeout bounds each insert so a stuck database cannot wedge the worker.
const persistTimeout = 5 * time.Second

// NewRecorder constructs a Recorder and starts its worker.
func NewRecorder(repo Repository, logger *zap.Logger, queueSize int) *Recorder {
	if repo == nil {
		panic("audit repo is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	r := &Recorder{
		repo:   repo,
		logger: logger,
		queue:  make(chan Entry, queueSize),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Record submits an audit event. Never blocks; returns immediately whether or
// not the event was accepted.
func (r *Recorder) Record(tenantID uuid.UUID, actor, action, category, details string) {
	if r.closed.Load() {
		return
	}

	entry := Entry{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Actor:     actor,
		Action:    action,
		Category:  category,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}

	select {
	case r.queue <- entry:
	default:
		r.logger.Warn("audit queue full, entry dropped",
			zap.String("tenant_id", tenantID.String()),
			zap.String("action", action),
		)
	}
}

// Close stops accepting events and drains what is already queued.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.queue)
		<-r.done
	})
}

// List returns the tenant's audit entries, newest first.
func (r *Recorder) List(ctx context.Context, tenantID uuid.UUID, page, pageSize int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	entries, total, err := r.repo.ListByTenant(ctx, tenantID, pageSize, (page-1)*pageSize)
	if err != nil {
		return ListResult{}, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return ListResult{
		Entries:    entries,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

func (r *Recorder) run() {
	defer close(r.done)

	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := r.repo.Insert(ctx, entry); err != nil {
			r.logger.Error("audit entry persistence failed",
				zap.String("tenant_id", entry.TenantID.String()),
				zap.String("action", entry.Action),
				zap.Error(err),
			)
		}
		cancel()
	}
}
