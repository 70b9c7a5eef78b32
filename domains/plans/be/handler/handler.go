package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vetcare-hq/vetcare-saas/domains/plans/be/service"
	platformlogging "github.com/vetcare-hq/vetcare-saas/platform/go/logging"
	"github.com/vetcare-hq/vetcare-saas/platform/go/problems"
)

// Handler exposes the plan catalog over HTTP.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("plans service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the catalog endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/plans", h.list)
	r.Get("/plans/{planID}", h.get)
}

type planResponse struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	MonthlyPrice float64        `json:"monthlyPrice"`
	YearlyPrice  float64        `json:"yearlyPrice"`
	Features     []string       `json:"features"`
	Limits       service.Limits `json:"limits"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, err, "listPlans")
		return
	}

	items := make([]planResponse, 0, len(plans))
	for _, plan := range plans {
		items = append(items, toResponse(plan))
	}

	problems.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.Get(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		h.writeError(r.Context(), w, err, "getPlan")
		return
	}

	problems.WriteJSON(w, http.StatusOK, toResponse(plan))
}

func toResponse(plan service.Plan) planResponse {
	features := plan.Features
	if features == nil {
		features = []string{}
	}
	return planResponse{
		ID:           plan.ID,
		Name:         plan.Name,
		MonthlyPrice: plan.MonthlyPrice,
		YearlyPrice:  plan.YearlyPrice,
		Features:     features,
		Limits:       plan.Limits,
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	logger := h.loggerFrom(ctx).With(zap.String("operation", op))

	if errors.Is(err, service.ErrNotFound) {
		logger.Info("plan not found", zap.Error(err))
		problems.Write(w, problems.New("Resource not found", "plan not found", problems.TypeNotFound, http.StatusNotFound))
		return
	}

	logger.Error("plans operation failed", zap.Error(err))
	problems.Write(w, problems.New("Internal server error", "an unexpected error occurred", problems.TypeInternal, http.StatusInternalServerError))
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}
