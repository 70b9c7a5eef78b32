package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetcare-hq/vetcare-saas/domains/billing/be/service"
	tenantsvc "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	platformlogging "github.com/vetcare-hq/vetcare-saas/platform/go/logging"
	"github.com/vetcare-hq/vetcare-saas/platform/go/problems"
	"github.com/vetcare-hq/vetcare-saas/platform/go/requesttrace"
)

// Handler exposes plan activation on the admin surface.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("billing service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the billing endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/tenants/{tenantID}/activate", h.activate)
}

type activateRequest struct {
	PlanID    string `json:"planId"`
	Reference string `json:"reference"`
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		problems.Write(w, problems.New("Validation failed", "tenantID must be a valid UUID", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problems.Write(w, problems.New("Invalid request body", "request body must be valid JSON", problems.TypeValidation, http.StatusBadRequest))
		return
	}
	if req.PlanID == "" || req.Reference == "" {
		problems.Write(w, problems.New("Validation failed", "planId and reference are required", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	actor := requesttrace.FromContextOrAnonymous(r.Context()).ActorLabel()
	tenant, err := h.svc.ActivatePlan(r.Context(), tenantID, req.PlanID, req.Reference, actor)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	problems.WriteJSON(w, http.StatusOK, map[string]any{
		"id":     tenant.ID,
		"planId": tenant.PlanID,
		"status": tenant.Status,
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := h.loggerFrom(ctx).With(zap.String("operation", "activatePlan"))

	switch {
	case errors.Is(err, service.ErrPaymentNotVerified):
		logger.Warn("plan activation rejected", zap.Error(err))
		problems.Write(w, problems.New("Payment required", "the payment reference could not be verified", problems.TypePaymentRequired, http.StatusPaymentRequired))
	case errors.Is(err, service.ErrUnknownPlan):
		logger.Warn("plan activation rejected", zap.Error(err))
		problems.Write(w, problems.New("Validation failed", "planId does not exist in the catalog", problems.TypeValidation, http.StatusBadRequest))
	case errors.Is(err, tenantsvc.ErrNotFound):
		logger.Info("tenant not found", zap.Error(err))
		problems.Write(w, problems.New("Resource not found", "tenant not found", problems.TypeNotFound, http.StatusNotFound))
	default:
		logger.Error("plan activation failed", zap.Error(err))
		problems.Write(w, problems.New("Internal server error", "an unexpected error occurred", problems.TypeInternal, http.StatusInternalServerError))
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}
