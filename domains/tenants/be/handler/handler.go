package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	platformlogging "github.com/vetcare-hq/vetcare-saas/platform/go/logging"
	"github.com/vetcare-hq/vetcare-saas/platform/go/problems"
)

// Handler exposes the tenant registry over the admin HTTP surface.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("tenants service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the registry endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/tenants", h.list)
	r.Post("/tenants", h.create)
	r.Get("/tenants/{tenantID}", h.get)
	r.Patch("/tenants/{tenantID}", h.update)
}

type tenantResponse struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	PlanID        string           `json:"planId"`
	Status        service.Status   `json:"status"`
	StorageUsedMB float64          `json:"storageUsedMb"`
	Settings      service.Settings `json:"settings"`
	CreatedAt     string           `json:"createdAt"`
	UpdatedAt     string           `json:"updatedAt"`
}

type createTenantRequest struct {
	Name     string           `json:"name"`
	PlanID   string           `json:"planId"`
	Settings service.Settings `json:"settings"`
}

type updateTenantRequest struct {
	Name     *string           `json:"name"`
	PlanID   *string           `json:"planId"`
	Status   *service.Status   `json:"status"`
	Settings *service.Settings `json:"settings"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	opts := service.ListOptions{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := service.Status(raw)
		opts.Status = &status
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(r.Context(), w, err, "listTenants")
		return
	}

	items := make([]tenantResponse, 0, len(result.Tenants))
	for _, t := range result.Tenants {
		items = append(items, toResponse(t))
	}

	problems.WriteJSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"page":       result.Page,
		"pageSize":   result.PageSize,
		"totalItems": result.TotalItems,
		"totalPages": result.TotalPages,
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problems.Write(w, problems.New("Invalid request body", "request body must be valid JSON", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	tenant, err := h.svc.Create(r.Context(), service.CreateInput{
		Name:     req.Name,
		PlanID:   req.PlanID,
		Settings: req.Settings,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, "createTenant")
		return
	}

	problems.WriteJSON(w, http.StatusCreated, toResponse(tenant))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	tenant, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(r.Context(), w, err, "getTenant")
		return
	}

	problems.WriteJSON(w, http.StatusOK, toResponse(tenant))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	var req updateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problems.Write(w, problems.New("Invalid request body", "request body must be valid JSON", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	tenant, err := h.svc.Update(r.Context(), id, service.UpdateInput{
		Name:     req.Name,
		PlanID:   req.PlanID,
		Status:   req.Status,
		Settings: req.Settings,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, "updateTenant")
		return
	}

	problems.WriteJSON(w, http.StatusOK, toResponse(tenant))
}

func (h *Handler) tenantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		problems.Write(w, problems.New("Validation failed", "tenantID must be a valid UUID", problems.TypeValidation, http.StatusBadRequest))
		return uuid.Nil, false
	}
	return id, true
}

func toResponse(t service.Tenant) tenantResponse {
	return tenantResponse{
		ID:            t.ID,
		Name:          t.Name,
		PlanID:        t.PlanID,
		Status:        t.Status,
		StorageUsedMB: t.StorageUsedMB,
		Settings:      t.Settings,
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	logger := h.loggerFrom(ctx).With(zap.String("operation", op))

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		logger.Warn("tenant request rejected", zap.Error(err))
		problems.Write(w, problems.New("Validation failed", "one or more fields are invalid", problems.TypeValidation, http.StatusBadRequest).
			WithFieldErrors(validationErr.Fields))
	case errors.Is(err, service.ErrNotFound):
		logger.Info("tenant not found", zap.Error(err))
		problems.Write(w, problems.New("Resource not found", "tenant not found", problems.TypeNotFound, http.StatusNotFound))
	default:
		logger.Error("tenant operation failed", zap.Error(err))
		problems.Write(w, problems.New("Internal server error", "an unexpected error occurred", problems.TypeInternal, http.StatusInternalServerError))
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}
