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

	"github.com/vetcare-hq/vetcare-saas/domains/owners/be/service"
	tenantsvc "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	platformlogging "github.com/vetcare-hq/vetcare-saas/platform/go/logging"
	"github.com/vetcare-hq/vetcare-saas/platform/go/problems"
)

// Handler exposes the owners CRUD.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("owners service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the owner endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/owners", h.list)
	r.Post("/owners", h.create)
	r.Get("/owners/{ownerID}", h.get)
	r.Patch("/owners/{ownerID}", h.update)
	r.Delete("/owners/{ownerID}", h.delete)
}

type ownerResponse struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

type createOwnerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type updateOwnerRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	opts := service.ListOptions{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
	}
	if search := r.URL.Query().Get("search"); search != "" {
		opts.Search = &search
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(r.Context(), w, err, "listOwners")
		return
	}

	items := make([]ownerResponse, 0, len(result.Owners))
	for _, owner := range result.Owners {
		items = append(items, toResponse(owner))
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
	var req createOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problems.Write(w, problems.New("Invalid request body", "request body must be valid JSON", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	owner, err := h.svc.Create(r.Context(), service.CreateInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, "createOwner")
		return
	}

	problems.WriteJSON(w, http.StatusCreated, toResponse(owner))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	owner, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(r.Context(), w, err, "getOwner")
		return
	}

	problems.WriteJSON(w, http.StatusOK, toResponse(owner))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req updateOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problems.Write(w, problems.New("Invalid request body", "request body must be valid JSON", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	owner, err := h.svc.Update(r.Context(), id, service.UpdateInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, "updateOwner")
		return
	}

	problems.WriteJSON(w, http.StatusOK, toResponse(owner))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(r.Context(), w, err, "deleteOwner")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ownerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "ownerID"))
	if err != nil {
		problems.Write(w, problems.New("Validation failed", "ownerID must be a valid UUID", problems.TypeValidation, http.StatusBadRequest))
		return uuid.Nil, false
	}
	return id, true
}

func toResponse(owner service.Owner) ownerResponse {
	return ownerResponse{
		ID:        owner.ID,
		FullName:  owner.FullName,
		Email:     owner.Email,
		Phone:     owner.Phone,
		CreatedAt: owner.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: owner.UpdatedAt.UTC().Format(time.RFC3339),
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
	var quotaErr *tenantsvc.QuotaExceededError
	switch {
	case errors.As(err, &validationErr):
		logger.Warn("owner request rejected", zap.Error(err))
		problems.Write(w, problems.New("Validation failed", "one or more fields are invalid", problems.TypeValidation, http.StatusBadRequest).
			WithFieldErrors(validationErr.Fields))
	case errors.As(err, &quotaErr):
		logger.Warn("client quota exceeded", zap.Error(err))
		problems.Write(w, problems.New("Quota exceeded", "your plan's client limit has been reached; upgrade to register more owners", problems.TypeQuotaExceeded, http.StatusForbidden).
			WithLimit(quotaErr.Limit))
	case errors.Is(err, tenantsvc.ErrAccountRestricted):
		logger.Warn("account restricted", zap.Error(err))
		problems.Write(w, problems.New("Account restricted", "contact support or update your payment method", problems.TypeAccountRestricted, http.StatusForbidden))
	case errors.Is(err, service.ErrNotFound):
		logger.Info("owner not found", zap.Error(err))
		problems.Write(w, problems.New("Resource not found", "owner not found", problems.TypeNotFound, http.StatusNotFound))
	default:
		logger.Error("owner operation failed", zap.Error(err))
		problems.Write(w, problems.New("Internal server error", "an unexpected error occurred", problems.TypeInternal, http.StatusInternalServerError))
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}
