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

	tenantsvc "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	"github.com/vetcare-hq/vetcare-saas/domains/users/be/service"
	platformlogging "github.com/vetcare-hq/vetcare-saas/platform/go/logging"
	"github.com/vetcare-hq/vetcare-saas/platform/go/problems"
)

// Handler exposes the clinic users CRUD.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("users service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the user endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/users", h.list)
	r.Post("/users", h.create)
	r.Get("/users/{userID}", h.get)
	r.Patch("/users/{userID}", h.update)
	r.Delete("/users/{userID}", h.delete)
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

type createUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	FullName *string `json:"fullName"`
	Role     *string `json:"role"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	opts := service.ListOptions{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
	}
	if email := r.URL.Query().Get("email"); email != "" {
		opts.Email = &email
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(r.Context(), w, err, "listUsers")
		return
	}

	items := make([]userResponse, 0, len(result.Users))
	for _, user := range result.Users {
		items = append(items, toResponse(user))
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
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problems.Write(w, problems.New("Invalid request body", "request body must be valid JSON", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	user, err := h.svc.Create(r.Context(), service.CreateInput{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, "createUser")
		return
	}

	problems.WriteJSON(w, http.StatusCreated, toResponse(user))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	user, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(r.Context(), w, err, "getUser")
		return
	}

	problems.WriteJSON(w, http.StatusOK, toResponse(user))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problems.Write(w, problems.New("Invalid request body", "request body must be valid JSON", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	user, err := h.svc.Update(r.Context(), id, service.UpdateInput{
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, "updateUser")
		return
	}

	problems.WriteJSON(w, http.StatusOK, toResponse(user))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(r.Context(), w, err, "deleteUser")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		problems.Write(w, problems.New("Validation failed", "userID must be a valid UUID", problems.TypeValidation, http.StatusBadRequest))
		return uuid.Nil, false
	}
	return id, true
}

func toResponse(user service.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.UTC().Format(time.RFC3339),
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
		logger.Warn("user request rejected", zap.Error(err))
		problems.Write(w, problems.New("Validation failed", "one or more fields are invalid", problems.TypeValidation, http.StatusBadRequest).
			WithFieldErrors(validationErr.Fields))
	case errors.As(err, &quotaErr):
		logger.Warn("user quota exceeded", zap.Error(err))
		problems.Write(w, problems.New("Quota exceeded", "your plan's user limit has been reached; upgrade to add more staff", problems.TypeQuotaExceeded, http.StatusForbidden).
			WithLimit(quotaErr.Limit))
	case errors.Is(err, tenantsvc.ErrAccountRestricted):
		logger.Warn("account restricted", zap.Error(err))
		problems.Write(w, problems.New("Account restricted", "contact support or update your payment method", problems.TypeAccountRestricted, http.StatusForbidden))
	case errors.Is(err, service.ErrNotFound):
		logger.Info("user not found", zap.Error(err))
		problems.Write(w, problems.New("Resource not found", "user not found", problems.TypeNotFound, http.StatusNotFound))
	case errors.Is(err, service.ErrConflict):
		logger.Warn("user conflict", zap.Error(err))
		problems.Write(w, problems.New("Conflict", "a user with this email already exists", problems.TypeConflict, http.StatusConflict))
	default:
		logger.Error("user operation failed", zap.Error(err))
		problems.Write(w, problems.New("Internal server error", "an unexpected error occurred", problems.TypeInternal, http.StatusInternalServerError))
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}
