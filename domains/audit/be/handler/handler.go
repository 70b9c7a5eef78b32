package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetcare-hq/vetcare-saas/domains/audit/be/service"
	platformlogging "github.com/vetcare-hq/vetcare-saas/platform/go/logging"
	"github.com/vetcare-hq/vetcare-saas/platform/go/problems"
)

// Handler exposes the audit log review endpoint on the admin surface.
type Handler struct {
	recorder *service.Recorder
	logger   *zap.Logger
}

// New constructs a Handler instance.
func New(recorder *service.Recorder, logger *zap.Logger) *Handler {
	if recorder == nil {
		panic("audit recorder is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{recorder: recorder, logger: logger}
}

// Routes mounts the audit endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/tenants/{tenantID}/audit-logs", h.list)
}

type entryResponse struct {
	ID        uuid.UUID `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Category  string    `json:"category"`
	Details   string    `json:"details"`
	CreatedAt string    `json:"createdAt"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		problems.Write(w, problems.New("Validation failed", "tenantID must be a valid UUID", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 20)

	result, err := h.recorder.List(r.Context(), tenantID, page, pageSize)
	if err != nil {
		h.loggerFrom(r.Context()).Error("audit log listing failed",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
		problems.Write(w, problems.New("Internal server error", "an unexpected error occurred", problems.TypeInternal, http.StatusInternalServerError))
		return
	}

	items := make([]entryResponse, 0, len(result.Entries))
	for _, entry := range result.Entries {
		items = append(items, entryResponse{
			ID:        entry.ID,
			Actor:     entry.Actor,
			Action:    entry.Action,
			Category:  entry.Category,
			Details:   entry.Details,
			CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	problems.WriteJSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"page":       result.Page,
		"pageSize":   result.PageSize,
		"totalItems": result.TotalItems,
		"totalPages": result.TotalPages,
	})
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

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}
