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

	"github.com/vetcare-hq/vetcare-saas/domains/patients/be/service"
	tenantsvc "github.com/vetcare-hq/vetcare-saas/domains/tenants/be/service"
	platformlogging "github.com/vetcare-hq/vetcare-saas/platform/go/logging"
	"github.com/vetcare-hq/vetcare-saas/platform/go/problems"
)

// Handler exposes the patients CRUD and attachment endpoints.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("patients service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the patient and attachment endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/patients", h.list)
	r.Post("/patients", h.create)
	r.Get("/patients/{patientID}", h.get)
	r.Patch("/patients/{patientID}", h.update)
	r.Delete("/patients/{patientID}", h.delete)

	r.Get("/patients/{patientID}/attachments", h.listAttachments)
	r.Post("/patients/{patientID}/attachments", h.addAttachment)
	r.Delete("/attachments/{attachmentID}", h.deleteAttachment)
}

type patientResponse struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	Breed     string    `json:"breed"`
	BornOn    *string   `json:"bornOn,omitempty"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

type attachmentResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patientId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeMB      float64   `json:"sizeMb"`
	Bucket      string    `json:"bucket,omitempty"`
	ObjectPath  string    `json:"objectPath,omitempty"`
	CreatedAt   string    `json:"createdAt"`
}

type createPatientRequest struct {
	OwnerID string  `json:"ownerId"`
	Name    string  `json:"name"`
	Species string  `json:"species"`
	Breed   string  `json:"breed"`
	BornOn  *string `json:"bornOn"`
}

type updatePatientRequest struct {
	Name    *string `json:"name"`
	Species *string `json:"species"`
	Breed   *string `json:"breed"`
	BornOn  *string `json:"bornOn"`
}

type addAttachmentRequest struct {
	FileName    string  `json:"fileName"`
	ContentType string  `json:"contentType"`
	SizeMB      float64 `json:"sizeMb"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	opts := service.ListOptions{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
	}
	if raw := r.URL.Query().Get("ownerId"); raw != "" {
		ownerID, err := uuid.Parse(raw)
		if err != nil {
			problems.Write(w, problems.New("Validation failed", "ownerId must be a valid UUID", problems.TypeValidation, http.StatusBadRequest))
			return
		}
		opts.OwnerID = &ownerID
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(r.Context(), w, err, "listPatients")
		return
	}

	items := make([]patientResponse, 0, len(result.Patients))
	for _, patient := range result.Patients {
		items = append(items, toResponse(patient))
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
	var req createPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problems.Write(w, problems.New("Invalid request body", "request body must be valid JSON", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		problems.Write(w, problems.New("Validation failed", "ownerId must be a valid UUID", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	bornOn, ok := parseBornOn(w, req.BornOn)
	if !ok {
		return
	}

	patient, err := h.svc.Create(r.Context(), service.CreateInput{
		OwnerID: ownerID,
		Name:    req.Name,
		Species: req.Species,
		Breed:   req.Breed,
		BornOn:  bornOn,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, "createPatient")
		return
	}

	problems.WriteJSON(w, http.StatusCreated, toResponse(patient))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}

	patient, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(r.Context(), w, err, "getPatient")
		return
	}

	problems.WriteJSON(w, http.StatusOK, toResponse(patient))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}

	var req updatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problems.Write(w, problems.New("Invalid request body", "request body must be valid JSON", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	bornOn, ok := parseBornOn(w, req.BornOn)
	if !ok {
		return
	}

	patient, err := h.svc.Update(r.Context(), id, service.UpdateInput{
		Name:    req.Name,
		Species: req.Species,
		Breed:   req.Breed,
		BornOn:  bornOn,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, "updatePatient")
		return
	}

	problems.WriteJSON(w, http.StatusOK, toResponse(patient))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(r.Context(), w, err, "deletePatient")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listAttachments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}

	attachments, err := h.svc.ListAttachments(r.Context(), id)
	if err != nil {
		h.writeError(r.Context(), w, err, "listAttachments")
		return
	}

	items := make([]attachmentResponse, 0, len(attachments))
	for _, attachment := range attachments {
		items = append(items, toAttachmentResponse(attachment))
	}

	problems.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) addAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}

	var req addAttachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problems.Write(w, problems.New("Invalid request body", "request body must be valid JSON", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	attachment, err := h.svc.AddAttachment(r.Context(), id, service.AttachmentInput{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeMB:      req.SizeMB,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, "addAttachment")
		return
	}

	problems.WriteJSON(w, http.StatusCreated, toAttachmentResponse(attachment))
}

func (h *Handler) deleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "attachmentID"))
	if err != nil {
		problems.Write(w, problems.New("Validation failed", "attachmentID must be a valid UUID", problems.TypeValidation, http.StatusBadRequest))
		return
	}

	if err := h.svc.DeleteAttachment(r.Context(), id); err != nil {
		h.writeError(r.Context(), w, err, "deleteAttachment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) patientID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		problems.Write(w, problems.New("Validation failed", "patientID must be a valid UUID", problems.TypeValidation, http.StatusBadRequest))
		return uuid.Nil, false
	}
	return id, true
}

func parseBornOn(w http.ResponseWriter, raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	bornOn, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		problems.Write(w, problems.New("Validation failed", "bornOn must be a date in YYYY-MM-DD format", problems.TypeValidation, http.StatusBadRequest))
		return nil, false
	}
	return &bornOn, true
}

func toResponse(patient service.Patient) patientResponse {
	resp := patientResponse{
		ID:        patient.ID,
		OwnerID:   patient.OwnerID,
		Name:      patient.Name,
		Species:   patient.Species,
		Breed:     patient.Breed,
		CreatedAt: patient.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: patient.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if patient.BornOn != nil {
		bornOn := patient.BornOn.Format("2006-01-02")
		resp.BornOn = &bornOn
	}
	return resp
}

func toAttachmentResponse(attachment service.Attachment) attachmentResponse {
	return attachmentResponse{
		ID:          attachment.ID,
		PatientID:   attachment.PatientID,
		FileName:    attachment.FileName,
		ContentType: attachment.ContentType,
		SizeMB:      attachment.SizeMB,
		Bucket:      attachment.Bucket,
		ObjectPath:  attachment.ObjectPath,
		CreatedAt:   attachment.CreatedAt.UTC().Format(time.RFC3339),
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
		logger.Warn("patient request rejected", zap.Error(err))
		problems.Write(w, problems.New("Validation failed", "one or more fields are invalid", problems.TypeValidation, http.StatusBadRequest).
			WithFieldErrors(validationErr.Fields))
	case errors.As(err, &quotaErr):
		logger.Warn("storage quota exceeded", zap.Error(err))
		problems.Write(w, problems.New("Quota exceeded", "your plan's storage limit has been reached; remove files or upgrade your plan", problems.TypeQuotaExceeded, http.StatusForbidden).
			WithLimit(quotaErr.Limit))
	case errors.Is(err, tenantsvc.ErrAccountRestricted):
		logger.Warn("account restricted", zap.Error(err))
		problems.Write(w, problems.New("Account restricted", "contact support or update your payment method", problems.TypeAccountRestricted, http.StatusForbidden))
	case errors.Is(err, service.ErrOwnerNotFound):
		logger.Info("owner not found", zap.Error(err))
		problems.Write(w, problems.New("Resource not found", "owner not found", problems.TypeNotFound, http.StatusNotFound))
	case errors.Is(err, service.ErrAttachmentNotFound):
		logger.Info("attachment not found", zap.Error(err))
		problems.Write(w, problems.New("Resource not found", "attachment not found", problems.TypeNotFound, http.StatusNotFound))
	case errors.Is(err, service.ErrNotFound):
		logger.Info("patient not found", zap.Error(err))
		problems.Write(w, problems.New("Resource not found", "patient not found", problems.TypeNotFound, http.StatusNotFound))
	default:
		logger.Error("patient operation failed", zap.Error(err))
		problems.Write(w, problems.New("Internal server error", "an unexpected error occurred", problems.TypeInternal, http.StatusInternalServerError))
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}
