package problems

import (
	"encoding/json"
	"net/http"
)

// Problem type URIs surfaced to the frontend for error rendering.
const (
	TypeValidation        = "https://vetcare.app/problems/validation-error"
	TypeNotFound          = "https://vetcare.app/problems/not-found"
	TypeConflict          = "https://vetcare.app/problems/conflict"
	TypeAccountRestricted = "https://vetcare.app/problems/account-restricted"
	TypeQuotaExceeded     = "https://vetcare.app/problems/quota-exceeded"
	TypePaymentRequired   = "https://vetcare.app/problems/payment-not-verified"
	TypeInternal          = "https://vetcare.app/problems/internal-error"
)

// ProblemDetails is an RFC 7807 style error document.
type ProblemDetails struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
	Limit  *float64            `json:"limit,omitempty"`
}

// New builds a ProblemDetails document.
func New(title, detail, problemType string, status int) ProblemDetails {
	return ProblemDetails{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// WithFieldErrors attaches a field error map (validation problems).
func (p ProblemDetails) WithFieldErrors(errs map[string][]string) ProblemDetails {
	p.Errors = errs
	return p
}

// WithLimit embeds the numeric quota limit so the UI can render an upgrade prompt.
func (p ProblemDetails) WithLimit(limit float64) ProblemDetails {
	p.Limit = &limit
	return p
}

// Write renders the problem document with the proper content type and status.
func Write(w http.ResponseWriter, p ProblemDetails) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// WriteJSON renders a plain JSON payload (success responses).
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
