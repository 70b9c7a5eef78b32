package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vetcare-hq/vetcare-saas/platform/go/problems"
	"github.com/vetcare-hq/vetcare-saas/platform/go/tenant"
)

// TenantHeader names the header the frontend sends to scope requests to a clinic.
const TenantHeader = "X-Tenant-ID"

// RequireTenant extracts and validates the tenant id header and stores it on the
// request context. Requests without a resolvable tenant never reach the handlers.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(TenantHeader))
		if raw == "" {
			problems.Write(w, problems.New("Missing tenant", "X-Tenant-ID header is required", problems.TypeValidation, http.StatusBadRequest))
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			problems.Write(w, problems.New("Invalid tenant", "X-Tenant-ID must be a UUID", problems.TypeValidation, http.StatusBadRequest))
			return
		}

		next.ServeHTTP(w, r.WithContext(tenant.WithID(r.Context(), id)))
	})
}
