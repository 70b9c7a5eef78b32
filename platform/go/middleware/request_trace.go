package middleware

import (
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vetcare-hq/vetcare-saas/platform/go/requesttrace"
)

// ActorHeader carries the upstream-authenticated identity. The API gateway is
// responsible for stripping it from untrusted traffic before it reaches us.
const ActorHeader = "X-Actor"

// RequestTrace builds the request-scoped AuditInfo from forwarded identity headers
// and stores it on the context for services and the audit recorder.
func RequestTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := chimw.GetReqID(r.Context())

		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		var audit requesttrace.AuditInfo
		if actor != "" {
			audit = requesttrace.User(actor, requestID)
		} else {
			audit = requesttrace.Anonymous(requestID)
		}

		ctx := requesttrace.IntoContext(r.Context(), audit)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
