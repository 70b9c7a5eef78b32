package requesttrace

import (
	"context"
)

type contextKey string

const ctxAuditInfo contextKey = "VETCARE_REQUEST_TRACE"

// ActorKind represents who initiated a request.
type ActorKind string

const (
	ActorKindUser      ActorKind = "user"
	ActorKindAnonymous ActorKind = "anonymous"
	ActorKindSystem    ActorKind = "system"
)

// AuditInfo captures request-scoped metadata needed for traceability and auditing.
// Actor is the upstream-authenticated identity (email or user id) forwarded by the
// gateway; empty when the request is anonymous. RequestID is optional but encouraged.
type AuditInfo struct {
	ActorKind ActorKind
	Actor     string
	RequestID string
}

// ActorLabel returns the identity to stamp on audit entries, falling back to the kind.
func (a AuditInfo) ActorLabel() string {
	if a.Actor != "" {
		return a.Actor
	}
	return string(a.ActorKind)
}

// IntoContext stores the AuditInfo in the provided context.
func IntoContext(ctx context.Context, audit AuditInfo) context.Context {
	return context.WithValue(ctx, ctxAuditInfo, audit)
}

// FromContext extracts the AuditInfo from context, returning false when not present.
func FromContext(ctx context.Context) (AuditInfo, bool) {
	if ctx == nil {
		return AuditInfo{}, false
	}
	v := ctx.Value(ctxAuditInfo)
	if v == nil {
		return AuditInfo{}, false
	}

	audit, ok := v.(AuditInfo)
	return audit, ok
}

// FromContextOrAnonymous returns the AuditInfo stored on the context, or an anonymous record when absent.
func FromContextOrAnonymous(ctx context.Context) AuditInfo {
	if audit, ok := FromContext(ctx); ok {
		return audit
	}
	return Anonymous("")
}

// User builds an AuditInfo for a request carrying an upstream-authenticated identity.
func User(actor, requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindUser, Actor: actor, RequestID: requestID}
}

// Anonymous builds an AuditInfo for unauthenticated requests (e.g., signup) where no identity exists yet.
func Anonymous(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindAnonymous, RequestID: requestID}
}

// System builds an AuditInfo for background/system operations (seeding, billing callbacks).
func System(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindSystem, Actor: "system", RequestID: requestID}
}
