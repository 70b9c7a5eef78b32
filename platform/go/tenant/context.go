package tenant

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const tenantKey ctxKey = "VETCARE_TENANT_ID"

// WithID returns a derived context carrying the resolved tenant id.
func WithID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantKey, id)
}

// FromContext extracts the tenant id and a boolean indicating presence.
func FromContext(ctx context.Context) (uuid.UUID, bool) {
	v := ctx.Value(tenantKey)
	if v == nil {
		return uuid.Nil, false
	}

	id, ok := v.(uuid.UUID)
	return id, ok
}
