package middleware

import (
	"context"

	"github.com/angelmondragon/shopstack-backend/pkg/tenancy"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxRole      contextKey = "actor_role"
	ctxSessionID contextKey = "session_id"
	ctxAccessID  contextKey = "access_id"
	ctxTenant    contextKey = "tenant"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// SessionIDFromContext returns the guest session identifier, if any.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// AccessIDFromContext returns the JWT jti of the authenticated request.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// TenantFromContext returns the tenant execution context seeded by the
// resolution middleware, or nil for central requests.
func TenantFromContext(ctx context.Context) *tenancy.Context {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxTenant).(*tenancy.Context); ok {
		return v
	}
	return nil
}

// WithSessionID injects the guest session identifier into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// WithTenant injects the tenant execution context for downstream handlers.
func WithTenant(ctx context.Context, t *tenancy.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTenant, t)
}
