package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxSessionID contextKey = "session_id"
	ctxAccountID contextKey = "account_id"
	ctxRole      contextKey = "actor_role"
)

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// AccountIDFromContext returns the signed-in account, or nil for guests.
func AccountIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxAccountID).(uuid.UUID); ok && v != uuid.Nil {
		return &v
	}
	return nil
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

// WithSessionID injects the cart session identifier into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// WithAccount injects the authenticated account and its role.
func WithAccount(ctx context.Context, accountID uuid.UUID, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxAccountID, accountID)
	return context.WithValue(ctx, ctxRole, role)
}
