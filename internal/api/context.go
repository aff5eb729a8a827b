package api

import (
	"context"
)

type contextKey string

const sessionContextKey contextKey = "wizard_session_id"

// SessionIDFromContext extracts the wizard session id resolved by the
// session middleware
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionContextKey).(string)
	return id
}

// ContextWithSessionID adds the wizard session id to context
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionContextKey, id)
}
