package utils

import "context"

type scopeKey struct{}

// WithUserID returns a context scoped to the given user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, scopeKey{}, userID)
}

// UserIDFromContext returns the scoped user, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(scopeKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
