package logging

import "context"

type contextKey string

const (
	actorKey contextKey = "actor"
	roleKey  contextKey = "role"
)

// WithActor adds the acting username and role to the context.
func WithActor(ctx context.Context, username, role string) context.Context {
	ctx = context.WithValue(ctx, actorKey, username)
	return context.WithValue(ctx, roleKey, role)
}

// GetActor retrieves the acting username from the context.
// Returns empty string if not present.
func GetActor(ctx context.Context) string {
	if name, ok := ctx.Value(actorKey).(string); ok {
		return name
	}
	return ""
}

// GetRole retrieves the acting role from the context.
// Returns empty string if not present.
func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}
