package httpx

import (
	"context"

	"github.com/timescope/featureset-api/internal/domain/model"
)

type contextKey string

const userContextKey contextKey = "user"

// SetUserInContext stores the authenticated user in the request context.
func SetUserInContext(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the authenticated user from the request context.
// Returns nil when the request was not authenticated.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}
