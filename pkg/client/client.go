package client

import (
	"context"

	"github.com/plannr/plannr-backend/pkg/iam"
)

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "plannr context value " + k.name
}

var (
	// AuthUserKey holds the authenticated iam.User loaded with role grants
	AuthUserKey = &contextKey{"AuthUser"}
)

// WithAuthUser returns a copy of ctx carrying user
func WithAuthUser(ctx context.Context, user iam.User) context.Context {
	return context.WithValue(ctx, AuthUserKey, user)
}

// GetAuthUser returns the user stored by SessionMiddleware
func GetAuthUser(ctx context.Context) (iam.User, bool) {
	user, ok := ctx.Value(AuthUserKey).(iam.User)
	return user, ok
}
