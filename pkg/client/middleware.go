package client

import (
	"log/slog"
	"net/http"

	apperrors "github.com/plannr/plannr-backend/pkg/errors"
	"github.com/plannr/plannr-backend/pkg/rbac"
)

// RequirePermission returns a middleware that checks the authenticated user's
// role grants. Returns 401 if no session user is present and 403 if the
// permission is not granted. Must be used after SessionMiddleware.
func RequirePermission(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetAuthUser(r.Context())
			if !ok {
				apperrors.Render(w, r, apperrors.Unauthorized(MsgNotAuthenticated))
				return
			}

			if !rbac.Granted(rbac.Resolve(user), name) {
				slog.Warn("User lacks required permission", "user_id", user.ID, "permission", name)
				apperrors.Render(w, r, apperrors.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
