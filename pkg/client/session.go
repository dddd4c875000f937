package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	apperrors "github.com/plannr/plannr-backend/pkg/errors"
	"github.com/plannr/plannr-backend/pkg/iam"
	"github.com/plannr/plannr-backend/pkg/tokengenerator"
)

// Session failure messages
const (
	MsgNotAuthenticated    = "Not authenticated"
	MsgInvalidToken        = "Invalid or expired token"
	MsgInvalidTokenPayload = "Invalid token payload"
	MsgUserNotFound        = "User not found"
)

// TokenValidator returns the subject of a valid bearer token
type TokenValidator interface {
	Validate(tokenStr string) (string, error)
}

// UserLoader loads a stored user by id
type UserLoader interface {
	GetUser(ctx context.Context, id uuid.UUID, opts iam.LoadOptions) (iam.User, error)
}

// SessionMiddleware authenticates the bearer token of every request and
// stores the user, loaded with role grants, under AuthUserKey.
func SessionMiddleware(validator TokenValidator, loader UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r, validator, loader)
			if err != nil {
				apperrors.Render(w, r, err)
				return
			}
			slog.Debug("Authenticated request", "user_id", user.ID, "path", r.URL.Path)
			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}

func authenticate(r *http.Request, validator TokenValidator, loader UserLoader) (iam.User, error) {
	tokenStr := jwtauth.TokenFromHeader(r)
	if tokenStr == "" {
		return iam.User{}, apperrors.Unauthorized(MsgNotAuthenticated)
	}

	subject, err := validator.Validate(tokenStr)
	if err != nil {
		if errors.Is(err, tokengenerator.ErrTokenMissingSubject) {
			return iam.User{}, apperrors.Unauthorized(MsgInvalidTokenPayload)
		}
		slog.Debug("Bearer token rejected", "err", err)
		if errors.Is(err, tokengenerator.ErrTokenExpired) {
			return iam.User{}, apperrors.New(apperrors.ErrCodeTokenExpired, MsgInvalidToken)
		}
		return iam.User{}, apperrors.New(apperrors.ErrCodeTokenInvalid, MsgInvalidToken)
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return iam.User{}, apperrors.Unauthorized(MsgUserNotFound)
	}

	user, err := loader.GetUser(r.Context(), userID, iam.LoadOptions{WithGrants: true})
	if err != nil {
		if errors.Is(err, iam.ErrUserNotFound) {
			return iam.User{}, apperrors.Unauthorized(MsgUserNotFound)
		}
		return iam.User{}, apperrors.InternalWrap(err, "Failed to load session user")
	}
	return user, nil
}
