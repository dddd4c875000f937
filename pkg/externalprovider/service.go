package externalprovider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/plannr/plannr-backend/pkg/errors"
	"github.com/plannr/plannr-backend/pkg/iam"
	"github.com/plannr/plannr-backend/pkg/login"
	"github.com/plannr/plannr-backend/pkg/utils"
)

// ExternalProviderService signs in users holding an external identity
type ExternalProviderService struct {
	repo         iam.IamRepository
	loginService *login.LoginService
	verifier     Verifier
}

func NewExternalProviderService(repo iam.IamRepository, loginService *login.LoginService, verifier Verifier) *ExternalProviderService {
	return &ExternalProviderService{
		repo:         repo,
		loginService: loginService,
		verifier:     verifier,
	}
}

// AuthenticateGoogle verifies a Google ID token, reconciles it with the
// stored users and issues a session.
func (s *ExternalProviderService) AuthenticateGoogle(ctx context.Context, credential string) (login.AuthResult, error) {
	info, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		switch {
		case errors.Is(err, ErrAudienceMismatch):
			return login.AuthResult{}, apperrors.Unauthorized("Google token audience mismatch")
		case errors.Is(err, ErrIncompleteProfile):
			return login.AuthResult{}, apperrors.New(apperrors.ErrCodeIncompleteProfile, "Incomplete Google profile data")
		case errors.Is(err, ErrInvalidCredential):
			return login.AuthResult{}, apperrors.New(apperrors.ErrCodeUpstreamFailure, "Invalid Google token")
		}
		return login.AuthResult{}, apperrors.InternalWrap(err, "Failed to verify Google token")
	}

	user, err := s.Reconcile(ctx, info)
	if err != nil {
		if errors.Is(err, iam.ErrConflict) {
			return login.AuthResult{}, apperrors.Conflict("Account was modified concurrently, please retry", err)
		}
		return login.AuthResult{}, apperrors.InternalWrap(err, "Failed to sign in with Google")
	}

	return s.loginService.IssueSession(ctx, user)
}

// Reconcile maps an external identity onto a stored user:
//  1. a user already linked to the external id is returned unchanged
//  2. a user with the same email gets the external id linked
//  3. otherwise a new user without password or role is created
func (s *ExternalProviderService) Reconcile(ctx context.Context, info *ExternalUserInfo) (iam.User, error) {
	user, err := s.repo.GetUserByGoogleID(ctx, info.ExternalID, iam.LoadOptions{})
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, iam.ErrUserNotFound) {
		return iam.User{}, fmt.Errorf("find user by google id: %w", err)
	}

	user, err = s.repo.GetUserByEmail(ctx, info.Email, iam.LoadOptions{})
	switch {
	case err == nil:
		linked, err := s.repo.LinkGoogleAccount(ctx, iam.LinkGoogleAccountParams{
			ID:        user.ID,
			GoogleID:  info.ExternalID,
			AvatarURL: utils.StringPtr(info.Picture),
		})
		if err != nil {
			return iam.User{}, fmt.Errorf("link google account: %w", err)
		}
		slog.Info("Linked Google account to existing user", "user_id", linked.ID)
		return linked, nil
	case !errors.Is(err, iam.ErrUserNotFound):
		return iam.User{}, fmt.Errorf("find user by email: %w", err)
	}

	googleID := info.ExternalID
	created, err := s.repo.CreateUser(ctx, iam.CreateUserParams{
		Name:         info.Name,
		Email:        info.Email,
		GoogleID:     &googleID,
		AvatarURL:    utils.StringPtr(info.Picture),
		AuthProvider: iam.ProviderGoogle,
		Status:       iam.StatusActive,
	})
	if err != nil {
		return iam.User{}, fmt.Errorf("create google user: %w", err)
	}
	slog.Info("Created user from Google account", "user_id", created.ID)
	return created, nil
}
