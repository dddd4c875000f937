package externalprovider

import (
	"context"
	"testing"

	apperrors "github.com/plannr/plannr-backend/pkg/errors"
	"github.com/plannr/plannr-backend/pkg/iam"
	"github.com/plannr/plannr-backend/pkg/login"
	"github.com/plannr/plannr-backend/pkg/tokengenerator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubVerifier struct {
	info *ExternalUserInfo
	err  error
}

func (s stubVerifier) Verify(context.Context, string) (*ExternalUserInfo, error) {
	return s.info, s.err
}

func setupService(t *testing.T, verifier Verifier) (*ExternalProviderService, *iam.InMemoryIamRepository, *login.LoginService) {
	t.Helper()
	repo := iam.NewInMemoryIamRepository()
	require.NoError(t, repo.Seed(context.Background()))

	tokens, err := tokengenerator.NewJwtTokenGenerator("google-test-secret")
	require.NoError(t, err)
	loginService := login.NewLoginService(repo, tokens, login.WithPasswordHasher(login.NewBcryptHasher(bcrypt.MinCost)))
	return NewExternalProviderService(repo, loginService, verifier), repo, loginService
}

func googleInfo(sub, email, picture string) *ExternalUserInfo {
	return &ExternalUserInfo{
		ProviderID: ProviderGoogle,
		ExternalID: sub,
		Email:      email,
		Name:       "Gina",
		Picture:    picture,
	}
}

func TestExternalProviderService_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesNewUser", func(t *testing.T) {
		svc, repo, _ := setupService(t, nil)

		user, err := svc.Reconcile(ctx, googleInfo("g-1", "gina@x.io", "https://img/g.png"))
		require.NoError(t, err)
		assert.Equal(t, iam.ProviderGoogle, user.AuthProvider)
		assert.Nil(t, user.PasswordHash)
		assert.Nil(t, user.RoleID)
		require.NotNil(t, user.GoogleID)
		assert.Equal(t, "g-1", *user.GoogleID)
		require.NotNil(t, user.AvatarURL)

		users, err := repo.FindUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("ReturnsLinkedUserUnchanged", func(t *testing.T) {
		svc, _, _ := setupService(t, nil)

		first, err := svc.Reconcile(ctx, googleInfo("g-1", "gina@x.io", "https://img/g.png"))
		require.NoError(t, err)
		second, err := svc.Reconcile(ctx, googleInfo("g-1", "changed@x.io", "https://img/new.png"))
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "gina@x.io", second.Email)
		assert.Equal(t, "https://img/g.png", *second.AvatarURL)
	})

	t.Run("LinksExistingLocalUser", func(t *testing.T) {
		svc, repo, loginService := setupService(t, nil)

		registered, err := loginService.Register(ctx, login.RegisterParams{Name: "Gina", Email: "gina@x.io", Password: "pw"})
		require.NoError(t, err)

		user, err := svc.Reconcile(ctx, googleInfo("g-9", "gina@x.io", "https://img/g.png"))
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, user.ID)
		assert.Equal(t, iam.ProviderGoogle, user.AuthProvider)
		require.NotNil(t, user.GoogleID)
		assert.Equal(t, "g-9", *user.GoogleID)
		assert.NotNil(t, user.PasswordHash, "password hash survives linking")

		users, err := repo.FindUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("KeepsExistingAvatar", func(t *testing.T) {
		svc, repo, _ := setupService(t, nil)

		avatar := "https://img/original.png"
		hash := "$2a$10$hash"
		existing, err := repo.CreateUser(ctx, iam.CreateUserParams{
			Name: "Gina", Email: "gina@x.io", PasswordHash: &hash, AvatarURL: &avatar,
		})
		require.NoError(t, err)

		user, err := svc.Reconcile(ctx, googleInfo("g-5", "gina@x.io", "https://img/google.png"))
		require.NoError(t, err)
		assert.Equal(t, existing.ID, user.ID)
		assert.Equal(t, avatar, *user.AvatarURL)
	})
}

func TestExternalProviderService_AuthenticateGoogle(t *testing.T) {
	ctx := context.Background()

	t.Run("IssuesSession", func(t *testing.T) {
		svc, _, _ := setupService(t, stubVerifier{info: googleInfo("g-1", "gina@x.io", "")})

		result, err := svc.AuthenticateGoogle(ctx, "credential")
		require.NoError(t, err)
		assert.Equal(t, login.TokenTypeBearer, result.TokenType)
		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, iam.ProviderGoogle, result.User.AuthProvider)
		assert.Len(t, result.User.Permissions, 12)
	})

	cases := []struct {
		name string
		err  error
		code apperrors.ErrorCode
		msg  string
	}{
		{"InvalidToken", ErrInvalidCredential, apperrors.ErrCodeUpstreamFailure, "Invalid Google token"},
		{"AudienceMismatch", ErrAudienceMismatch, apperrors.ErrCodeUnauthorized, "Google token audience mismatch"},
		{"IncompleteProfile", ErrIncompleteProfile, apperrors.ErrCodeIncompleteProfile, "Incomplete Google profile data"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _ := setupService(t, stubVerifier{err: tc.err})

			_, err := svc.AuthenticateGoogle(ctx, "credential")
			require.Error(t, err)
			assert.Equal(t, tc.code, apperrors.GetCode(err))
			assert.Contains(t, err.Error(), tc.msg)

			users, err := repo.FindUsers(ctx)
			require.NoError(t, err)
			assert.Empty(t, users, "no user written on failure")
		})
	}
}
