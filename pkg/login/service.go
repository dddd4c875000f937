package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/plannr/plannr-backend/pkg/errors"
	"github.com/plannr/plannr-backend/pkg/iam"
	"github.com/plannr/plannr-backend/pkg/rbac"
	"github.com/plannr/plannr-backend/pkg/tokengenerator"
)

// TokenTypeBearer is the token_type returned with every issued token
const TokenTypeBearer = "bearer"

const msgInvalidCredentials = "Invalid email or password"

// LoginService registers local users, checks credentials and issues sessions
type LoginService struct {
	repo   iam.IamRepository
	hasher PasswordHasher
	tokens tokengenerator.TokenGenerator
}

// Option configures a LoginService
type Option func(*LoginService)

// WithPasswordHasher overrides the default bcrypt hasher
func WithPasswordHasher(hasher PasswordHasher) Option {
	return func(s *LoginService) {
		s.hasher = hasher
	}
}

func NewLoginService(repo iam.IamRepository, tokens tokengenerator.TokenGenerator, opts ...Option) *LoginService {
	s := &LoginService{
		repo:   repo,
		tokens: tokens,
		hasher: NewBcryptHasher(DefaultBcryptCost),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultBcryptCost is used when no hasher is configured
const DefaultBcryptCost = 10

// RegisterParams holds a self-service signup request
type RegisterParams struct {
	Name     string
	Email    string
	Password string
	RoleID   *uuid.UUID
}

// UserResponse is the public user with its resolved permission map
type UserResponse struct {
	iam.UserOut
	Permissions map[string]bool `json:"permissions"`
}

// AuthResult is returned by every successful authentication
type AuthResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

// ToUserResponse converts a user loaded with grants into its public form
func ToUserResponse(u iam.User) UserResponse {
	return UserResponse{
		UserOut:     iam.ToUserOut(u),
		Permissions: rbac.Resolve(u),
	}
}

// Register creates a local user and signs it in.
//
// A duplicate email found up front is reported as ALREADY_EXISTS. A duplicate
// detected by the store during a concurrent signup is a CONFLICT.
func (s *LoginService) Register(ctx context.Context, params RegisterParams) (AuthResult, error) {
	email := normalizeEmail(params.Email)

	_, err := s.repo.GetUserByEmail(ctx, email, iam.LoadOptions{})
	switch {
	case err == nil:
		return AuthResult{}, apperrors.AlreadyExists("Email already registered")
	case !errors.Is(err, iam.ErrUserNotFound):
		return AuthResult{}, apperrors.InternalWrap(err, "Failed to check email")
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		if errors.Is(err, ErrEmptyPassword) {
			return AuthResult{}, apperrors.InvalidInput("Password is required")
		}
		return AuthResult{}, apperrors.InternalWrap(err, "Failed to hash password")
	}

	user, err := s.repo.CreateUser(ctx, iam.CreateUserParams{
		Name:         strings.TrimSpace(params.Name),
		Email:        email,
		PasswordHash: &hash,
		AuthProvider: iam.ProviderLocal,
		RoleID:       params.RoleID,
		Status:       iam.StatusActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, iam.ErrRoleNotFound):
			return AuthResult{}, apperrors.NotFound("Role not found")
		case errors.Is(err, iam.ErrConflict):
			return AuthResult{}, apperrors.Conflict("Email already registered", err)
		}
		return AuthResult{}, apperrors.InternalWrap(err, "Failed to create user")
	}

	slog.Info("User registered", "user_id", user.ID, "provider", user.AuthProvider)
	return s.IssueSession(ctx, user)
}

// Login checks email and password. Every failure, including an unknown email,
// yields the same generic error.
func (s *LoginService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email), iam.LoadOptions{})
	if err != nil {
		if errors.Is(err, iam.ErrUserNotFound) {
			return AuthResult{}, apperrors.New(apperrors.ErrCodeInvalidCredentials, msgInvalidCredentials)
		}
		return AuthResult{}, apperrors.InternalWrap(err, "Failed to load user")
	}

	if user.PasswordHash == nil {
		slog.Info("Password login rejected for account without password", "user_id", user.ID, "provider", user.AuthProvider)
		return AuthResult{}, apperrors.New(apperrors.ErrCodeInvalidCredentials, msgInvalidCredentials)
	}

	ok, err := s.hasher.Verify(password, *user.PasswordHash)
	if err != nil {
		slog.Error("Stored password hash is unreadable", "user_id", user.ID, "err", err)
	}
	if !ok {
		return AuthResult{}, apperrors.New(apperrors.ErrCodeInvalidCredentials, msgInvalidCredentials)
	}

	return s.IssueSession(ctx, user)
}

// IssueSession reloads user with its role grants and signs a token for it
func (s *LoginService) IssueSession(ctx context.Context, user iam.User) (AuthResult, error) {
	loaded, err := s.repo.GetUser(ctx, user.ID, iam.LoadOptions{WithGrants: true})
	if err != nil {
		return AuthResult{}, apperrors.InternalWrap(err, "Failed to load user")
	}

	token, _, err := s.tokens.Issue(loaded.ID.String(), map[string]any{"email": loaded.Email})
	if err != nil {
		return AuthResult{}, apperrors.InternalWrap(fmt.Errorf("issue token: %w", err), "Failed to issue token")
	}

	return AuthResult{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		User:        ToUserResponse(loaded),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
