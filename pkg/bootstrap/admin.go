package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/plannr/plannr-backend/pkg/iam"
	"github.com/plannr/plannr-backend/pkg/login"
)

// AdminBootstrapConfig contains configuration for bootstrapping the first admin user
type AdminBootstrapConfig struct {
	// Admin role name (from ADMIN_ROLE_NAME env var)
	AdminRoleName string

	// Admin user details (from ADMIN_NAME, ADMIN_EMAIL, ADMIN_PASSWORD)
	AdminName     string
	AdminEmail    string
	AdminPassword string

	// Service dependencies
	Repo   iam.IamRepository
	Hasher login.PasswordHasher
}

// AdminBootstrapResult contains the result of admin bootstrap operation
type AdminBootstrapResult struct {
	RoleID      uuid.UUID
	RoleName    string
	RoleCreated bool

	UserID      uuid.UUID
	Email       string
	Password    string // Only populated if auto-generated
	UserCreated bool   // true if user was created, false if skipped
}

// BootstrapAdmin creates the first admin user when the store holds no users.
// The admin role is created with every catalog permission granted if it is
// missing. An empty AdminPassword is replaced by a random one.
func BootstrapAdmin(ctx context.Context, cfg AdminBootstrapConfig) (*AdminBootstrapResult, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid bootstrap configuration: %w", err)
	}

	users, err := cfg.Repo.FindUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check if users exist: %w", err)
	}
	if len(users) > 0 {
		slog.Info("Users already exist - skipping admin bootstrap")
		return &AdminBootstrapResult{}, nil
	}

	role, created, err := ensureAdminRole(ctx, cfg.Repo, cfg.AdminRoleName)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure admin role: %w", err)
	}

	result := &AdminBootstrapResult{
		RoleID:      role.ID,
		RoleName:    role.RoleName,
		RoleCreated: created,
		Email:       cfg.AdminEmail,
	}

	password := cfg.AdminPassword
	if password == "" {
		if password, err = generatePassword(); err != nil {
			return nil, err
		}
		result.Password = password
	}

	hash, err := cfg.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	user, err := cfg.Repo.CreateUser(ctx, iam.CreateUserParams{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: &hash,
		AuthProvider: iam.ProviderLocal,
		RoleID:       &role.ID,
		Status:       iam.StatusActive,
	})
	if err != nil {
		// Another instance won the race
		if errors.Is(err, iam.ErrConflict) {
			slog.Info("Admin user created concurrently - skipping admin bootstrap")
			return &AdminBootstrapResult{}, nil
		}
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	result.UserID = user.ID
	result.UserCreated = true
	slog.Info("Admin user created", "user_id", user.ID, "role", role.RoleName)
	return result, nil
}

func validateConfig(cfg AdminBootstrapConfig) error {
	if strings.TrimSpace(cfg.AdminRoleName) == "" {
		return fmt.Errorf("admin role name is required")
	}
	if strings.TrimSpace(cfg.AdminEmail) == "" {
		return fmt.Errorf("admin email is required")
	}
	if strings.TrimSpace(cfg.AdminName) == "" {
		return fmt.Errorf("admin name is required")
	}
	if cfg.Repo == nil {
		return fmt.Errorf("repository is required")
	}
	if cfg.Hasher == nil {
		return fmt.Errorf("password hasher is required")
	}
	return nil
}

// ensureAdminRole finds the role by name, creating it with every permission granted
func ensureAdminRole(ctx context.Context, repo iam.IamRepository, name string) (iam.Role, bool, error) {
	roles, err := repo.FindRoles(ctx)
	if err != nil {
		return iam.Role{}, false, fmt.Errorf("failed to find existing roles: %w", err)
	}
	for _, role := range roles {
		if strings.EqualFold(role.RoleName, name) {
			slog.Info("Admin role already exists", "role", role.RoleName, "id", role.ID)
			return role, false, nil
		}
	}

	role, err := repo.CreateRole(ctx, iam.CreateRoleParams{RoleName: name, IsActive: true})
	if err != nil {
		return iam.Role{}, false, fmt.Errorf("failed to create admin role %s: %w", name, err)
	}
	perms, err := repo.FindPermissions(ctx)
	if err != nil {
		return iam.Role{}, false, err
	}
	for _, p := range perms {
		if _, err := repo.SetRolePermissionGrant(ctx, role.ID, p.ID, true); err != nil {
			return iam.Role{}, false, fmt.Errorf("failed to grant %s: %w", p.Name, err)
		}
	}

	slog.Info("Admin role created", "role", name, "id", role.ID)
	return role, true, nil
}

func generatePassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate admin password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
