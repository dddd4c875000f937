package iam

import (
	"context"

	"github.com/google/uuid"
)

// IamRepository persists users, roles and permission grants.
//
// Implementations enforce email, google id and role name uniqueness
// themselves and report violations as errors wrapping ErrConflict, so a
// caller that lost a check-then-write race still gets a conflict.
type IamRepository interface {
	// User operations
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	GetUser(ctx context.Context, id uuid.UUID, opts LoadOptions) (User, error)
	GetUserByEmail(ctx context.Context, email string, opts LoadOptions) (User, error)
	GetUserByGoogleID(ctx context.Context, googleID string, opts LoadOptions) (User, error)
	FindUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, params UpdateUserParams) (User, error)
	UpdateUserRole(ctx context.Context, params UpdateUserRoleParams) (User, error)
	UpdateUserStatus(ctx context.Context, params UpdateUserStatusParams) (User, error)
	LinkGoogleAccount(ctx context.Context, params LinkGoogleAccountParams) (User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Role operations
	FindRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id uuid.UUID) (Role, error)
	CreateRole(ctx context.Context, params CreateRoleParams) (Role, error)
	UpdateRole(ctx context.Context, params UpdateRoleParams) (Role, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error

	// Permission operations
	FindPermissions(ctx context.Context) ([]Permission, error)
	FindRolePermissions(ctx context.Context, roleID uuid.UUID) ([]RolePermission, error)
	SetRolePermissionGrant(ctx context.Context, roleID, permissionID uuid.UUID, granted bool) (RolePermission, error)
}

func validateCreateUser(params CreateUserParams) error {
	if params.AuthProvider == ProviderLocal && (params.PasswordHash == nil || *params.PasswordHash == "") {
		return ErrPasswordRequired
	}
	return nil
}

func withDefaults(params CreateUserParams) CreateUserParams {
	if params.AuthProvider == "" {
		params.AuthProvider = ProviderLocal
	}
	if params.Status == "" {
		params.Status = StatusActive
	}
	return params
}
