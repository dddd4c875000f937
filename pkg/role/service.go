package role

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/plannr/plannr-backend/pkg/iam"
)

var (
	ErrEmptyRoleName = errors.New("role name cannot be empty")
	ErrNoPermissions = errors.New("role not found or has no permissions")
)

// RoleService provides methods for role management
type RoleService struct {
	repo iam.IamRepository
}

func NewRoleService(repo iam.IamRepository) *RoleService {
	return &RoleService{
		repo: repo,
	}
}

// RoleUpdate holds a partial update. Nil fields keep their stored value.
type RoleUpdate struct {
	RoleName    *string
	Description *string
	IsActive    *bool
}

// FindRoles returns all roles ordered by name
func (s *RoleService) FindRoles(ctx context.Context) ([]iam.Role, error) {
	return s.repo.FindRoles(ctx)
}

// GetRole retrieves a role by id
func (s *RoleService) GetRole(ctx context.Context, id uuid.UUID) (iam.Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole adds a new role with every catalog permission revoked
func (s *RoleService) CreateRole(ctx context.Context, params iam.CreateRoleParams) (iam.Role, error) {
	params.RoleName = strings.TrimSpace(params.RoleName)
	if params.RoleName == "" {
		return iam.Role{}, ErrEmptyRoleName
	}
	return s.repo.CreateRole(ctx, params)
}

// UpdateRole merges update into the stored role
func (s *RoleService) UpdateRole(ctx context.Context, id uuid.UUID, update RoleUpdate) (iam.Role, error) {
	current, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return iam.Role{}, err
	}

	params := iam.UpdateRoleParams{
		ID:          id,
		RoleName:    current.RoleName,
		Description: current.Description,
		IsActive:    current.IsActive,
	}
	if update.RoleName != nil {
		params.RoleName = strings.TrimSpace(*update.RoleName)
		if params.RoleName == "" {
			return iam.Role{}, ErrEmptyRoleName
		}
	}
	if update.Description != nil {
		params.Description = update.Description
	}
	if update.IsActive != nil {
		params.IsActive = *update.IsActive
	}
	return s.repo.UpdateRole(ctx, params)
}

// DeleteRole removes a role. Users holding it are left without a role.
func (s *RoleService) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteRole(ctx, id)
}

// FindRolePermissions lists a role's grant rows in catalog order
func (s *RoleService) FindRolePermissions(ctx context.Context, id uuid.UUID) ([]iam.RolePermission, error) {
	rows, err := s.repo.FindRolePermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoPermissions
	}
	return rows, nil
}

// SetPermissionGrant grants or revokes one permission of a role
func (s *RoleService) SetPermissionGrant(ctx context.Context, roleID, permissionID uuid.UUID, granted bool) (iam.RolePermission, error) {
	return s.repo.SetRolePermissionGrant(ctx, roleID, permissionID, granted)
}
