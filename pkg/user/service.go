package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/plannr/plannr-backend/pkg/iam"
)

var (
	ErrEmptyName     = errors.New("name cannot be empty")
	ErrInvalidStatus = errors.New("status must be ACTIVE or INACTIVE")
)

// UserService administers stored users
type UserService struct {
	repo iam.IamRepository
}

func NewUserService(repo iam.IamRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

// UserUpdate holds a partial update. Nil fields keep their stored value.
type UserUpdate struct {
	Name   *string
	Email  *string
	RoleID *uuid.UUID
	Status *string
}

// FindUsers returns every user with its role, ordered by name
func (s *UserService) FindUsers(ctx context.Context) ([]iam.User, error) {
	return s.repo.FindUsers(ctx)
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (iam.User, error) {
	return s.repo.GetUser(ctx, id, iam.LoadOptions{WithRole: true})
}

// UpdateUser applies update on behalf of modifiedBy. Every field is checked,
// including that the new role exists, before anything is written.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, update UserUpdate, modifiedBy uuid.UUID) (iam.User, error) {
	if update.Status != nil && !validStatus(*update.Status) {
		return iam.User{}, ErrInvalidStatus
	}
	var name string
	if update.Name != nil {
		if name = strings.TrimSpace(*update.Name); name == "" {
			return iam.User{}, ErrEmptyName
		}
	}

	user, err := s.repo.GetUser(ctx, id, iam.LoadOptions{WithRole: true})
	if err != nil {
		return iam.User{}, err
	}
	if update.RoleID != nil {
		if _, err := s.repo.GetRole(ctx, *update.RoleID); err != nil {
			return iam.User{}, fmt.Errorf("update role: %w", err)
		}
	}

	if update.Name != nil || update.Email != nil {
		params := iam.UpdateUserParams{ID: id, Name: user.Name, Email: user.Email, ModifiedBy: &modifiedBy}
		if update.Name != nil {
			params.Name = name
		}
		if update.Email != nil {
			params.Email = strings.TrimSpace(*update.Email)
		}
		if user, err = s.repo.UpdateUser(ctx, params); err != nil {
			return iam.User{}, fmt.Errorf("update profile: %w", err)
		}
	}

	if update.RoleID != nil {
		if user, err = s.UpdateRole(ctx, id, update.RoleID, modifiedBy); err != nil {
			return iam.User{}, err
		}
	}

	if update.Status != nil {
		if user, err = s.UpdateStatus(ctx, id, *update.Status, modifiedBy); err != nil {
			return iam.User{}, err
		}
	}

	return user, nil
}

// UpdateRole assigns roleID to a user. A nil roleID removes the role.
func (s *UserService) UpdateRole(ctx context.Context, id uuid.UUID, roleID *uuid.UUID, modifiedBy uuid.UUID) (iam.User, error) {
	user, err := s.repo.UpdateUserRole(ctx, iam.UpdateUserRoleParams{ID: id, RoleID: roleID, ModifiedBy: &modifiedBy})
	if err != nil {
		return iam.User{}, fmt.Errorf("update role: %w", err)
	}
	slog.Info("User role changed", "user_id", id, "role_id", roleID, "modified_by", modifiedBy)
	return user, nil
}

func (s *UserService) UpdateStatus(ctx context.Context, id uuid.UUID, status string, modifiedBy uuid.UUID) (iam.User, error) {
	if !validStatus(status) {
		return iam.User{}, ErrInvalidStatus
	}
	user, err := s.repo.UpdateUserStatus(ctx, iam.UpdateUserStatusParams{ID: id, Status: status, ModifiedBy: &modifiedBy})
	if err != nil {
		return iam.User{}, fmt.Errorf("update status: %w", err)
	}
	slog.Info("User status changed", "user_id", id, "status", status, "modified_by", modifiedBy)
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	slog.Info("User deleted", "user_id", id)
	return nil
}

func validStatus(status string) bool {
	return status == iam.StatusActive || status == iam.StatusInactive
}
