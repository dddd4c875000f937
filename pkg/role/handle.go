package role

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	apperrors "github.com/plannr/plannr-backend/pkg/errors"
	"github.com/plannr/plannr-backend/pkg/iam"
	"github.com/plannr/plannr-backend/pkg/utils"
)

const (
	msgRoleNotFound  = "Role not found"
	msgNoPermissions = "Role not found or has no permissions"
	msgPairNotFound  = "Role-permission pair not found"
)

type CreateRoleRequest struct {
	RoleName    string  `json:"role_name" validate:"required"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type UpdateRoleRequest struct {
	RoleName    *string `json:"role_name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type SetGrantRequest struct {
	IsGranted *bool `json:"is_granted" validate:"required"`
}

type Handle struct {
	roleService *RoleService
}

func NewHandle(roleService *RoleService) Handle {
	return Handle{
		roleService: roleService,
	}
}

// List handles the GET / endpoint
func (h Handle) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roleService.FindRoles(r.Context())
	if err != nil {
		apperrors.Render(w, r, apperrors.InternalWrap(err, "Failed to fetch roles"))
		return
	}
	render.JSON(w, r, roles)
}

// Get handles the GET /{id} endpoint
func (h Handle) Get(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamUUID(r, "id", msgRoleNotFound)
	if err != nil {
		apperrors.Render(w, r, err)
		return
	}

	role, err := h.roleService.GetRole(r.Context(), id)
	if err != nil {
		apperrors.Render(w, r, mapError(err))
		return
	}
	render.JSON(w, r, role)
}

// Create handles the POST / endpoint
func (h Handle) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		apperrors.Render(w, r, err)
		return
	}

	params := iam.CreateRoleParams{
		RoleName:    req.RoleName,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		params.IsActive = *req.IsActive
	}

	role, err := h.roleService.CreateRole(r.Context(), params)
	if err != nil {
		apperrors.Render(w, r, mapError(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, role)
}

// Update handles the PUT /{id} endpoint
func (h Handle) Update(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamUUID(r, "id", msgRoleNotFound)
	if err != nil {
		apperrors.Render(w, r, err)
		return
	}

	var req UpdateRoleRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		apperrors.Render(w, r, err)
		return
	}

	role, err := h.roleService.UpdateRole(r.Context(), id, RoleUpdate(req))
	if err != nil {
		apperrors.Render(w, r, mapError(err))
		return
	}
	render.JSON(w, r, role)
}

// Delete handles the DELETE /{id} endpoint
func (h Handle) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamUUID(r, "id", msgRoleNotFound)
	if err != nil {
		apperrors.Render(w, r, err)
		return
	}

	if err := h.roleService.DeleteRole(r.Context(), id); err != nil {
		apperrors.Render(w, r, mapError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Permissions handles the GET /{id}/permissions endpoint
func (h Handle) Permissions(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamUUID(r, "id", msgNoPermissions)
	if err != nil {
		apperrors.Render(w, r, err)
		return
	}

	rows, err := h.roleService.FindRolePermissions(r.Context(), id)
	if err != nil {
		apperrors.Render(w, r, mapError(err))
		return
	}
	render.JSON(w, r, rows)
}

// SetGrant handles the PATCH /{id}/permissions/{permissionId} endpoint
func (h Handle) SetGrant(w http.ResponseWriter, r *http.Request) {
	roleID, err := utils.URLParamUUID(r, "id", msgPairNotFound)
	if err != nil {
		apperrors.Render(w, r, err)
		return
	}
	permissionID, err := utils.URLParamUUID(r, "permissionId", msgPairNotFound)
	if err != nil {
		apperrors.Render(w, r, err)
		return
	}

	var req SetGrantRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		apperrors.Render(w, r, err)
		return
	}

	row, err := h.roleService.SetPermissionGrant(r.Context(), roleID, permissionID, *req.IsGranted)
	if err != nil {
		apperrors.Render(w, r, mapError(err))
		return
	}
	render.JSON(w, r, row)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrEmptyRoleName):
		return apperrors.InvalidInput("Role name cannot be empty")
	case errors.Is(err, iam.ErrRoleNameExists):
		return apperrors.AlreadyExists("Role name already exists")
	case errors.Is(err, iam.ErrRoleNotFound):
		return apperrors.NotFound(msgRoleNotFound)
	case errors.Is(err, ErrNoPermissions):
		return apperrors.NotFound(msgNoPermissions)
	case errors.Is(err, iam.ErrRolePermissionNotFound):
		return apperrors.NotFound(msgPairNotFound)
	}
	return apperrors.InternalWrap(err, "Role operation failed")
}
