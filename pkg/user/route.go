package user

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/plannr/plannr-backend/pkg/client"
	apperrors "github.com/plannr/plannr-backend/pkg/errors"
	"github.com/plannr/plannr-backend/pkg/iam"
	"github.com/plannr/plannr-backend/pkg/utils"
)

const msgUserNotFound = "User not found"

type Handle struct {
	userService *UserService
}

func NewHandle(userService *UserService) Handle {
	return Handle{
		userService: userService,
	}
}

type UpdateUserRequest struct {
	Name   *string    `json:"name"`
	Email  *string    `json:"email" validate:"omitempty,email"`
	RoleID *uuid.UUID `json:"role_id"`
	Status *string    `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

type UpdateRoleRequest struct {
	RoleID *uuid.UUID `json:"role_id"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Get a list of users
// (GET /users)
func (h Handle) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.FindUsers(r.Context())
	if err != nil {
		apperrors.Render(w, r, apperrors.InternalWrap(err, "Failed getting users"))
		return
	}

	out := make([]iam.UserOut, 0, len(users))
	for _, u := range users {
		out = append(out, iam.ToUserOut(u))
	}
	render.JSON(w, r, out)
}

// Get a user by id
// (GET /users/{id})
func (h Handle) Get(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamUUID(r, "id", msgUserNotFound)
	if err != nil {
		apperrors.Render(w, r, err)
		return
	}

	u, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		apperrors.Render(w, r, mapError(err))
		return
	}
	render.JSON(w, r, iam.ToUserOut(u))
}

// Update a user
// (PUT /users/{id})
func (h Handle) Update(w http.ResponseWriter, r *http.Request) {
	id, modifier, ok := h.target(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		apperrors.Render(w, r, err)
		return
	}

	u, err := h.userService.UpdateUser(r.Context(), id, UserUpdate(req), modifier)
	if err != nil {
		apperrors.Render(w, r, mapError(err))
		return
	}
	render.JSON(w, r, iam.ToUserOut(u))
}

// Assign or clear a user's role
// (PATCH /users/{id}/role)
func (h Handle) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, modifier, ok := h.target(w, r)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		apperrors.Render(w, r, err)
		return
	}

	u, err := h.userService.UpdateRole(r.Context(), id, req.RoleID, modifier)
	if err != nil {
		apperrors.Render(w, r, mapError(err))
		return
	}
	render.JSON(w, r, iam.ToUserOut(u))
}

// Activate or deactivate a user
// (PATCH /users/{id}/status)
func (h Handle) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, modifier, ok := h.target(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		apperrors.Render(w, r, err)
		return
	}

	u, err := h.userService.UpdateStatus(r.Context(), id, req.Status, modifier)
	if err != nil {
		apperrors.Render(w, r, mapError(err))
		return
	}
	render.JSON(w, r, iam.ToUserOut(u))
}

// Delete a user
// (DELETE /users/{id})
func (h Handle) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamUUID(r, "id", msgUserNotFound)
	if err != nil {
		apperrors.Render(w, r, err)
		return
	}

	if err := h.userService.DeleteUser(r.Context(), id); err != nil {
		apperrors.Render(w, r, mapError(err))
		return
	}
	render.JSON(w, r, MessageResponse{Message: "User deleted successfully"})
}

// target returns the user id from the URL and the session user making the change
func (h Handle) target(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	modifier, ok := client.GetAuthUser(r.Context())
	if !ok {
		apperrors.Render(w, r, apperrors.Unauthorized(client.MsgNotAuthenticated))
		return uuid.Nil, uuid.Nil, false
	}
	id, err := utils.URLParamUUID(r, "id", msgUserNotFound)
	if err != nil {
		apperrors.Render(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	return id, modifier.ID, true
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrEmptyName):
		return apperrors.InvalidInput("Name cannot be empty")
	case errors.Is(err, ErrInvalidStatus):
		return apperrors.InvalidInput("Status must be ACTIVE or INACTIVE")
	case errors.Is(err, iam.ErrEmailExists):
		return apperrors.AlreadyExists("Email already registered")
	case errors.Is(err, iam.ErrRoleNotFound):
		return apperrors.NotFound("Role not found")
	case errors.Is(err, iam.ErrUserNotFound):
		return apperrors.NotFound(msgUserNotFound)
	}
	return apperrors.InternalWrap(err, "User operation failed")
}
