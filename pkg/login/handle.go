package login

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/plannr/plannr-backend/pkg/client"
	apperrors "github.com/plannr/plannr-backend/pkg/errors"
	"github.com/plannr/plannr-backend/pkg/utils"
)

type RegisterRequest struct {
	Name     string     `json:"name" validate:"required"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required"`
	RoleID   *uuid.UUID `json:"role_id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Handle struct {
	loginService *LoginService
}

func NewHandle(loginService *LoginService) Handle {
	return Handle{loginService: loginService}
}

// Register a local user
// (POST /auth/register)
func (h Handle) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		apperrors.Render(w, r, err)
		return
	}

	var params RegisterParams
	if err := copier.Copy(&params, &req); err != nil {
		apperrors.Render(w, r, apperrors.InternalWrap(err, "Failed to read request"))
		return
	}

	result, err := h.loginService.Register(r.Context(), params)
	if err != nil {
		apperrors.Render(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// Login with email and password
// (POST /auth/login)
func (h Handle) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apperrors.Render(w, r, apperrors.InvalidInput("Invalid request body"))
		return
	}
	// Blank fields fail as invalid credentials.
	result, err := h.loginService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		apperrors.Render(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Me returns the session user with its permission map
// (GET /auth/me)
func (h Handle) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := client.GetAuthUser(r.Context())
	if !ok {
		apperrors.Render(w, r, apperrors.Unauthorized(client.MsgNotAuthenticated))
		return
	}
	render.JSON(w, r, ToUserResponse(user))
}
