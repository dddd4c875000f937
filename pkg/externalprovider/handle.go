package externalprovider

import (
	"net/http"

	"github.com/go-chi/render"
	apperrors "github.com/plannr/plannr-backend/pkg/errors"
	"github.com/plannr/plannr-backend/pkg/utils"
)

type GoogleAuthRequest struct {
	Credential string `json:"credential" validate:"required"`
}

type Handle struct {
	service *ExternalProviderService
}

func NewHandle(service *ExternalProviderService) Handle {
	return Handle{service: service}
}

// Google signs in with a Google ID token
// (POST /auth/google)
func (h Handle) Google(w http.ResponseWriter, r *http.Request) {
	var req GoogleAuthRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		apperrors.Render(w, r, err)
		return
	}

	result, err := h.service.AuthenticateGoogle(r.Context(), req.Credential)
	if err != nil {
		apperrors.Render(w, r, err)
		return
	}
	render.JSON(w, r, result)
}
