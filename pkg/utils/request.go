package utils

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apperrors "github.com/plannr/plannr-backend/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeJSON decodes the request body into dst and runs its validate tags.
// Failures are returned as INVALID_INPUT errors listing the offending fields.
func DecodeJSON(r *http.Request, dst any) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return apperrors.InvalidInput("Invalid request body")
	}
	return Validate(dst)
}

// Validate runs validate tags on v
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.InvalidInput("Invalid request body")
	}
	fields := make([]string, 0, len(fieldErrs))
	appErr := apperrors.New(apperrors.ErrCodeInvalidInput, "")
	for _, fe := range fieldErrs {
		fields = append(fields, strings.ToLower(fe.Field()))
		appErr.WithDetail(strings.ToLower(fe.Field()), fe.Tag())
	}
	appErr.Message = "Invalid fields: " + strings.Join(fields, ", ")
	return appErr
}

// URLParamUUID parses a chi URL parameter as a uuid. notFound is returned
// as a NOT_FOUND error when the value is not a uuid.
func URLParamUUID(r *http.Request, key, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, apperrors.NotFound(notFound)
	}
	return id, nil
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
