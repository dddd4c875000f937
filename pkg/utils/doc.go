// Package utils holds small HTTP helpers shared by the handler packages.
//
// Handlers decode and validate request bodies in one step:
//
//	var req RegisterRequest
//	if err := utils.DecodeJSON(r, &req); err != nil {
//		errors.Render(w, r, err)
//		return
//	}
//
// Validation uses go-playground/validator struct tags. A failure becomes an
// INVALID_INPUT error whose detail names the rejected fields.
package utils
