package iam

import (
	"errors"
	"fmt"
)

// ErrConflict is wrapped by every uniqueness violation reported by a repository.
var ErrConflict = errors.New("conflict")

var (
	ErrEmailExists    = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrGoogleIDExists = fmt.Errorf("%w: google account already linked", ErrConflict)
	ErrRoleNameExists = fmt.Errorf("%w: role name already exists", ErrConflict)
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrRoleNotFound           = errors.New("role not found")
	ErrRolePermissionNotFound = errors.New("role-permission pair not found")

	ErrPasswordRequired = errors.New("local users require a password hash")
)
