package iam

import (
	"time"

	"github.com/google/uuid"
)

// Authentication providers
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User lifecycle statuses
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// User represents an identity record
type User struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   *string    `json:"password_hash,omitempty"`
	GoogleID       *string    `json:"google_id,omitempty"`
	AvatarURL      *string    `json:"avatar_url,omitempty"`
	AuthProvider   string     `json:"auth_provider"`
	RoleID         *uuid.UUID `json:"role_id,omitempty"`
	Status         string     `json:"status"`
	LastModifiedOn time.Time  `json:"last_modified_on"`
	LastModifiedBy *uuid.UUID `json:"last_modified_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// Role is set only when the user was loaded with LoadOptions.WithRole
	// and has a role assigned.
	Role *RoleInfo `json:"-"`
}

// Role is a named bundle of permission grants
type Role struct {
	ID          uuid.UUID `json:"id"`
	RoleName    string    `json:"role_name"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// RoleInfo is a role eager-loaded together with a user.
type RoleInfo struct {
	Role
	Grants Grants
}

// Grants holds a role's RolePermission rows. Loaded is false when the rows
// were not requested; callers must treat that as "nothing granted".
type Grants struct {
	Loaded bool
	Items  []RolePermission
}

// Permission is an entry of the closed permission catalog
type Permission struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// RolePermission is the grant flag for one (role, permission) pair
type RolePermission struct {
	ID             uuid.UUID `json:"role_permission_id"`
	RoleID         uuid.UUID `json:"role_id"`
	PermissionID   uuid.UUID `json:"permission_id"`
	PermissionName string    `json:"permission_name"`
	IsGranted      bool      `json:"is_granted"`
}

// LoadOptions selects relations to load with a user in the same call.
// WithGrants implies WithRole.
type LoadOptions struct {
	WithRole   bool
	WithGrants bool
}

func (o LoadOptions) role() bool {
	return o.WithRole || o.WithGrants
}

// CreateUserParams contains parameters for creating a new user
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash *string
	GoogleID     *string
	AvatarURL    *string
	AuthProvider string
	RoleID       *uuid.UUID
	Status       string
}

// UpdateUserParams contains parameters for updating a user's profile
type UpdateUserParams struct {
	ID         uuid.UUID
	Name       string
	Email      string
	ModifiedBy *uuid.UUID
}

// UpdateUserRoleParams assigns or clears (nil RoleID) a user's role
type UpdateUserRoleParams struct {
	ID         uuid.UUID
	RoleID     *uuid.UUID
	ModifiedBy *uuid.UUID
}

type UpdateUserStatusParams struct {
	ID         uuid.UUID
	Status     string
	ModifiedBy *uuid.UUID
}

// LinkGoogleAccountParams attaches a Google identity to an existing user.
// AvatarURL is only stored when the user has none.
type LinkGoogleAccountParams struct {
	ID        uuid.UUID
	GoogleID  string
	AvatarURL *string
}

type CreateRoleParams struct {
	RoleName    string
	Description *string
	IsActive    bool
}

type UpdateRoleParams struct {
	ID          uuid.UUID
	RoleName    string
	Description *string
	IsActive    bool
}

// UserOut is the public representation of a user
type UserOut struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	RoleID         *uuid.UUID `json:"role_id"`
	RoleName       *string    `json:"role_name"`
	Status         string     `json:"status"`
	LastModifiedOn time.Time  `json:"last_modified_on"`
	LastModifiedBy *uuid.UUID `json:"last_modified_by"`
	AvatarURL      *string    `json:"avatar_url"`
	AuthProvider   string     `json:"auth_provider"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToUserOut converts a user to its public representation. RoleName is only
// resolved when the role was loaded.
func ToUserOut(u User) UserOut {
	out := UserOut{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		RoleID:         u.RoleID,
		Status:         u.Status,
		LastModifiedOn: u.LastModifiedOn,
		LastModifiedBy: u.LastModifiedBy,
		AvatarURL:      u.AvatarURL,
		AuthProvider:   u.AuthProvider,
		CreatedAt:      u.CreatedAt,
	}
	if u.Role != nil {
		name := u.Role.RoleName
		out.RoleName = &name
	}
	return out
}
