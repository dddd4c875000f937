// Package rbac resolves a user's role grants into the fixed permission map.
package rbac

import (
	"github.com/plannr/plannr-backend/pkg/iam"
)

// Resolve returns a map with exactly one entry per catalog permission.
//
// A user with no role, or whose role was loaded without grants, gets every
// permission false. Catalog permissions without a grant row are false and
// rows for names outside the catalog are ignored.
func Resolve(user iam.User) map[string]bool {
	catalog := iam.Catalog()
	perms := make(map[string]bool, len(catalog))
	for _, name := range catalog {
		perms[name] = false
	}

	if user.Role == nil || !user.Role.Grants.Loaded {
		return perms
	}
	for _, rp := range user.Role.Grants.Items {
		if _, known := perms[rp.PermissionName]; known {
			perms[rp.PermissionName] = rp.IsGranted
		}
	}
	return perms
}

// Granted reports whether name is granted in perms
func Granted(perms map[string]bool, name string) bool {
	return perms[name]
}
