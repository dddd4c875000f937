package iam

// SeedRole is a role provisioned on first start together with its grants.
type SeedRole struct {
	Name        string
	Description string
	Grants      []string
}

// Seed roles. migrations/plannr_db.sql inserts the same rows for Postgres.
var SeedRoles = []SeedRole{
	{
		Name:        "PROJECT_ADMIN",
		Description: "Full access to all resources",
		Grants:      Catalog(),
	},
	{
		Name:        "PROJECT_MANAGER",
		Description: "Manages projects, sprints, stories and tasks",
		Grants: []string{
			PermProjectRead, PermProjectWrite,
			PermSprintRead, PermSprintWrite,
			PermStoryRead, PermStoryWrite,
			PermTaskRead, PermTaskWrite,
			PermUserRead,
		},
	},
	{
		Name:        "PROJECT_DEVELOPER",
		Description: "Works on stories and tasks",
		Grants: []string{
			PermProjectRead, PermSprintRead,
			PermStoryRead, PermStoryWrite,
			PermTaskRead, PermTaskWrite,
		},
	},
	{
		Name:        "PROJECT_VIEWER",
		Description: "Read-only access",
		Grants: []string{
			PermProjectRead, PermSprintRead, PermStoryRead, PermTaskRead,
		},
	},
}
