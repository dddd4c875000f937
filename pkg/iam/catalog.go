package iam

// Permission names. The catalog is closed: the database seed and the
// in-memory backends provision exactly these entries in this order.
const (
	PermProjectRead  = "project:read"
	PermProjectWrite = "project:write"
	PermSprintRead   = "sprint:read"
	PermSprintWrite  = "sprint:write"
	PermStoryRead    = "story:read"
	PermStoryWrite   = "story:write"
	PermTaskRead     = "task:read"
	PermTaskWrite    = "task:write"
	PermAdminRead    = "admin:read"
	PermAdminWrite   = "admin:write"
	PermUserRead     = "user:read"
	PermUserWrite    = "user:write"
)

var catalog = []Permission{
	{Name: PermProjectRead, Description: "View projects"},
	{Name: PermProjectWrite, Description: "Create, update and delete projects"},
	{Name: PermSprintRead, Description: "View sprints"},
	{Name: PermSprintWrite, Description: "Create, update and delete sprints"},
	{Name: PermStoryRead, Description: "View stories"},
	{Name: PermStoryWrite, Description: "Create, update and delete stories"},
	{Name: PermTaskRead, Description: "View tasks"},
	{Name: PermTaskWrite, Description: "Create, update and delete tasks"},
	{Name: PermAdminRead, Description: "View administration settings"},
	{Name: PermAdminWrite, Description: "Change administration settings"},
	{Name: PermUserRead, Description: "View users"},
	{Name: PermUserWrite, Description: "Manage users"},
}

// Catalog returns the permission names in catalog order.
func Catalog() []string {
	names := make([]string, len(catalog))
	for i, p := range catalog {
		names[i] = p.Name
	}
	return names
}

// CatalogIndex returns the position of name in the catalog, or -1.
func CatalogIndex(name string) int {
	for i, p := range catalog {
		if p.Name == name {
			return i
		}
	}
	return -1
}
