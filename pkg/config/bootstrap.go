package config

// BootstrapConfig creates the first admin user on an empty store.
// Bootstrap is skipped when AdminEmail is empty.
type BootstrapConfig struct {
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminName     string `env:"ADMIN_NAME" env-default:"Administrator"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminRoleName string `env:"ADMIN_ROLE_NAME" env-default:"PROJECT_ADMIN"`
}

// Enabled reports whether an admin should be bootstrapped
func (b BootstrapConfig) Enabled() bool {
	return b.AdminEmail != ""
}

func (b BootstrapConfig) validate() ValidationErrors {
	if !b.Enabled() {
		return nil
	}
	return CollectErrors(
		RequireNonEmpty("ADMIN_NAME", b.AdminName),
		RequireNonEmpty("ADMIN_ROLE_NAME", b.AdminRoleName),
	)
}
