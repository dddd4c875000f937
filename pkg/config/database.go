package config

import (
	"fmt"
)

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	Host     string `env:"PLANNR_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"PLANNR_PG_PORT" env-default:"5432"`
	Database string `env:"PLANNR_PG_DATABASE" env-default:"plannr_db"`
	User     string `env:"PLANNR_PG_USER" env-default:"plannr"`
	Password string `env:"PLANNR_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"PLANNR_PG_SCHEMA" env-default:"public"`
	// URL overrides the individual fields when set, e.g. DATABASE_URL from a platform.
	URL string `env:"DATABASE_URL"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

func (d DatabaseConfig) validate() ValidationErrors {
	if d.URL != "" {
		return nil
	}
	return CollectErrors(
		RequireNonEmpty("PLANNR_PG_HOST", d.Host),
		RequireValidPort("PLANNR_PG_PORT", d.Port),
		RequireNonEmpty("PLANNR_PG_DATABASE", d.Database),
		RequireNonEmpty("PLANNR_PG_USER", d.User),
	)
}
