package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the process-wide configuration. It is built once at startup and
// handed to each component; nothing reads the environment after Load returns.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Persistence PersistenceConfig
	JWT         JWTConfig
	Google      GoogleConfig
	Password    PasswordConfig
	RateLimit   RateLimitConfig
	Bootstrap   BootstrapConfig
}

// Load reads the configuration from environment variables and validates it
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section and returns all problems at once
func (c Config) Validate() error {
	validators := []Validator{
		c.Server.validate,
		c.Persistence.validate,
		c.JWT.validate,
		c.Google.validate,
		c.Password.validate,
		c.RateLimit.validate,
		c.Bootstrap.validate,
	}
	if c.Persistence.Type == PersistencePostgres {
		validators = append(validators, c.Database.validate)
	}
	return Validate(validators...)
}
