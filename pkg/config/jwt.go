package config

import (
	"time"
)

// DefaultJWTSecret is the built-in signing secret. It matches the env-default
// tag below and must be overridden outside development.
const DefaultJWTSecret = "change-me-in-production-super-secret-key-32chars"

// JWTConfig holds bearer token configuration.
// The secret is read once at startup; rotating it invalidates every outstanding token.
type JWTConfig struct {
	Secret            string        `env:"JWT_SECRET,SECRET_KEY" env-default:"change-me-in-production-super-secret-key-32chars"`
	AccessTokenExpiry time.Duration `env:"ACCESS_TOKEN_EXPIRY" env-default:"168h"`
	Issuer            string        `env:"JWT_ISSUER" env-default:"plannr"`
	Audience          string        `env:"JWT_AUDIENCE"`
}

// UsesDefaultSecret reports whether tokens are signed with DefaultJWTSecret
func (j JWTConfig) UsesDefaultSecret() bool {
	return j.Secret == DefaultJWTSecret
}

func (j JWTConfig) validate() ValidationErrors {
	return CollectErrors(
		RequireNonEmpty("JWT_SECRET", j.Secret),
		RequirePositiveDuration("ACCESS_TOKEN_EXPIRY", j.AccessTokenExpiry),
	)
}
