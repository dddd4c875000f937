package config

import "golang.org/x/crypto/bcrypt"

// PasswordConfig holds password hashing configuration
type PasswordConfig struct {
	BcryptCost int `env:"PASSWORD_BCRYPT_COST" env-default:"10"`
}

func (p PasswordConfig) validate() ValidationErrors {
	return CollectErrors(
		RequireInRange("PASSWORD_BCRYPT_COST", p.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost),
	)
}
