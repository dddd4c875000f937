package config

import "time"

// RateLimitConfig limits credential endpoints per client IP.
type RateLimitConfig struct {
	Enabled      bool          `env:"RATELIMIT_ENABLED" env-default:"true"`
	LoginLimit   int           `env:"RATELIMIT_LOGIN_LIMIT" env-default:"10"`
	SignupLimit  int           `env:"RATELIMIT_SIGNUP_LIMIT" env-default:"5"`
	WindowLength time.Duration `env:"RATELIMIT_WINDOW" env-default:"1m"`
}

func (r RateLimitConfig) validate() ValidationErrors {
	if !r.Enabled {
		return nil
	}
	return CollectErrors(
		RequirePositive("RATELIMIT_LOGIN_LIMIT", r.LoginLimit),
		RequirePositive("RATELIMIT_SIGNUP_LIMIT", r.SignupLimit),
		RequirePositiveDuration("RATELIMIT_WINDOW", r.WindowLength),
	)
}
