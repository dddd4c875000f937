package config

import "time"

// GoogleConfig holds Google sign-in settings.
// An empty ClientID disables the audience check; acceptable for local development only.
type GoogleConfig struct {
	ClientID     string        `env:"GOOGLE_CLIENT_ID"`
	TokenInfoURL string        `env:"GOOGLE_TOKENINFO_URL" env-default:"https://oauth2.googleapis.com/tokeninfo"`
	Timeout      time.Duration `env:"GOOGLE_TOKENINFO_TIMEOUT" env-default:"10s"`
}

func (g GoogleConfig) validate() ValidationErrors {
	return CollectErrors(
		RequireValidURL("GOOGLE_TOKENINFO_URL", g.TokenInfoURL),
		RequirePositiveDuration("GOOGLE_TOKENINFO_TIMEOUT", g.Timeout),
	)
}
