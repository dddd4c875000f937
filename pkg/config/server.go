package config

import (
	"fmt"
	"strings"
	"time"
)

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            uint16        `env:"HTTP_PORT" env-default:"8000"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://localhost:5173"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AllowedOrigins returns the trimmed, non-empty CORS origins
func (s ServerConfig) AllowedOrigins() []string {
	origins := make([]string, 0, len(s.CORSOrigins))
	for _, o := range s.CORSOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (s ServerConfig) validate() ValidationErrors {
	return CollectErrors(
		RequireValidPort("HTTP_PORT", s.Port),
		RequirePositiveDuration("HTTP_REQUEST_TIMEOUT", s.RequestTimeout),
	)
}
