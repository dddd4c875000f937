// Package config loads the Plannr backend configuration.
//
// Configuration comes from environment variables, read once at startup with
// cleanenv into the Config struct. A .env file in the working directory is
// loaded first by the command, so local development can keep secrets out of
// the shell:
//
//	cfg, err := config.Load()
//	if err != nil {
//		slog.Error("Invalid configuration", "err", err)
//		os.Exit(1)
//	}
//
// # Validation
//
// Each section validates itself and Config.Validate reports every problem in
// a single ValidationErrors value:
//
//	configuration validation failed:
//	  - JWT_SECRET: is required
//	  - PERSISTENCE_TYPE: must be one of [postgres memory file], got "sqlite"
//
// The database section is only validated when PERSISTENCE_TYPE is postgres.
package config
