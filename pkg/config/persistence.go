package config

// Persistence backends understood by iam.NewIamRepository
const (
	PersistencePostgres = "postgres"
	PersistenceMemory   = "memory"
	PersistenceFile     = "file"
)

// PersistenceConfig selects the identity store backend
type PersistenceConfig struct {
	Type    string `env:"PERSISTENCE_TYPE" env-default:"postgres"`
	DataDir string `env:"PERSISTENCE_DATA_DIR" env-default:"./data"`
}

func (p PersistenceConfig) validate() ValidationErrors {
	errs := CollectErrors(
		RequireOneOf("PERSISTENCE_TYPE", p.Type, []string{PersistencePostgres, PersistenceMemory, PersistenceFile}),
	)
	if p.Type == PersistenceFile {
		errs = append(errs, CollectErrors(RequireNonEmpty("PERSISTENCE_DATA_DIR", p.DataDir))...)
	}
	return errs
}
