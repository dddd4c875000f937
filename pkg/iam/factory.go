package iam

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig contains configuration for creating IAM repositories
type RepositoryConfig struct {
	// Pool is required for PostgreSQL repositories
	Pool *pgxpool.Pool
	// DataDir is required for file-based repositories
	DataDir string
}

// NewIamRepository creates a new IAM repository based on the persistence type.
// In-memory and file repositories are seeded with the default roles; the
// Postgres schema is seeded by its migration.
func NewIamRepository(ctx context.Context, persistenceType string, config RepositoryConfig) (IamRepository, error) {
	switch persistenceType {
	case "postgres", "postgresql":
		if config.Pool == nil {
			return nil, fmt.Errorf("pool required for postgres repository")
		}
		return NewPostgresIamRepository(config.Pool), nil
	case "memory":
		repo := NewInMemoryIamRepository()
		if err := repo.Seed(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	case "file":
		if config.DataDir == "" {
			return nil, fmt.Errorf("dataDir required for file repository")
		}
		repo, err := NewFileIamRepository(config.DataDir)
		if err != nil {
			return nil, err
		}
		if err := repo.Seed(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, memory, file)", persistenceType)
	}
}
