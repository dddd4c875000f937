// Package iam owns users, roles, the permission catalog and role grants.
//
// IamRepository is the only way in. Three backends implement it:
//
//   - PostgresIamRepository, backed by pgx and migrations/plannr_db.sql
//   - InMemoryIamRepository, for tests and throwaway runs
//   - FileIamRepository, the in-memory repository plus a JSON snapshot on disk
//
// NewIamRepository picks one from the PERSISTENCE_TYPE setting:
//
//	repo, err := iam.NewIamRepository(ctx, cfg.Persistence.Type, iam.RepositoryConfig{
//		Pool:    pool,
//		DataDir: cfg.Persistence.DataDir,
//	})
//
// # Loading relations
//
// Reads take LoadOptions. A user loaded without WithRole has a nil Role even
// when RoleID is set, and a role loaded without WithGrants has
// Grants.Loaded == false. Code that resolves permissions must load with
// WithGrants; an unloaded grant list means nothing is granted.
//
//	user, err := repo.GetUser(ctx, id, iam.LoadOptions{WithGrants: true})
//
// # Uniqueness
//
// The store is the authority for unique emails, Google ids and role names.
// Violations come back as ErrEmailExists, ErrGoogleIDExists or
// ErrRoleNameExists, all of which wrap ErrConflict.
package iam
