package iam

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Constraint names from migrations/plannr_db.sql
const (
	constraintUserEmail         = "users_email_key"
	constraintUserGoogleID      = "users_google_id_key"
	constraintRoleName          = "roles_role_name_key"
	constraintUserRole          = "users_role_id_fkey"
	constraintUserModifiedBy    = "users_last_modified_by_fkey"
	constraintUserLocalPassword = "users_local_password_check"
)

const (
	userColumns = `id, name, email, password_hash, google_id, avatar_url, auth_provider,
		role_id, status, last_modified_on, last_modified_by, created_at`
	roleColumns = `id, role_name, description, is_active, created_at, modified_at`
)

type scanner interface {
	Scan(dest ...any) error
}

// PostgresIamRepository implements IamRepository using PostgreSQL
type PostgresIamRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresIamRepository creates a new PostgreSQL-based IAM repository
func NewPostgresIamRepository(pool *pgxpool.Pool) *PostgresIamRepository {
	return &PostgresIamRepository{
		pool: pool,
	}
}

// mapPgError translates constraint violations into repository errors
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		switch pgErr.ConstraintName {
		case constraintUserEmail:
			return ErrEmailExists
		case constraintUserGoogleID:
			return ErrGoogleIDExists
		case constraintRoleName:
			return ErrRoleNameExists
		}
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	case "23503": // foreign_key_violation
		switch pgErr.ConstraintName {
		case constraintUserRole:
			return ErrRoleNotFound
		case constraintUserModifiedBy:
			return fmt.Errorf("modifier: %w", ErrUserNotFound)
		}
	case "23514": // check_violation
		if pgErr.ConstraintName == constraintUserLocalPassword {
			return ErrPasswordRequired
		}
	}
	return err
}

func scanUser(row scanner) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.GoogleID,
		&u.AvatarURL,
		&u.AuthProvider,
		&u.RoleID,
		&u.Status,
		&u.LastModifiedOn,
		&u.LastModifiedBy,
		&u.CreatedAt,
	)
	return u, err
}

func scanRole(row scanner) (Role, error) {
	var role Role
	err := row.Scan(
		&role.ID,
		&role.RoleName,
		&role.Description,
		&role.IsActive,
		&role.CreatedAt,
		&role.ModifiedAt,
	)
	return role, err
}

// userResult maps no rows to ErrUserNotFound and constraint violations to repository errors
func userResult(u User, err error) (User, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to query user: %w", mapPgError(err))
	}
	return u, nil
}

func (r *PostgresIamRepository) loadRelations(ctx context.Context, u User, opts LoadOptions) (User, error) {
	if !opts.role() || u.RoleID == nil {
		return u, nil
	}
	role, err := r.GetRole(ctx, *u.RoleID)
	if errors.Is(err, ErrRoleNotFound) {
		// deleted between the two reads; ON DELETE SET NULL will clear role_id
		return u, nil
	}
	if err != nil {
		return User{}, err
	}

	info := &RoleInfo{Role: role}
	if opts.WithGrants {
		items, err := r.FindRolePermissions(ctx, role.ID)
		if err != nil {
			return User{}, err
		}
		info.Grants = Grants{Loaded: true, Items: items}
	}
	u.Role = info
	return u, nil
}

// CreateUser creates a new user
func (r *PostgresIamRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	params = withDefaults(params)
	if err := validateCreateUser(params); err != nil {
		return User{}, err
	}

	query := `
		INSERT INTO users (
			name, email, password_hash, google_id, avatar_url, auth_provider, role_id, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query,
		params.Name,
		params.Email,
		params.PasswordHash,
		params.GoogleID,
		params.AvatarURL,
		params.AuthProvider,
		params.RoleID,
		params.Status,
	))
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", mapPgError(err))
	}
	return user, nil
}

func (r *PostgresIamRepository) getUserBy(ctx context.Context, column string, value any, opts LoadOptions) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	user, err := userResult(scanUser(r.pool.QueryRow(ctx, query, value)))
	if err != nil {
		return User{}, err
	}
	return r.loadRelations(ctx, user, opts)
}

// GetUser gets a user by id
func (r *PostgresIamRepository) GetUser(ctx context.Context, id uuid.UUID, opts LoadOptions) (User, error) {
	return r.getUserBy(ctx, "id", id, opts)
}

// GetUserByEmail gets a user by exact email
func (r *PostgresIamRepository) GetUserByEmail(ctx context.Context, email string, opts LoadOptions) (User, error) {
	return r.getUserBy(ctx, "email", email, opts)
}

// GetUserByGoogleID gets a user by linked Google subject
func (r *PostgresIamRepository) GetUserByGoogleID(ctx context.Context, googleID string, opts LoadOptions) (User, error) {
	return r.getUserBy(ctx, "google_id", googleID, opts)
}

// FindUsers returns all users ordered by name, with their role but not grants
func (r *PostgresIamRepository) FindUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, email`)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}

	roles, err := r.FindRoles(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]Role, len(roles))
	for _, role := range roles {
		byID[role.ID] = role
	}
	for i, u := range users {
		if u.RoleID == nil {
			continue
		}
		if role, ok := byID[*u.RoleID]; ok {
			users[i].Role = &RoleInfo{Role: role}
		}
	}
	return users, nil
}

// UpdateUser updates name and email
func (r *PostgresIamRepository) UpdateUser(ctx context.Context, params UpdateUserParams) (User, error) {
	query := `
		UPDATE users
		SET name = $2, email = $3, last_modified_on = now(), last_modified_by = $4
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := userResult(scanUser(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Email, params.ModifiedBy,
	)))
	if err != nil {
		return User{}, err
	}
	return r.loadRelations(ctx, user, LoadOptions{WithRole: true})
}

// UpdateUserRole assigns or clears a user's role
func (r *PostgresIamRepository) UpdateUserRole(ctx context.Context, params UpdateUserRoleParams) (User, error) {
	query := `
		UPDATE users
		SET role_id = $2, last_modified_on = now(), last_modified_by = $3
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := userResult(scanUser(r.pool.QueryRow(ctx, query,
		params.ID, params.RoleID, params.ModifiedBy,
	)))
	if err != nil {
		return User{}, err
	}
	return r.loadRelations(ctx, user, LoadOptions{WithRole: true})
}

// UpdateUserStatus sets a user's lifecycle status
func (r *PostgresIamRepository) UpdateUserStatus(ctx context.Context, params UpdateUserStatusParams) (User, error) {
	query := `
		UPDATE users
		SET status = $2, last_modified_on = now(), last_modified_by = $3
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := userResult(scanUser(r.pool.QueryRow(ctx, query,
		params.ID, params.Status, params.ModifiedBy,
	)))
	if err != nil {
		return User{}, err
	}
	return r.loadRelations(ctx, user, LoadOptions{WithRole: true})
}

// LinkGoogleAccount links a Google subject and switches the provider to google
func (r *PostgresIamRepository) LinkGoogleAccount(ctx context.Context, params LinkGoogleAccountParams) (User, error) {
	query := `
		UPDATE users
		SET google_id = $2,
			auth_provider = 'google',
			avatar_url = COALESCE(avatar_url, $3),
			last_modified_on = now()
		WHERE id = $1
		RETURNING ` + userColumns

	return userResult(scanUser(r.pool.QueryRow(ctx, query,
		params.ID, params.GoogleID, params.AvatarURL,
	)))
}

// DeleteUser deletes a user. last_modified_by references are cleared by the schema.
func (r *PostgresIamRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindRoles returns all roles ordered by name
func (r *PostgresIamRepository) FindRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY role_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to find roles: %w", err)
	}
	roles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Role, error) {
		return scanRole(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan roles: %w", err)
	}
	return roles, nil
}

// GetRole gets a role by id
func (r *PostgresIamRepository) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrRoleNotFound
	}
	if err != nil {
		return Role{}, fmt.Errorf("failed to get role: %w", err)
	}
	return role, nil
}

// CreateRole creates a role with every catalog permission present and not granted
func (r *PostgresIamRepository) CreateRole(ctx context.Context, params CreateRoleParams) (Role, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Role{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	role, err := scanRole(tx.QueryRow(ctx, `
		INSERT INTO roles (role_name, description, is_active)
		VALUES ($1, $2, $3)
		RETURNING `+roleColumns,
		params.RoleName, params.Description, params.IsActive,
	))
	if err != nil {
		return Role{}, fmt.Errorf("failed to create role: %w", mapPgError(err))
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id, is_granted)
		SELECT $1, id, false FROM permissions
		ON CONFLICT (role_id, permission_id) DO NOTHING`,
		role.ID,
	)
	if err != nil {
		return Role{}, fmt.Errorf("failed to provision role permissions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Role{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return role, nil
}

// UpdateRole updates a role's name, description and active flag
func (r *PostgresIamRepository) UpdateRole(ctx context.Context, params UpdateRoleParams) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `
		UPDATE roles
		SET role_name = $2, description = $3, is_active = $4, modified_at = now()
		WHERE id = $1
		RETURNING `+roleColumns,
		params.ID, params.RoleName, params.Description, params.IsActive,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrRoleNotFound
	}
	if err != nil {
		return Role{}, fmt.Errorf("failed to update role: %w", mapPgError(err))
	}
	return role, nil
}

// DeleteRole deletes a role. Grants cascade and users.role_id is set to NULL.
func (r *PostgresIamRepository) DeleteRole(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// FindPermissions returns the catalog in catalog order
func (r *PostgresIamRepository) FindPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM permissions ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to find permissions: %w", err)
	}
	perms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Permission, error) {
		var p Permission
		err := row.Scan(&p.ID, &p.Name, &p.Description)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan permissions: %w", err)
	}
	return perms, nil
}

func scanRolePermission(row scanner) (RolePermission, error) {
	var rp RolePermission
	err := row.Scan(&rp.ID, &rp.RoleID, &rp.PermissionID, &rp.PermissionName, &rp.IsGranted)
	return rp, err
}

// FindRolePermissions returns the grant rows of a role in catalog order.
// An unknown role yields an empty list.
func (r *PostgresIamRepository) FindRolePermissions(ctx context.Context, roleID uuid.UUID) ([]RolePermission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rp.id, rp.role_id, rp.permission_id, p.name, rp.is_granted
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.sort_order, p.name`,
		roleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find role permissions: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (RolePermission, error) {
		return scanRolePermission(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan role permissions: %w", err)
	}
	return items, nil
}

// SetRolePermissionGrant updates the grant flag of an existing row
func (r *PostgresIamRepository) SetRolePermissionGrant(ctx context.Context, roleID, permissionID uuid.UUID, granted bool) (RolePermission, error) {
	rp, err := scanRolePermission(r.pool.QueryRow(ctx, `
		WITH updated AS (
			UPDATE role_permissions
			SET is_granted = $3
			WHERE role_id = $1 AND permission_id = $2
			RETURNING id, role_id, permission_id, is_granted
		)
		SELECT u.id, u.role_id, u.permission_id, p.name, u.is_granted
		FROM updated u
		JOIN permissions p ON p.id = u.permission_id`,
		roleID, permissionID, granted,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return RolePermission{}, ErrRolePermissionNotFound
	}
	if err != nil {
		return RolePermission{}, fmt.Errorf("failed to update role permission: %w", err)
	}
	return rp, nil
}
