package iam

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func localUser(name, email string) CreateUserParams {
	return CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: strPtr("$2a$10$hash"),
		AuthProvider: ProviderLocal,
	}
}

func seededRepo(t *testing.T) *InMemoryIamRepository {
	t.Helper()
	repo := NewInMemoryIamRepository()
	require.NoError(t, repo.Seed(context.Background()))
	return repo
}

func roleByName(t *testing.T, repo IamRepository, name string) Role {
	t.Helper()
	roles, err := repo.FindRoles(context.Background())
	require.NoError(t, err)
	for _, r := range roles {
		if r.RoleName == name {
			return r
		}
	}
	t.Fatalf("role %s not found", name)
	return Role{}
}

func TestInMemoryIamRepository_CreateUser(t *testing.T) {
	repo := seededRepo(t)
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		user, err := repo.CreateUser(ctx, CreateUserParams{
			Name:         "Ada",
			Email:        "ada@example.com",
			PasswordHash: strPtr("hash"),
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, ProviderLocal, user.AuthProvider)
		assert.Equal(t, StatusActive, user.Status)
		assert.Nil(t, user.RoleID)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := repo.CreateUser(ctx, localUser("Other", "ada@example.com"))
		assert.ErrorIs(t, err, ErrEmailExists)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("EmailIsCaseSensitive", func(t *testing.T) {
		_, err := repo.CreateUser(ctx, localUser("Ada Upper", "ADA@example.com"))
		assert.NoError(t, err)
	})

	t.Run("LocalRequiresPassword", func(t *testing.T) {
		_, err := repo.CreateUser(ctx, CreateUserParams{Name: "NoPass", Email: "nopass@example.com"})
		assert.ErrorIs(t, err, ErrPasswordRequired)
	})

	t.Run("GoogleWithoutPassword", func(t *testing.T) {
		user, err := repo.CreateUser(ctx, CreateUserParams{
			Name:         "Grace",
			Email:        "grace@example.com",
			GoogleID:     strPtr("google-1"),
			AuthProvider: ProviderGoogle,
		})
		require.NoError(t, err)
		assert.Nil(t, user.PasswordHash)
	})

	t.Run("DuplicateGoogleID", func(t *testing.T) {
		_, err := repo.CreateUser(ctx, CreateUserParams{
			Name:         "Grace Again",
			Email:        "grace2@example.com",
			GoogleID:     strPtr("google-1"),
			AuthProvider: ProviderGoogle,
		})
		assert.ErrorIs(t, err, ErrGoogleIDExists)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		params := localUser("Role", "role@example.com")
		missing := uuid.New()
		params.RoleID = &missing
		_, err := repo.CreateUser(ctx, params)
		assert.ErrorIs(t, err, ErrRoleNotFound)
	})
}

func TestInMemoryIamRepository_ConcurrentRegistration(t *testing.T) {
	repo := seededRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var created, conflicts atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateUser(ctx, localUser("Racer", "race@example.com"))
			if err == nil {
				created.Add(1)
			} else if assert.ErrorIs(t, err, ErrConflict) {
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(19), conflicts.Load())
}

func TestInMemoryIamRepository_LoadOptions(t *testing.T) {
	repo := seededRepo(t)
	ctx := context.Background()
	viewer := roleByName(t, repo, "PROJECT_VIEWER")

	params := localUser("Viewer", "viewer@example.com")
	params.RoleID = &viewer.ID
	user, err := repo.CreateUser(ctx, params)
	require.NoError(t, err)

	t.Run("NoRelations", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.ID, LoadOptions{})
		require.NoError(t, err)
		assert.Nil(t, got.Role)
		assert.Equal(t, &viewer.ID, got.RoleID)
	})

	t.Run("RoleOnly", func(t *testing.T) {
		got, err := repo.GetUserByEmail(ctx, "viewer@example.com", LoadOptions{WithRole: true})
		require.NoError(t, err)
		require.NotNil(t, got.Role)
		assert.Equal(t, "PROJECT_VIEWER", got.Role.RoleName)
		assert.False(t, got.Role.Grants.Loaded)
		assert.Empty(t, got.Role.Grants.Items)
	})

	t.Run("WithGrants", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.ID, LoadOptions{WithGrants: true})
		require.NoError(t, err)
		require.NotNil(t, got.Role)
		require.True(t, got.Role.Grants.Loaded)
		require.Len(t, got.Role.Grants.Items, 12)

		for i, name := range Catalog() {
			assert.Equal(t, name, got.Role.Grants.Items[i].PermissionName)
		}
		granted := map[string]bool{}
		for _, rp := range got.Role.Grants.Items {
			granted[rp.PermissionName] = rp.IsGranted
		}
		assert.True(t, granted[PermTaskRead])
		assert.False(t, granted[PermTaskWrite])
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.GetUser(ctx, uuid.New(), LoadOptions{})
		assert.ErrorIs(t, err, ErrUserNotFound)
		_, err = repo.GetUserByEmail(ctx, "nobody@example.com", LoadOptions{})
		assert.ErrorIs(t, err, ErrUserNotFound)
		_, err = repo.GetUserByGoogleID(ctx, "nobody", LoadOptions{})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestInMemoryIamRepository_Seed(t *testing.T) {
	repo := seededRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Seed(ctx), "seeding twice must be a no-op")

	roles, err := repo.FindRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 4)
	assert.Equal(t, "PROJECT_ADMIN", roles[0].RoleName)

	perms, err := repo.FindPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, 12)

	expected := map[string]int{
		"PROJECT_ADMIN":     12,
		"PROJECT_MANAGER":   9,
		"PROJECT_DEVELOPER": 6,
		"PROJECT_VIEWER":    4,
	}
	for _, role := range roles {
		items, err := repo.FindRolePermissions(ctx, role.ID)
		require.NoError(t, err)
		assert.Len(t, items, 12, role.RoleName)

		count := 0
		for _, rp := range items {
			if rp.IsGranted {
				count++
			}
		}
		assert.Equal(t, expected[role.RoleName], count, role.RoleName)
	}
}

func TestInMemoryIamRepository_UpdateUser(t *testing.T) {
	repo := seededRepo(t)
	ctx := context.Background()

	admin, err := repo.CreateUser(ctx, localUser("Admin", "admin@example.com"))
	require.NoError(t, err)
	user, err := repo.CreateUser(ctx, localUser("User", "user@example.com"))
	require.NoError(t, err)
	manager := roleByName(t, repo, "PROJECT_MANAGER")

	t.Run("Profile", func(t *testing.T) {
		updated, err := repo.UpdateUser(ctx, UpdateUserParams{
			ID: user.ID, Name: "Renamed", Email: "renamed@example.com", ModifiedBy: &admin.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, "renamed@example.com", updated.Email)
		assert.Equal(t, &admin.ID, updated.LastModifiedBy)
		assert.False(t, updated.LastModifiedOn.Before(user.LastModifiedOn))
	})

	t.Run("EmailTaken", func(t *testing.T) {
		_, err := repo.UpdateUser(ctx, UpdateUserParams{ID: user.ID, Name: "X", Email: "admin@example.com"})
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("Role", func(t *testing.T) {
		updated, err := repo.UpdateUserRole(ctx, UpdateUserRoleParams{ID: user.ID, RoleID: &manager.ID, ModifiedBy: &admin.ID})
		require.NoError(t, err)
		require.NotNil(t, updated.Role)
		assert.Equal(t, "PROJECT_MANAGER", updated.Role.RoleName)

		cleared, err := repo.UpdateUserRole(ctx, UpdateUserRoleParams{ID: user.ID})
		require.NoError(t, err)
		assert.Nil(t, cleared.RoleID)
		assert.Nil(t, cleared.Role)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		missing := uuid.New()
		_, err := repo.UpdateUserRole(ctx, UpdateUserRoleParams{ID: user.ID, RoleID: &missing})
		assert.ErrorIs(t, err, ErrRoleNotFound)
	})

	t.Run("Status", func(t *testing.T) {
		updated, err := repo.UpdateUserStatus(ctx, UpdateUserStatusParams{ID: user.ID, Status: StatusInactive})
		require.NoError(t, err)
		assert.Equal(t, StatusInactive, updated.Status)
	})

	t.Run("UnknownModifier", func(t *testing.T) {
		ghost := uuid.New()
		_, err := repo.UpdateUserStatus(ctx, UpdateUserStatusParams{ID: user.ID, Status: StatusActive, ModifiedBy: &ghost})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("DeleteModifierClearsReference", func(t *testing.T) {
		updated, err := repo.UpdateUserStatus(ctx, UpdateUserStatusParams{ID: user.ID, Status: StatusActive, ModifiedBy: &admin.ID})
		require.NoError(t, err)
		require.Equal(t, &admin.ID, updated.LastModifiedBy)

		require.NoError(t, repo.DeleteUser(ctx, admin.ID))
		got, err := repo.GetUser(ctx, user.ID, LoadOptions{})
		require.NoError(t, err)
		assert.Nil(t, got.LastModifiedBy)

		assert.ErrorIs(t, repo.DeleteUser(ctx, admin.ID), ErrUserNotFound)
	})
}

func TestInMemoryIamRepository_LinkGoogleAccount(t *testing.T) {
	repo := seededRepo(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, localUser("Local", "local@example.com"))
	require.NoError(t, err)

	linked, err := repo.LinkGoogleAccount(ctx, LinkGoogleAccountParams{
		ID: user.ID, GoogleID: "g-123", AvatarURL: strPtr("https://img/1.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, linked.AuthProvider)
	assert.Equal(t, "g-123", *linked.GoogleID)
	assert.Equal(t, "https://img/1.png", *linked.AvatarURL)
	assert.NotNil(t, linked.PasswordHash, "password hash is kept")

	relinked, err := repo.LinkGoogleAccount(ctx, LinkGoogleAccountParams{
		ID: user.ID, GoogleID: "g-123", AvatarURL: strPtr("https://img/2.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://img/1.png", *relinked.AvatarURL, "existing avatar is not replaced")

	other, err := repo.CreateUser(ctx, localUser("Other", "other@example.com"))
	require.NoError(t, err)
	_, err = repo.LinkGoogleAccount(ctx, LinkGoogleAccountParams{ID: other.ID, GoogleID: "g-123"})
	assert.ErrorIs(t, err, ErrGoogleIDExists)
}

func TestInMemoryIamRepository_Roles(t *testing.T) {
	repo := seededRepo(t)
	ctx := context.Background()

	role, err := repo.CreateRole(ctx, CreateRoleParams{RoleName: "QA", IsActive: true})
	require.NoError(t, err)

	t.Run("ProvisionedWithoutGrants", func(t *testing.T) {
		items, err := repo.FindRolePermissions(ctx, role.ID)
		require.NoError(t, err)
		require.Len(t, items, 12)
		for _, rp := range items {
			assert.False(t, rp.IsGranted, rp.PermissionName)
		}
	})

	t.Run("DuplicateName", func(t *testing.T) {
		_, err := repo.CreateRole(ctx, CreateRoleParams{RoleName: "QA"})
		assert.ErrorIs(t, err, ErrRoleNameExists)
		_, err = repo.UpdateRole(ctx, UpdateRoleParams{ID: role.ID, RoleName: "PROJECT_ADMIN"})
		assert.ErrorIs(t, err, ErrRoleNameExists)
	})

	t.Run("Update", func(t *testing.T) {
		updated, err := repo.UpdateRole(ctx, UpdateRoleParams{ID: role.ID, RoleName: "QA", Description: strPtr("Testers")})
		require.NoError(t, err)
		assert.Equal(t, "Testers", *updated.Description)
		assert.False(t, updated.IsActive)
	})

	t.Run("ToggleGrant", func(t *testing.T) {
		perms, err := repo.FindPermissions(ctx)
		require.NoError(t, err)
		taskWrite := perms[CatalogIndex(PermTaskWrite)]

		rp, err := repo.SetRolePermissionGrant(ctx, role.ID, taskWrite.ID, true)
		require.NoError(t, err)
		assert.Equal(t, PermTaskWrite, rp.PermissionName)
		assert.True(t, rp.IsGranted)

		_, err = repo.SetRolePermissionGrant(ctx, role.ID, uuid.New(), true)
		assert.ErrorIs(t, err, ErrRolePermissionNotFound)
	})

	t.Run("DeleteClearsUsers", func(t *testing.T) {
		params := localUser("Tester", "tester@example.com")
		params.RoleID = &role.ID
		user, err := repo.CreateUser(ctx, params)
		require.NoError(t, err)

		require.NoError(t, repo.DeleteRole(ctx, role.ID))

		got, err := repo.GetUser(ctx, user.ID, LoadOptions{WithGrants: true})
		require.NoError(t, err)
		assert.Nil(t, got.RoleID)
		assert.Nil(t, got.Role)

		items, err := repo.FindRolePermissions(ctx, role.ID)
		require.NoError(t, err)
		assert.Empty(t, items)

		_, err = repo.GetRole(ctx, role.ID)
		assert.ErrorIs(t, err, ErrRoleNotFound)
		assert.ErrorIs(t, repo.DeleteRole(ctx, role.ID), ErrRoleNotFound)
	})
}

func TestInMemoryIamRepository_FindUsers(t *testing.T) {
	repo := seededRepo(t)
	ctx := context.Background()

	for _, name := range []string{"Charlie", "Alice", "Bob"} {
		_, err := repo.CreateUser(ctx, localUser(name, name+"@example.com"))
		require.NoError(t, err)
	}

	users, err := repo.FindUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "Alice", users[0].Name)
	assert.Equal(t, "Bob", users[1].Name)
	assert.Equal(t, "Charlie", users[2].Name)
}

func TestToUserOut(t *testing.T) {
	roleID := uuid.New()
	user := User{
		ID:     uuid.New(),
		Name:   "Ada",
		Email:  "ada@example.com",
		RoleID: &roleID,
		Role:   &RoleInfo{Role: Role{ID: roleID, RoleName: "PROJECT_VIEWER"}},
	}

	out := ToUserOut(user)
	require.NotNil(t, out.RoleName)
	assert.Equal(t, "PROJECT_VIEWER", *out.RoleName)

	user.Role = nil
	assert.Nil(t, ToUserOut(user).RoleName)
}
