package iam

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// iamData holds every record of the in-memory and file backends
type iamData struct {
	Users           map[uuid.UUID]User           `json:"users"`
	Roles           map[uuid.UUID]Role           `json:"roles"`
	Permissions     map[uuid.UUID]Permission     `json:"permissions"`
	RolePermissions map[uuid.UUID]RolePermission `json:"role_permissions"`
}

func newIamData() *iamData {
	d := &iamData{}
	d.init()
	return d
}

func (d *iamData) init() {
	if d.Users == nil {
		d.Users = make(map[uuid.UUID]User)
	}
	if d.Roles == nil {
		d.Roles = make(map[uuid.UUID]Role)
	}
	if d.Permissions == nil {
		d.Permissions = make(map[uuid.UUID]Permission)
	}
	if d.RolePermissions == nil {
		d.RolePermissions = make(map[uuid.UUID]RolePermission)
	}
}

// ensureCatalog adds any catalog permission that is missing
func (d *iamData) ensureCatalog() {
	for _, p := range catalog {
		if _, ok := d.permissionByName(p.Name); ok {
			continue
		}
		p.ID = uuid.New()
		d.Permissions[p.ID] = p
	}
}

func (d *iamData) permissionByName(name string) (Permission, bool) {
	for _, p := range d.Permissions {
		if p.Name == name {
			return p, true
		}
	}
	return Permission{}, false
}

func (d *iamData) userByEmail(email string) (User, bool) {
	for _, u := range d.Users {
		if u.Email == email {
			return u, true
		}
	}
	return User{}, false
}

func (d *iamData) userByGoogleID(googleID string) (User, bool) {
	for _, u := range d.Users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, true
		}
	}
	return User{}, false
}

func (d *iamData) roleByName(name string) (Role, bool) {
	for _, r := range d.Roles {
		if r.RoleName == name {
			return r, true
		}
	}
	return Role{}, false
}

func (d *iamData) rolePermissions(roleID uuid.UUID) []RolePermission {
	items := make([]RolePermission, 0, len(catalog))
	for _, rp := range d.RolePermissions {
		if rp.RoleID == roleID {
			items = append(items, rp)
		}
	}
	slices.SortFunc(items, func(a, b RolePermission) int {
		return cmp.Compare(catalogRank(a.PermissionName), catalogRank(b.PermissionName))
	})
	return items
}

// provisionGrants adds a row for every permission the role does not have yet
func (d *iamData) provisionGrants(roleID uuid.UUID, granted []string) {
	existing := make(map[uuid.UUID]bool)
	for _, rp := range d.RolePermissions {
		if rp.RoleID == roleID {
			existing[rp.PermissionID] = true
		}
	}
	for _, p := range d.Permissions {
		if existing[p.ID] {
			continue
		}
		rp := RolePermission{
			ID:             uuid.New(),
			RoleID:         roleID,
			PermissionID:   p.ID,
			PermissionName: p.Name,
			IsGranted:      slices.Contains(granted, p.Name),
		}
		d.RolePermissions[rp.ID] = rp
	}
}

func catalogRank(name string) int {
	if i := CatalogIndex(name); i >= 0 {
		return i
	}
	return len(catalog)
}

// snapshotter persists the data set after every mutation
type snapshotter interface {
	save(data *iamData) error
	load() (*iamData, error)
}

// InMemoryIamRepository implements IamRepository using in-memory storage
type InMemoryIamRepository struct {
	mu    sync.RWMutex
	data  *iamData
	store snapshotter
	now   func() time.Time
}

// NewInMemoryIamRepository creates a repository holding the permission
// catalog and nothing else. Call Seed to add the default roles.
func NewInMemoryIamRepository() *InMemoryIamRepository {
	data := newIamData()
	data.ensureCatalog()
	return &InMemoryIamRepository{
		data: data,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// commit persists the current state. On failure the last saved state is restored.
func (r *InMemoryIamRepository) commit() error {
	if r.store == nil {
		return nil
	}
	if err := r.store.save(r.data); err != nil {
		if prev, loadErr := r.store.load(); loadErr == nil {
			prev.ensureCatalog()
			r.data = prev
		} else {
			slog.Error("Failed to restore iam data after save error", "err", loadErr)
		}
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// Seed provisions the catalog and the default roles. Existing roles keep
// their grants. Safe to call on every start.
func (r *InMemoryIamRepository) Seed(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data.ensureCatalog()
	now := r.now()
	for _, seed := range SeedRoles {
		role, ok := r.data.roleByName(seed.Name)
		if !ok {
			desc := seed.Description
			role = Role{
				ID:          uuid.New(),
				RoleName:    seed.Name,
				Description: &desc,
				IsActive:    true,
				CreatedAt:   now,
				ModifiedAt:  now,
			}
			r.data.Roles[role.ID] = role
		}
		r.data.provisionGrants(role.ID, seed.Grants)
	}
	return r.commit()
}

func (r *InMemoryIamRepository) withRelations(u User, opts LoadOptions) User {
	if !opts.role() || u.RoleID == nil {
		return u
	}
	role, ok := r.data.Roles[*u.RoleID]
	if !ok {
		return u
	}
	info := &RoleInfo{Role: role}
	if opts.WithGrants {
		info.Grants = Grants{Loaded: true, Items: r.data.rolePermissions(role.ID)}
	}
	u.Role = info
	return u
}

func (r *InMemoryIamRepository) checkModifier(id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, ok := r.data.Users[*id]; !ok {
		return fmt.Errorf("modifier %s: %w", id, ErrUserNotFound)
	}
	return nil
}

// CreateUser creates a new user
func (r *InMemoryIamRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	params = withDefaults(params)
	if err := validateCreateUser(params); err != nil {
		return User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data.userByEmail(params.Email); ok {
		return User{}, ErrEmailExists
	}
	if params.GoogleID != nil {
		if _, ok := r.data.userByGoogleID(*params.GoogleID); ok {
			return User{}, ErrGoogleIDExists
		}
	}
	if params.RoleID != nil {
		if _, ok := r.data.Roles[*params.RoleID]; !ok {
			return User{}, ErrRoleNotFound
		}
	}

	now := r.now()
	user := User{
		ID:             uuid.New(),
		Name:           params.Name,
		Email:          params.Email,
		PasswordHash:   params.PasswordHash,
		GoogleID:       params.GoogleID,
		AvatarURL:      params.AvatarURL,
		AuthProvider:   params.AuthProvider,
		RoleID:         params.RoleID,
		Status:         params.Status,
		LastModifiedOn: now,
		CreatedAt:      now,
	}
	r.data.Users[user.ID] = user
	if err := r.commit(); err != nil {
		return User{}, err
	}
	return user, nil
}

// GetUser gets a user by id
func (r *InMemoryIamRepository) GetUser(ctx context.Context, id uuid.UUID, opts LoadOptions) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.data.Users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return r.withRelations(user, opts), nil
}

// GetUserByEmail gets a user by exact email
func (r *InMemoryIamRepository) GetUserByEmail(ctx context.Context, email string, opts LoadOptions) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.data.userByEmail(email)
	if !ok {
		return User{}, ErrUserNotFound
	}
	return r.withRelations(user, opts), nil
}

// GetUserByGoogleID gets a user by linked Google subject
func (r *InMemoryIamRepository) GetUserByGoogleID(ctx context.Context, googleID string, opts LoadOptions) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.data.userByGoogleID(googleID)
	if !ok {
		return User{}, ErrUserNotFound
	}
	return r.withRelations(user, opts), nil
}

// FindUsers returns all users ordered by name, with their role but not grants
func (r *InMemoryIamRepository) FindUsers(ctx context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.data.Users))
	for _, u := range r.data.Users {
		users = append(users, r.withRelations(u, LoadOptions{WithRole: true}))
	}
	slices.SortFunc(users, func(a, b User) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Email, b.Email)
	})
	return users, nil
}

// UpdateUser updates name and email
func (r *InMemoryIamRepository) UpdateUser(ctx context.Context, params UpdateUserParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.data.Users[params.ID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	if other, ok := r.data.userByEmail(params.Email); ok && other.ID != user.ID {
		return User{}, ErrEmailExists
	}
	if err := r.checkModifier(params.ModifiedBy); err != nil {
		return User{}, err
	}

	user.Name = params.Name
	user.Email = params.Email
	user.LastModifiedOn = r.now()
	user.LastModifiedBy = params.ModifiedBy
	r.data.Users[user.ID] = user
	if err := r.commit(); err != nil {
		return User{}, err
	}
	return r.withRelations(user, LoadOptions{WithRole: true}), nil
}

// UpdateUserRole assigns or clears a user's role
func (r *InMemoryIamRepository) UpdateUserRole(ctx context.Context, params UpdateUserRoleParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.data.Users[params.ID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	if params.RoleID != nil {
		if _, ok := r.data.Roles[*params.RoleID]; !ok {
			return User{}, ErrRoleNotFound
		}
	}
	if err := r.checkModifier(params.ModifiedBy); err != nil {
		return User{}, err
	}

	user.RoleID = params.RoleID
	user.LastModifiedOn = r.now()
	user.LastModifiedBy = params.ModifiedBy
	r.data.Users[user.ID] = user
	if err := r.commit(); err != nil {
		return User{}, err
	}
	return r.withRelations(user, LoadOptions{WithRole: true}), nil
}

// UpdateUserStatus sets a user's lifecycle status
func (r *InMemoryIamRepository) UpdateUserStatus(ctx context.Context, params UpdateUserStatusParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.data.Users[params.ID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	if err := r.checkModifier(params.ModifiedBy); err != nil {
		return User{}, err
	}

	user.Status = params.Status
	user.LastModifiedOn = r.now()
	user.LastModifiedBy = params.ModifiedBy
	r.data.Users[user.ID] = user
	if err := r.commit(); err != nil {
		return User{}, err
	}
	return r.withRelations(user, LoadOptions{WithRole: true}), nil
}

// LinkGoogleAccount links a Google subject and switches the provider to google
func (r *InMemoryIamRepository) LinkGoogleAccount(ctx context.Context, params LinkGoogleAccountParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.data.Users[params.ID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	if other, ok := r.data.userByGoogleID(params.GoogleID); ok && other.ID != user.ID {
		return User{}, ErrGoogleIDExists
	}

	googleID := params.GoogleID
	user.GoogleID = &googleID
	user.AuthProvider = ProviderGoogle
	if user.AvatarURL == nil && params.AvatarURL != nil {
		avatar := *params.AvatarURL
		user.AvatarURL = &avatar
	}
	user.LastModifiedOn = r.now()
	r.data.Users[user.ID] = user
	if err := r.commit(); err != nil {
		return User{}, err
	}
	return user, nil
}

// DeleteUser deletes a user and clears last-modified references to it
func (r *InMemoryIamRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data.Users[id]; !ok {
		return ErrUserNotFound
	}
	delete(r.data.Users, id)
	for uid, u := range r.data.Users {
		if u.LastModifiedBy != nil && *u.LastModifiedBy == id {
			u.LastModifiedBy = nil
			r.data.Users[uid] = u
		}
	}
	return r.commit()
}

// FindRoles returns all roles ordered by name
func (r *InMemoryIamRepository) FindRoles(ctx context.Context) ([]Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]Role, 0, len(r.data.Roles))
	for _, role := range r.data.Roles {
		roles = append(roles, role)
	}
	slices.SortFunc(roles, func(a, b Role) int {
		return cmp.Compare(a.RoleName, b.RoleName)
	})
	return roles, nil
}

// GetRole gets a role by id
func (r *InMemoryIamRepository) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.data.Roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return role, nil
}

// CreateRole creates a role with every catalog permission present and not granted
func (r *InMemoryIamRepository) CreateRole(ctx context.Context, params CreateRoleParams) (Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data.roleByName(params.RoleName); ok {
		return Role{}, ErrRoleNameExists
	}

	now := r.now()
	role := Role{
		ID:          uuid.New(),
		RoleName:    params.RoleName,
		Description: params.Description,
		IsActive:    params.IsActive,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	r.data.Roles[role.ID] = role
	r.data.provisionGrants(role.ID, nil)
	if err := r.commit(); err != nil {
		return Role{}, err
	}
	return role, nil
}

// UpdateRole updates a role's name, description and active flag
func (r *InMemoryIamRepository) UpdateRole(ctx context.Context, params UpdateRoleParams) (Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	role, ok := r.data.Roles[params.ID]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	if other, ok := r.data.roleByName(params.RoleName); ok && other.ID != role.ID {
		return Role{}, ErrRoleNameExists
	}

	role.RoleName = params.RoleName
	role.Description = params.Description
	role.IsActive = params.IsActive
	role.ModifiedAt = r.now()
	r.data.Roles[role.ID] = role
	if err := r.commit(); err != nil {
		return Role{}, err
	}
	return role, nil
}

// DeleteRole deletes a role and its grants. Users holding it end up with no role.
func (r *InMemoryIamRepository) DeleteRole(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data.Roles[id]; !ok {
		return ErrRoleNotFound
	}
	delete(r.data.Roles, id)
	for rpID, rp := range r.data.RolePermissions {
		if rp.RoleID == id {
			delete(r.data.RolePermissions, rpID)
		}
	}
	for uid, u := range r.data.Users {
		if u.RoleID != nil && *u.RoleID == id {
			u.RoleID = nil
			r.data.Users[uid] = u
		}
	}
	return r.commit()
}

// FindPermissions returns the catalog in catalog order
func (r *InMemoryIamRepository) FindPermissions(ctx context.Context) ([]Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	perms := make([]Permission, 0, len(r.data.Permissions))
	for _, p := range r.data.Permissions {
		perms = append(perms, p)
	}
	slices.SortFunc(perms, func(a, b Permission) int {
		return cmp.Compare(catalogRank(a.Name), catalogRank(b.Name))
	})
	return perms, nil
}

// FindRolePermissions returns the grant rows of a role in catalog order.
// An unknown role yields an empty list.
func (r *InMemoryIamRepository) FindRolePermissions(ctx context.Context, roleID uuid.UUID) ([]RolePermission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.data.rolePermissions(roleID), nil
}

// SetRolePermissionGrant updates the grant flag of an existing row
func (r *InMemoryIamRepository) SetRolePermissionGrant(ctx context.Context, roleID, permissionID uuid.UUID, granted bool) (RolePermission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rp := range r.data.RolePermissions {
		if rp.RoleID != roleID || rp.PermissionID != permissionID {
			continue
		}
		rp.IsGranted = granted
		r.data.RolePermissions[id] = rp
		if err := r.commit(); err != nil {
			return RolePermission{}, err
		}
		return rp, nil
	}
	return RolePermission{}, ErrRolePermissionNotFound
}
