package auth_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	auth "github.com/parleychat/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sqliteCreateRoles = `CREATE TABLE roles (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT,
    level INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP
);`

	sqliteCreatePermissions = `CREATE TABLE permissions (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    category TEXT NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP
);`

	sqliteCreateUserRoles = `CREATE TABLE user_roles (
    id TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    role_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    CONSTRAINT uq_user_roles_edge UNIQUE (user_id, role_id)
);`

	sqliteCreateUserPermissions = `CREATE TABLE user_permissions (
    id TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    permission_id TEXT NOT NULL,
    granted BOOLEAN NOT NULL,
    granted_by TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    CONSTRAINT uq_user_permissions_edge UNIQUE (user_id, permission_id)
);`

	sqliteCreateRolePermissions = `CREATE TABLE role_permissions (
    id TEXT NOT NULL PRIMARY KEY,
    role_id TEXT NOT NULL,
    permission_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    CONSTRAINT uq_role_permissions_edge UNIQUE (role_id, permission_id)
);`
)

func setupRBACStore(t *testing.T) (auth.RBACStore, func()) {
	t.Helper()
	bunDB, cleanup := setupTestDB(t,
		sqliteCreateRoles,
		sqliteCreatePermissions,
		sqliteCreateUserRoles,
		sqliteCreateUserPermissions,
		sqliteCreateRolePermissions,
	)
	return auth.NewRBACRepository(bunDB), cleanup
}

func TestRBACRepositoryRoles(t *testing.T) {
	store, cleanup := setupRBACStore(t)
	defer cleanup()

	ctx := context.Background()

	role := &auth.Role{Name: auth.RoleUser, Description: "default", Level: 1}
	require.NoError(t, store.UpsertRole(ctx, role))

	// Seeding again leaves the stored row untouched.
	require.NoError(t, store.UpsertRole(ctx, &auth.Role{Name: auth.RoleUser, Description: "changed", Level: 9}))

	found, err := store.GetRoleByName(ctx, auth.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, role.ID, found.ID)
	assert.Equal(t, "default", found.Description)
	assert.Equal(t, 1, found.Level)

	_, err = store.GetRoleByName(ctx, "NOPE")
	assert.ErrorIs(t, err, auth.ErrPermissionNotFound)
}

func TestRBACRepositoryPermissions(t *testing.T) {
	store, cleanup := setupRBACStore(t)
	defer cleanup()

	ctx := context.Background()

	perm := &auth.Permission{Name: auth.PermMessageSend, Category: "message"}
	require.NoError(t, store.UpsertPermission(ctx, perm))
	require.NoError(t, store.UpsertPermission(ctx, &auth.Permission{Name: auth.PermMessageSend, Category: "other"}))

	found, err := store.GetPermissionByName(ctx, auth.PermMessageSend)
	require.NoError(t, err)
	assert.Equal(t, perm.ID, found.ID)
	assert.Equal(t, "message", found.Category)

	_, err = store.GetPermissionByName(ctx, "nope:nothing")
	assert.ErrorIs(t, err, auth.ErrPermissionNotFound)
}

func TestRBACRepositoryUserRoleEdges(t *testing.T) {
	store, cleanup := setupRBACStore(t)
	defer cleanup()

	ctx := context.Background()
	userID := uuid.New()

	role := &auth.Role{Name: auth.RoleUser, Level: 1}
	require.NoError(t, store.UpsertRole(ctx, role))

	require.NoError(t, store.UpsertUserRole(ctx, userID, role.ID))
	require.NoError(t, store.UpsertUserRole(ctx, userID, role.ID))

	edges, err := store.ListUserRoles(ctx, userID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.NotNil(t, edges[0].Role)
	assert.Equal(t, auth.RoleUser, edges[0].Role.Name)

	edges, err = store.ListUserRoles(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestRBACRepositoryConcurrentUserRoleUpsert(t *testing.T) {
	store, cleanup := setupRBACStore(t)
	defer cleanup()

	ctx := context.Background()
	userID := uuid.New()

	role := &auth.Role{Name: auth.RoleUser, Level: 1}
	require.NoError(t, store.UpsertRole(ctx, role))

	// Concurrent assignment races land on the unique pair constraint;
	// ON CONFLICT leaves exactly one edge.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.UpsertUserRole(ctx, userID, role.ID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	edges, err := store.ListUserRoles(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestRBACRepositoryRolePermissionEdges(t *testing.T) {
	store, cleanup := setupRBACStore(t)
	defer cleanup()

	ctx := context.Background()

	role := &auth.Role{Name: auth.RoleUser, Level: 1}
	require.NoError(t, store.UpsertRole(ctx, role))

	perm := &auth.Permission{Name: auth.PermMessageSend, Category: "message"}
	require.NoError(t, store.UpsertPermission(ctx, perm))

	require.NoError(t, store.UpsertRolePermission(ctx, role.ID, perm.ID))
	require.NoError(t, store.UpsertRolePermission(ctx, role.ID, perm.ID))

	edges, err := store.ListRolePermissions(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.NotNil(t, edges[0].Permission)
	assert.Equal(t, auth.PermMessageSend, edges[0].Permission.Name)
}

func TestRBACRepositoryUserPermissionOverrides(t *testing.T) {
	store, cleanup := setupRBACStore(t)
	defer cleanup()

	ctx := context.Background()
	userID := uuid.New()

	perm := &auth.Permission{Name: auth.PermRoomCreate, Category: "room"}
	require.NoError(t, store.UpsertPermission(ctx, perm))

	require.NoError(t, store.UpsertUserPermission(ctx, &auth.UserPermission{
		UserID:       userID,
		PermissionID: perm.ID,
		Granted:      true,
		GrantedBy:    "admin-1",
	}))

	edges, err := store.ListUserPermissions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Granted)

	// A second write for the same pair replaces the flag instead of
	// adding a row.
	require.NoError(t, store.UpsertUserPermission(ctx, &auth.UserPermission{
		UserID:       userID,
		PermissionID: perm.ID,
		Granted:      false,
		GrantedBy:    "admin-2",
	}))

	edges, err = store.ListUserPermissions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.False(t, edges[0].Granted)
	assert.Equal(t, "admin-2", edges[0].GrantedBy)
	require.NotNil(t, edges[0].Permission)
	assert.Equal(t, auth.PermRoomCreate, edges[0].Permission.Name)
}
