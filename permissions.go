package auth

import (
	"context"
	"sort"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PermissionService computes effective roles and permission sets and
// owns the one-shot seeding of the default catalog.
type PermissionService struct {
	users  UserStore
	rbac   RBACStore
	logger Logger
}

// NewPermissionService creates a resolver over the given stores.
func NewPermissionService(users UserStore, rbac RBACStore) *PermissionService {
	return &PermissionService{
		users:  users,
		rbac:   rbac,
		logger: defLogger{},
	}
}

// WithLogger sets the service logger
func (s *PermissionService) WithLogger(logger Logger) *PermissionService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// GetUserRole returns the name of the user's highest-level role, or the
// empty string when no role is assigned. On equal levels the
// lexicographically smallest name wins, so the result is deterministic.
func (s *PermissionService) GetUserRole(ctx context.Context, userID string) (string, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return "", ErrUserNotFound
	}

	assignments, err := s.rbac.ListUserRoles(ctx, uid)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user roles")
	}

	var best *Role
	for _, edge := range assignments {
		if edge.Role == nil {
			continue
		}
		if best == nil ||
			edge.Role.Level > best.Level ||
			(edge.Role.Level == best.Level && edge.Role.Name < best.Name) {
			best = edge.Role
		}
	}

	if best == nil {
		return "", nil
	}

	return best.Name, nil
}

// GetUserPermissions returns the sorted effective permission set: the
// union of every assigned role's baseline, with granted=true overrides
// added and granted=false overrides removed.
func (s *PermissionService) GetUserPermissions(ctx context.Context, userID string) ([]string, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	assignments, err := s.rbac.ListUserRoles(ctx, uid)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user roles")
	}

	effective := map[string]bool{}
	for _, edge := range assignments {
		rolePerms, err := s.rbac.ListRolePermissions(ctx, edge.RoleID)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load role permissions")
		}
		for _, rp := range rolePerms {
			if rp.Permission != nil {
				effective[rp.Permission.Name] = true
			}
		}
	}

	overrides, err := s.rbac.ListUserPermissions(ctx, uid)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user permission overrides")
	}

	for _, override := range overrides {
		if override.Permission == nil {
			continue
		}
		if override.Granted {
			effective[override.Permission.Name] = true
		} else {
			delete(effective, override.Permission.Name)
		}
	}

	names := make([]string, 0, len(effective))
	for name := range effective {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// ResolveAccess loads role and permissions concurrently. The two
// lookups are independent so they share an errgroup.
func (s *PermissionService) ResolveAccess(ctx context.Context, userID string) (string, []string, error) {
	var (
		role        string
		permissions []string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := s.GetUserRole(gctx, userID)
		if err != nil {
			return err
		}
		role = r
		return nil
	})

	g.Go(func() error {
		p, err := s.GetUserPermissions(gctx, userID)
		if err != nil {
			return err
		}
		permissions = p
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", nil, err
	}

	return role, permissions, nil
}

// AssignDefaultRole gives the user the USER role. The edge upsert is
// idempotent, repeat or concurrent calls leave exactly one edge.
func (s *PermissionService) AssignDefaultRole(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return ErrUserNotFound
	}

	role, err := s.rbac.GetRoleByName(ctx, RoleUser)
	if err != nil {
		return err
	}

	if err := s.rbac.UpsertUserRole(ctx, uid, role.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to assign default role")
	}

	s.logger.Info("assigned %s role to user %s", RoleUser, userID)
	return nil
}

// GrantPermissions upserts granted=true overrides for each named
// permission. Application is per-name, an unknown name fails the batch
// at that point and earlier writes stand.
func (s *PermissionService) GrantPermissions(ctx context.Context, userID string, names []string, grantedBy string) error {
	return s.writeOverrides(ctx, userID, names, grantedBy, true)
}

// RevokePermissions upserts granted=false overrides for each named
// permission. Same partial-application caveat as GrantPermissions.
func (s *PermissionService) RevokePermissions(ctx context.Context, userID string, names []string, revokedBy string) error {
	return s.writeOverrides(ctx, userID, names, revokedBy, false)
}

func (s *PermissionService) writeOverrides(ctx context.Context, userID string, names []string, actor string, granted bool) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return ErrUserNotFound
	}

	for _, name := range names {
		permission, err := s.rbac.GetPermissionByName(ctx, name)
		if err != nil {
			return ErrPermissionNotFound.Clone().WithMetadata(map[string]any{
				"permission": name,
			})
		}

		edge := &UserPermission{
			UserID:       uid,
			PermissionID: permission.ID,
			Granted:      granted,
			GrantedBy:    actor,
		}

		if err := s.rbac.UpsertUserPermission(ctx, edge); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write permission override")
		}
	}

	if granted {
		s.logger.Info("granted permissions to user %s: %v", userID, names)
	} else {
		s.logger.Info("revoked permissions from user %s: %v", userID, names)
	}

	return nil
}

// InitializeDefaults seeds the permission catalog, the role tiers, and
// the role baselines. Every write is an upsert so bootstrap can run on
// each process start.
func (s *PermissionService) InitializeDefaults(ctx context.Context) error {
	for i := range DefaultPermissions {
		perm := DefaultPermissions[i]
		if err := s.rbac.UpsertPermission(ctx, &perm); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to seed permission")
		}
	}

	for i := range DefaultRoles {
		role := DefaultRoles[i]
		if err := s.rbac.UpsertRole(ctx, &role); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to seed role")
		}
	}

	for _, role := range DefaultRoles {
		if err := s.assignRoleBaseline(ctx, role.Name); err != nil {
			return err
		}
	}

	s.logger.Info("default roles and permissions initialized")
	return nil
}

func (s *PermissionService) assignRoleBaseline(ctx context.Context, roleName string) error {
	role, err := s.rbac.GetRoleByName(ctx, roleName)
	if err != nil {
		return err
	}

	for _, name := range RoleBaseline(roleName) {
		permission, err := s.rbac.GetPermissionByName(ctx, name)
		if err != nil {
			return err
		}

		if err := s.rbac.UpsertRolePermission(ctx, role.ID, permission.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to seed role baseline")
		}
	}

	return nil
}
