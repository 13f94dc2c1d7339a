package auth

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RBACStore is the role/permission persistence contract the permission
// service depends on. Every upsert is idempotent: edge tables carry
// unique pair constraints and writes go through ON CONFLICT clauses,
// so concurrent duplicate assignment leaves a single edge.
type RBACStore interface {
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	GetPermissionByName(ctx context.Context, name string) (*Permission, error)
	ListUserRoles(ctx context.Context, userID uuid.UUID) ([]*UserRole, error)
	ListUserPermissions(ctx context.Context, userID uuid.UUID) ([]*UserPermission, error)
	ListRolePermissions(ctx context.Context, roleID uuid.UUID) ([]*RolePermission, error)
	UpsertRole(ctx context.Context, role *Role) error
	UpsertPermission(ctx context.Context, permission *Permission) error
	UpsertUserRole(ctx context.Context, userID, roleID uuid.UUID) error
	UpsertRolePermission(ctx context.Context, roleID, permissionID uuid.UUID) error
	UpsertUserPermission(ctx context.Context, edge *UserPermission) error
}

type rbac struct {
	db *bun.DB
}

var _ RBACStore = (*rbac)(nil)

// NewRBACRepository wires an RBACStore over the given bun handle.
func NewRBACRepository(db *bun.DB) RBACStore {
	return &rbac{db: db}
}

func (r *rbac) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	record := &Role{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrPermissionNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *rbac) GetPermissionByName(ctx context.Context, name string) (*Permission, error) {
	record := &Permission{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrPermissionNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *rbac) ListUserRoles(ctx context.Context, userID uuid.UUID) ([]*UserRole, error) {
	records := []*UserRole{}
	err := r.db.NewSelect().
		Model(&records).
		Relation("Role").
		Where("?TableAlias.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *rbac) ListUserPermissions(ctx context.Context, userID uuid.UUID) ([]*UserPermission, error) {
	records := []*UserPermission{}
	err := r.db.NewSelect().
		Model(&records).
		Relation("Permission").
		Where("?TableAlias.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *rbac) ListRolePermissions(ctx context.Context, roleID uuid.UUID) ([]*RolePermission, error) {
	records := []*RolePermission{}
	err := r.db.NewSelect().
		Model(&records).
		Relation("Permission").
		Where("?TableAlias.role_id = ?", roleID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// UpsertRole keeps existing rows untouched, seeding never renames or
// re-levels a role that is already present.
func (r *rbac) UpsertRole(ctx context.Context, role *Role) error {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}

	_, err := r.db.NewInsert().
		Model(role).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *rbac) UpsertPermission(ctx context.Context, permission *Permission) error {
	if permission.ID == uuid.Nil {
		permission.ID = uuid.New()
	}

	_, err := r.db.NewInsert().
		Model(permission).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *rbac) UpsertUserRole(ctx context.Context, userID, roleID uuid.UUID) error {
	edge := &UserRole{
		ID:     uuid.New(),
		UserID: userID,
		RoleID: roleID,
	}

	_, err := r.db.NewInsert().
		Model(edge).
		On("CONFLICT (user_id, role_id) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *rbac) UpsertRolePermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	edge := &RolePermission{
		ID:           uuid.New(),
		RoleID:       roleID,
		PermissionID: permissionID,
	}

	_, err := r.db.NewInsert().
		Model(edge).
		On("CONFLICT (role_id, permission_id) DO NOTHING").
		Exec(ctx)
	return err
}

// UpsertUserPermission writes an override row, replacing the granted
// flag and audit fields when the edge already exists.
func (r *rbac) UpsertUserPermission(ctx context.Context, edge *UserPermission) error {
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}

	_, err := r.db.NewInsert().
		Model(edge).
		On("CONFLICT (user_id, permission_id) DO UPDATE").
		Set("granted = EXCLUDED.granted").
		Set("granted_by = EXCLUDED.granted_by").
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	return err
}

// isUniqueViolation sniffs driver-specific unique constraint errors.
// Both sqlite and postgres spell it differently.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
