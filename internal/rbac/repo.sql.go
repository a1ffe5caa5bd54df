package rbac

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strataboard/strataboard/internal/shared"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for the role catalog,
// scoped assignments and group memberships.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ActiveRolesForUser returns active assignments joined with their role.
func (r *Repository) ActiveRolesForUser(ctx context.Context, userID int64) ([]UserRole, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ur.id, ur.user_id, ur.company_id, ur.project_id, ur.unit_id, ur.is_active, ur.created_at,
		       ro.id, ro.name, ro.display_name, ro.level, ro.is_system, ro.created_at, ro.updated_at
		FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ur.user_id = $1 AND ur.is_active = TRUE
		ORDER BY ur.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []UserRole
	for rows.Next() {
		var (
			a                  UserRole
			company, proj, unit pgtype.UUID
			created, roCreated, roUpdated pgtype.Timestamptz
		)
		if err := rows.Scan(
			&a.ID, &a.UserID, &company, &proj, &unit, &a.IsActive, &created,
			&a.Role.ID, &a.Role.Name, &a.Role.DisplayName, &a.Role.Level, &a.Role.IsSystem, &roCreated, &roUpdated,
		); err != nil {
			return nil, err
		}
		a.CompanyID = fromPGUUID(company)
		a.ProjectID = fromPGUUID(proj)
		a.UnitID = fromPGUUID(unit)
		a.CreatedAt = created.Time
		a.Role.CreatedAt = roCreated.Time
		a.Role.UpdatedAt = roUpdated.Time
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// PermissionsForRoles returns the deduplicated permission union for roleIDs.
func (r *Repository) PermissionsForRoles(ctx context.Context, roleIDs []int64) ([]Permission, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT p.id, p.name, p.module, p.action, p.description
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ANY($1)
		ORDER BY p.id`, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// AssignRole inserts a scoped assignment, reactivating an identical inactive
// row instead of duplicating it.
func (r *Repository) AssignRole(ctx context.Context, params AssignRoleParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id, company_id, project_id, unit_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW())
		ON CONFLICT (user_id, role_id, company_id, project_id, unit_id)
		DO UPDATE SET is_active = TRUE`,
		params.UserID, params.RoleID,
		toPGUUID(params.CompanyID), toPGUUID(params.ProjectID), toPGUUID(params.UnitID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return shared.ErrDuplicate
		}
		return err
	}
	return nil
}

// RemoveRole soft-removes every assignment of the role to the user.
func (r *Repository) RemoveRole(ctx context.Context, userID, roleID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE user_roles SET is_active = FALSE WHERE user_id = $1 AND role_id = $2 AND is_active = TRUE`,
		userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListRoles returns the full role catalog ordered by privilege.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, display_name, level, is_system, created_at, updated_at FROM roles ORDER BY level, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRoleByName fetches a role by its unique name.
func (r *Repository) GetRoleByName(ctx context.Context, name string) (Role, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, display_name, level, is_system, created_at, updated_at FROM roles WHERE name = $1`, name)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a non-system role.
func (r *Repository) CreateRole(ctx context.Context, name, displayName string, level int) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, display_name, level, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, FALSE, NOW(), NOW())
		RETURNING id, name, display_name, level, is_system, created_at, updated_at`,
		name, displayName, level)
	role, err := scanRole(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Role{}, shared.ErrDuplicate
		}
		return Role{}, err
	}
	return role, nil
}

// ListPermissions returns the permission catalog ordered by module then name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, module, action, description FROM permissions ORDER BY module, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// EnsurePermission upserts a catalog entry keyed by name.
func (r *Repository) EnsurePermission(ctx context.Context, perm Permission) (Permission, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name, module, action, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET module = EXCLUDED.module, action = EXCLUDED.action, description = EXCLUDED.description
		RETURNING id, name, module, action, description`,
		perm.Name, perm.Module, perm.Action, perm.Description)
	var out Permission
	if err := row.Scan(&out.ID, &out.Name, &out.Module, &out.Action, &out.Description); err != nil {
		return Permission{}, err
	}
	return out, nil
}

// ListRolePermissions returns the permissions attached to one role.
func (r *Repository) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.module, p.action, p.description
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// AttachPermission links a permission to a role.
func (r *Repository) AttachPermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING`, roleID, permissionID)
	return err
}

// DetachPermission unlinks a permission from a role.
func (r *Repository) DetachPermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	return err
}

// ActiveGroupsForUser returns names of groups the user actively belongs to.
func (r *Repository) ActiveGroupsForUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT group_name FROM user_group_members WHERE user_id = $1 AND is_active = TRUE ORDER BY group_name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		groups = append(groups, name)
	}
	return groups, rows.Err()
}

// AddMember adds a user to a group, reactivating a prior membership.
func (r *Repository) AddMember(ctx context.Context, groupName string, userID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_group_members (group_name, user_id, is_active, created_at)
		VALUES ($1, $2, TRUE, NOW())
		ON CONFLICT (group_name, user_id) DO UPDATE SET is_active = TRUE`,
		groupName, userID)
	return err
}

// RemoveMember deactivates a group membership.
func (r *Repository) RemoveMember(ctx context.Context, groupName string, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE user_group_members SET is_active = FALSE WHERE group_name = $1 AND user_id = $2 AND is_active = TRUE`,
		groupName, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanRole(row pgx.Row) (Role, error) {
	var (
		role             Role
		created, updated pgtype.Timestamptz
	)
	if err := row.Scan(&role.ID, &role.Name, &role.DisplayName, &role.Level, &role.IsSystem, &created, &updated); err != nil {
		return Role{}, err
	}
	role.CreatedAt = created.Time
	role.UpdatedAt = updated.Time
	return role, nil
}

func scanPermissions(rows pgx.Rows) ([]Permission, error) {
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Module, &p.Action, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func toPGUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func fromPGUUID(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

var (
	_ UserRoleRepository    = (*Repository)(nil)
	_ RoleRepository        = (*Repository)(nil)
	_ GroupMemberRepository = (*Repository)(nil)
)
