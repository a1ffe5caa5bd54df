package rbac

import (
	"context"

	"github.com/google/uuid"
)

// AssignRoleParams carries a scoped role assignment.
type AssignRoleParams struct {
	UserID    int64
	RoleID    int64
	CompanyID *uuid.UUID
	ProjectID *uuid.UUID
	UnitID    *uuid.UUID
}

// UserRoleRepository loads and mutates scoped role assignments.
type UserRoleRepository interface {
	// ActiveRolesForUser returns every assignment with is_active, joined with
	// its role. Scope filtering happens in the resolver, not in SQL.
	ActiveRolesForUser(ctx context.Context, userID int64) ([]UserRole, error)
	// PermissionsForRoles returns the deduplicated permission union reachable
	// from the given role ids via the role-permission join.
	PermissionsForRoles(ctx context.Context, roleIDs []int64) ([]Permission, error)
	AssignRole(ctx context.Context, params AssignRoleParams) error
	// RemoveRole soft-removes (is_active=false) every assignment of the role
	// to the user.
	RemoveRole(ctx context.Context, userID, roleID int64) error
}

// RoleRepository manages the role and permission catalogs.
type RoleRepository interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)
	CreateRole(ctx context.Context, name, displayName string, level int) (Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	EnsurePermission(ctx context.Context, perm Permission) (Permission, error)
	ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error)
	AttachPermission(ctx context.Context, roleID, permissionID int64) error
	DetachPermission(ctx context.Context, roleID, permissionID int64) error
}

// GroupMemberRepository manages user-group memberships.
type GroupMemberRepository interface {
	ActiveGroupsForUser(ctx context.Context, userID int64) ([]string, error)
	AddMember(ctx context.Context, groupName string, userID int64) error
	RemoveMember(ctx context.Context, groupName string, userID int64) error
}

// ProjectDirectory resolves tenancy structure for project expansion. It is
// implemented by the directory module.
type ProjectDirectory interface {
	ActiveProjectIDs(ctx context.Context) ([]uuid.UUID, error)
	ActiveProjectIDsByCompany(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
	// ProjectCompany returns shared.ErrNotFound when the project is unknown.
	ProjectCompany(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error)
}
