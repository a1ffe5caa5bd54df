package rbac

import (
	"context"
	"log/slog"
	"strings"
)

// ReasonNoRoles is returned when a user has no active role assignments.
const ReasonNoRoles = "user has no roles assigned"

// Checker answers authorization questions against live role data. Every
// check re-reads assignments so grants and revocations apply immediately;
// there is deliberately no cache in front of it.
type Checker struct {
	roles  UserRoleRepository
	logger *slog.Logger
}

// NewChecker constructs a Checker.
func NewChecker(roles UserRoleRepository, logger *slog.Logger) *Checker {
	return &Checker{roles: roles, logger: logger}
}

// PermissionContext resolves the user's authorization state under scope.
// It returns nil (and no error) when the user has zero active assignments;
// callers must treat that as "no access".
func (c *Checker) PermissionContext(ctx context.Context, userID int64, scope Scope) (*Context, error) {
	assignments, err := c.roles.ActiveRolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, nil
	}

	applicable := assignments[:0:0]
	for _, a := range assignments {
		if a.AppliesTo(scope) {
			applicable = append(applicable, a)
		}
	}
	if len(applicable) == 0 {
		return nil, nil
	}

	seen := make(map[int64]struct{}, len(applicable))
	roleIDs := make([]int64, 0, len(applicable))
	for _, a := range applicable {
		if _, ok := seen[a.Role.ID]; ok {
			continue
		}
		seen[a.Role.ID] = struct{}{}
		roleIDs = append(roleIDs, a.Role.ID)
	}

	perms, err := c.roles.PermissionsForRoles(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	return &Context{UserID: userID, Scope: scope, Roles: applicable, Permissions: dedupPermissions(perms)}, nil
}

// CheckPermission decides whether the user holds the named permission under
// scope. Super admins pass unconditionally, bypassing the catalog, so a
// missing role-permission row can never lock them out.
func (c *Checker) CheckPermission(ctx context.Context, userID int64, permission string, scope Scope) (Decision, error) {
	pc, err := c.PermissionContext(ctx, userID, scope)
	if err != nil {
		return Decision{}, err
	}
	if pc == nil {
		return Deny(ReasonNoRoles), nil
	}
	if pc.IsSuperAdmin() {
		return Allow(), nil
	}
	if pc.HasPermission(permission) {
		return Allow(), nil
	}
	return Deny("missing permission: " + permission), nil
}

// CheckAnyPermission allows when at least one of the named permissions is held.
func (c *Checker) CheckAnyPermission(ctx context.Context, userID int64, permissions []string, scope Scope) (Decision, error) {
	pc, err := c.PermissionContext(ctx, userID, scope)
	if err != nil {
		return Decision{}, err
	}
	if pc == nil {
		return Deny(ReasonNoRoles), nil
	}
	if pc.IsSuperAdmin() {
		return Allow(), nil
	}
	for _, p := range permissions {
		if pc.HasPermission(p) {
			return Allow(), nil
		}
	}
	return Deny("missing permissions: " + strings.Join(permissions, ", ")), nil
}

// CheckAllPermissions allows only when every named permission is held. The
// denial reason lists every missing name so callers can report completely.
func (c *Checker) CheckAllPermissions(ctx context.Context, userID int64, permissions []string, scope Scope) (Decision, error) {
	pc, err := c.PermissionContext(ctx, userID, scope)
	if err != nil {
		return Decision{}, err
	}
	if pc == nil {
		return Deny(ReasonNoRoles), nil
	}
	if pc.IsSuperAdmin() {
		return Allow(), nil
	}
	var missing []string
	for _, p := range permissions {
		if !pc.HasPermission(p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return Deny("missing permissions: " + strings.Join(missing, ", ")), nil
	}
	return Allow(), nil
}

// CheckRole reports whether the user holds the named role under scope.
// Identity check only: holding super_admin does not make this true for
// other role names.
func (c *Checker) CheckRole(ctx context.Context, userID int64, roleName string, scope Scope) (bool, error) {
	pc, err := c.PermissionContext(ctx, userID, scope)
	if err != nil {
		return false, err
	}
	return pc.HasRole(roleName), nil
}

// CheckMinRoleLevel reports whether the user holds a role at least as
// privileged as minLevel (lower level = more privileged).
func (c *Checker) CheckMinRoleLevel(ctx context.Context, userID int64, minLevel int, scope Scope) (bool, error) {
	pc, err := c.PermissionContext(ctx, userID, scope)
	if err != nil {
		return false, err
	}
	level, ok := pc.HighestLevel()
	return ok && level <= minLevel, nil
}

// HighestRoleLevel returns the most privileged level the user holds under
// scope. ok is false when the user has no applicable roles.
func (c *Checker) HighestRoleLevel(ctx context.Context, userID int64, scope Scope) (level int, ok bool, err error) {
	pc, err := c.PermissionContext(ctx, userID, scope)
	if err != nil {
		return 0, false, err
	}
	level, ok = pc.HighestLevel()
	return level, ok, nil
}

func dedupPermissions(perms []Permission) []Permission {
	seen := make(map[int64]struct{}, len(perms))
	out := perms[:0:0]
	for _, p := range perms {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
