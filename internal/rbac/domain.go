package rbac

import (
	"time"

	"github.com/google/uuid"
)

// Well-known role names seeded at deployment. The catalog may grow beyond
// these, but the project accessibility rules key off them.
const (
	RoleSuperAdmin   = "super_admin"
	RoleCompanyAdmin = "company_admin"
	RoleProjectAdmin = "project_admin"
	RoleStaff        = "staff"
	RoleEngineer     = "engineer"
	RoleResident     = "resident"
)

// LevelSuperAdmin is the most privileged role level. Lower level means more
// privileged throughout the system.
const LevelSuperAdmin = 0

// Role represents a named privilege tier.
type Role struct {
	ID          int64
	Name        string
	DisplayName string
	Level       int
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability, grouped by module.
type Permission struct {
	ID          int64
	Name        string
	Module      string
	Action      string
	Description string
}

// Scope narrows a check to a company and/or project. A nil axis means
// "any value on that axis".
type Scope struct {
	CompanyID *uuid.UUID
	ProjectID *uuid.UUID
}

// ScopeCompany builds a scope restricted to one company.
func ScopeCompany(companyID uuid.UUID) Scope {
	return Scope{CompanyID: &companyID}
}

// ScopeProject builds a scope restricted to one project.
func ScopeProject(projectID uuid.UUID) Scope {
	return Scope{ProjectID: &projectID}
}

// UserRole is an assignment of a role to a user, optionally scoped to a
// company, project and/or unit. Absence of a scope column widens, never
// narrows: a row with nil company and nil project applies everywhere.
type UserRole struct {
	ID        int64
	UserID    int64
	Role      Role
	CompanyID *uuid.UUID
	ProjectID *uuid.UUID
	UnitID    *uuid.UUID
	IsActive  bool
	CreatedAt time.Time
}

// AppliesTo reports whether the assignment is relevant under the supplied
// scope. Each axis matches when the assignment has no value for it or the
// values are equal; an omitted scope axis keeps every assignment.
func (a UserRole) AppliesTo(scope Scope) bool {
	if scope.CompanyID != nil && a.CompanyID != nil && *a.CompanyID != *scope.CompanyID {
		return false
	}
	if scope.ProjectID != nil && a.ProjectID != nil && *a.ProjectID != *scope.ProjectID {
		return false
	}
	return true
}

// Context is the resolved authorization state for one user under one scope:
// the applicable active role assignments and the deduplicated union of the
// permissions those roles grant. It is recomputed on every check and never
// cached, so role changes take effect immediately.
type Context struct {
	UserID      int64
	Scope       Scope
	Roles       []UserRole
	Permissions []Permission
}

// IsSuperAdmin reports whether any resolved role carries the super admin level.
func (c *Context) IsSuperAdmin() bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if r.Role.Level == LevelSuperAdmin {
			return true
		}
	}
	return false
}

// HasRole reports whether any resolved role matches the given name exactly.
// This is a structural identity check; super admin gets no bypass here.
func (c *Context) HasRole(name string) bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if r.Role.Name == name {
			return true
		}
	}
	return false
}

// HasPermission reports whether the resolved permission union contains name.
func (c *Context) HasPermission(name string) bool {
	if c == nil {
		return false
	}
	for _, p := range c.Permissions {
		if p.Name == name {
			return true
		}
	}
	return false
}

// HighestLevel returns the most privileged (lowest) level among resolved
// roles. ok is false when the context holds no roles.
func (c *Context) HighestLevel() (level int, ok bool) {
	if c == nil || len(c.Roles) == 0 {
		return 0, false
	}
	level = c.Roles[0].Role.Level
	for _, r := range c.Roles[1:] {
		if r.Role.Level < level {
			level = r.Role.Level
		}
	}
	return level, true
}

// Decision is the outcome of a permission check. Denial is a value, not an
// error; Reason is set only when Allowed is false.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns a positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a negative decision with the given reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}
