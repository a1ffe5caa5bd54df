package rbac

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/strataboard/strataboard/internal/shared"
)

// companyWideRoles have blanket visibility over every project of the company
// their assignment is scoped to. This is a deliberate broadening rule,
// separate from the fine-grained permission checks.
var companyWideRoles = map[string]struct{}{
	RoleCompanyAdmin: {},
	RoleProjectAdmin: {},
	RoleStaff:        {},
}

// AccessResolver computes which companies and projects a user may operate
// within. Every list-style query for a non-super-admin actor must be
// filtered by AccessibleProjects; a client-supplied project id is never
// trusted on its own.
type AccessResolver struct {
	roles     UserRoleRepository
	directory ProjectDirectory
	logger    *slog.Logger
}

// NewAccessResolver constructs an AccessResolver.
func NewAccessResolver(roles UserRoleRepository, directory ProjectDirectory, logger *slog.Logger) *AccessResolver {
	return &AccessResolver{roles: roles, directory: directory, logger: logger}
}

// AccessibleProjects returns the deduplicated set of project ids the user may
// see. Super admins see every active project. Company-wide roles scoped to a
// company expand to all of that company's active projects; any assignment
// carrying a direct project id contributes that project.
func (r *AccessResolver) AccessibleProjects(ctx context.Context, userID int64) ([]uuid.UUID, error) {
	assignments, err := r.roles.ActiveRolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, a := range assignments {
		if a.Role.Name == RoleSuperAdmin {
			return r.directory.ActiveProjectIDs(ctx)
		}
	}

	seen := make(map[uuid.UUID]struct{})
	var projects []uuid.UUID
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		projects = append(projects, id)
	}

	for _, a := range assignments {
		if a.ProjectID != nil {
			add(*a.ProjectID)
		}
		if _, wide := companyWideRoles[a.Role.Name]; wide && a.CompanyID != nil {
			companyProjects, err := r.directory.ActiveProjectIDsByCompany(ctx, *a.CompanyID)
			if err != nil {
				return nil, err
			}
			for _, id := range companyProjects {
				add(id)
			}
		}
	}
	return projects, nil
}

// CanAccessCompany reports whether the user may operate within the company.
func (r *AccessResolver) CanAccessCompany(ctx context.Context, userID int64, companyID uuid.UUID) (bool, error) {
	assignments, err := r.roles.ActiveRolesForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, a := range assignments {
		if a.Role.Name == RoleSuperAdmin {
			return true, nil
		}
		if a.CompanyID != nil && *a.CompanyID == companyID {
			return true, nil
		}
	}
	return false, nil
}

// CanAccessProject reports whether the user may operate within the project.
// A company admin of the owning company passes without a direct project
// assignment. An unresolvable project denies access rather than erroring:
// access control fails closed.
func (r *AccessResolver) CanAccessProject(ctx context.Context, userID int64, projectID uuid.UUID) (bool, error) {
	assignments, err := r.roles.ActiveRolesForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, a := range assignments {
		if a.Role.Name == RoleSuperAdmin {
			return true, nil
		}
	}

	companyID, companyKnown, err := r.projectCompany(ctx, projectID)
	if err != nil {
		return false, err
	}

	for _, a := range assignments {
		if companyKnown && a.Role.Name == RoleCompanyAdmin && a.CompanyID != nil && *a.CompanyID == companyID {
			return true, nil
		}
		if a.ProjectID != nil && *a.ProjectID == projectID {
			return true, nil
		}
	}
	return false, nil
}

// CanManageProject is stricter than CanAccessProject: besides super admins
// and owning-company company admins, only a project_admin assignment scoped
// to exactly this project qualifies. Staff never satisfies "manage".
func (r *AccessResolver) CanManageProject(ctx context.Context, userID int64, projectID uuid.UUID) (bool, error) {
	assignments, err := r.roles.ActiveRolesForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, a := range assignments {
		if a.Role.Name == RoleSuperAdmin {
			return true, nil
		}
	}

	companyID, companyKnown, err := r.projectCompany(ctx, projectID)
	if err != nil {
		return false, err
	}

	for _, a := range assignments {
		if companyKnown && a.Role.Name == RoleCompanyAdmin && a.CompanyID != nil && *a.CompanyID == companyID {
			return true, nil
		}
		if a.Role.Name == RoleProjectAdmin && a.ProjectID != nil && *a.ProjectID == projectID {
			return true, nil
		}
	}
	return false, nil
}

// projectCompany resolves the owning company, mapping an unknown project to
// "not known" instead of an error so callers deny instead of failing open.
func (r *AccessResolver) projectCompany(ctx context.Context, projectID uuid.UUID) (uuid.UUID, bool, error) {
	companyID, err := r.directory.ProjectCompany(ctx, projectID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			if r.logger != nil {
				r.logger.Warn("project company lookup failed, denying company-level access",
					slog.String("project_id", projectID.String()))
			}
			return uuid.UUID{}, false, nil
		}
		return uuid.UUID{}, false, err
	}
	return companyID, true, nil
}
