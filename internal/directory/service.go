package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/strataboard/strataboard/internal/rbac"
	"github.com/strataboard/strataboard/internal/shared"
)

// RepositoryPort defines data access methods for the tenancy directory.
type RepositoryPort interface {
	ListCompanies(ctx context.Context) ([]Company, error)
	ListProjects(ctx context.Context, projectIDs []uuid.UUID) ([]Project, error)
	ListAllProjects(ctx context.Context) ([]Project, error)
	CreateProject(ctx context.Context, companyID uuid.UUID, name, code string) (Project, error)
	ListUnits(ctx context.Context, projectID uuid.UUID) ([]Unit, error)
}

// AccessPort is the slice of the rbac access resolver the service needs.
type AccessPort interface {
	AccessibleProjects(ctx context.Context, userID int64) ([]uuid.UUID, error)
	CanAccessCompany(ctx context.Context, userID int64, companyID uuid.UUID) (bool, error)
	CanAccessProject(ctx context.Context, userID int64, projectID uuid.UUID) (bool, error)
}

// RolePort answers structural role questions.
type RolePort interface {
	CheckRole(ctx context.Context, userID int64, roleName string, scope rbac.Scope) (bool, error)
}

// Service applies tenancy scoping to directory reads and writes. Every
// listing is filtered through the accessible-project set; client-supplied
// ids are re-checked, never trusted.
type Service struct {
	repo    RepositoryPort
	access  AccessPort
	checker RolePort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, access AccessPort, checker RolePort) *Service {
	return &Service{repo: repo, access: access, checker: checker}
}

// ListCompanies returns the companies the actor belongs to; all of them for
// super admins.
func (s *Service) ListCompanies(ctx context.Context, actorID int64) ([]Company, error) {
	companies, err := s.repo.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	isSuper, err := s.checker.CheckRole(ctx, actorID, rbac.RoleSuperAdmin, rbac.Scope{})
	if err != nil {
		return nil, err
	}
	if isSuper {
		return companies, nil
	}
	visible := companies[:0:0]
	for _, c := range companies {
		ok, err := s.access.CanAccessCompany(ctx, actorID, c.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// ListProjects returns the projects the actor may see.
func (s *Service) ListProjects(ctx context.Context, actorID int64) ([]Project, error) {
	isSuper, err := s.checker.CheckRole(ctx, actorID, rbac.RoleSuperAdmin, rbac.Scope{})
	if err != nil {
		return nil, err
	}
	if isSuper {
		return s.repo.ListAllProjects(ctx)
	}
	ids, err := s.access.AccessibleProjects(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListProjects(ctx, ids)
}

// CreateProject inserts a project; the actor must belong to the company.
func (s *Service) CreateProject(ctx context.Context, actorID int64, companyID uuid.UUID, name, code string) (Project, error) {
	ok, err := s.access.CanAccessCompany(ctx, actorID, companyID)
	if err != nil {
		return Project{}, err
	}
	if !ok {
		return Project{}, shared.ErrForbidden
	}
	return s.repo.CreateProject(ctx, companyID, name, code)
}

// ListUnits returns the units of a project the actor may see.
func (s *Service) ListUnits(ctx context.Context, actorID int64, projectID uuid.UUID) ([]Unit, error) {
	ok, err := s.access.CanAccessProject(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrForbidden
	}
	return s.repo.ListUnits(ctx, projectID)
}
