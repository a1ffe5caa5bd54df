package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/strataboard/strataboard/internal/rbac"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	ListUsersByProjects(ctx context.Context, projectIDs []uuid.UUID) ([]User, error)
	CreateUser(ctx context.Context, email, name, passwordHash string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
}

// AccessPort resolves the actor's accessible project set.
type AccessPort interface {
	AccessibleProjects(ctx context.Context, userID int64) ([]uuid.UUID, error)
}

// RolePort answers structural role questions.
type RolePort interface {
	CheckRole(ctx context.Context, userID int64, roleName string, scope rbac.Scope) (bool, error)
}

// Service handles user business logic. Listings are scoped to the actor's
// accessible projects unless the actor is a super admin.
type Service struct {
	repo    RepositoryPort
	access  AccessPort
	checker RolePort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, access AccessPort, checker RolePort) *Service {
	return &Service{repo: repo, access: access, checker: checker}
}

// ListUsers returns the users the actor may see.
func (s *Service) ListUsers(ctx context.Context, actorID int64) ([]User, error) {
	isSuper, err := s.checker.CheckRole(ctx, actorID, rbac.RoleSuperAdmin, rbac.Scope{})
	if err != nil {
		return nil, err
	}
	if isSuper {
		return s.repo.ListUsers(ctx)
	}
	ids, err := s.access.AccessibleProjects(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListUsersByProjects(ctx, ids)
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser hashes the password and inserts the account.
func (s *Service) CreateUser(ctx context.Context, email, name, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.CreateUser(ctx, strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(name), string(hash))
}
