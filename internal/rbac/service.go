package rbac

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/strataboard/strataboard/internal/shared"
)

var titleCaser = cases.Title(language.English)

// Service orchestrates RBAC administration: catalog reads, the
// role-permission matrix and scoped assignment writes. Authorization of the
// acting admin happens at the handler via Middleware; each mutation here is
// a single check-then-write with no spanning transaction.
type Service struct {
	roles     RoleRepository
	userRoles UserRoleRepository
	members   GroupMemberRepository
	catalog   *GroupCatalog
}

// NewService constructs a Service.
func NewService(roles RoleRepository, userRoles UserRoleRepository, members GroupMemberRepository, catalog *GroupCatalog) *Service {
	return &Service{roles: roles, userRoles: userRoles, members: members, catalog: catalog}
}

// ListRoles returns the role catalog ordered by privilege.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.roles.ListRoles(ctx)
}

// GetRoleByName fetches one role.
func (s *Service) GetRoleByName(ctx context.Context, name string) (Role, error) {
	return s.roles.GetRoleByName(ctx, strings.TrimSpace(name))
}

// CreateRole inserts a non-system role. The display name is derived from the
// machine name when absent.
func (s *Service) CreateRole(ctx context.Context, name, displayName string, level int) (Role, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	if level <= LevelSuperAdmin {
		return Role{}, errors.New("rbac: level must be below super admin privilege")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = titleCaser.String(strings.ReplaceAll(name, "_", " "))
	}
	return s.roles.CreateRole(ctx, name, displayName, level)
}

// ListPermissions returns the permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.roles.ListPermissions(ctx)
}

// RolePermissions returns the permissions attached to one role.
func (s *Service) RolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	return s.roles.ListRolePermissions(ctx, roleID)
}

// SetRolePermissions replaces the permission set of a role, attaching the
// missing ids and detaching the removed ones.
func (s *Service) SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	current, err := s.roles.ListRolePermissions(ctx, roleID)
	if err != nil {
		return err
	}
	existing := make(map[int64]struct{}, len(current))
	for _, p := range current {
		existing[p.ID] = struct{}{}
	}
	keep := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		keep[id] = struct{}{}
		if _, ok := existing[id]; !ok {
			if err := s.roles.AttachPermission(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	for id := range existing {
		if _, ok := keep[id]; !ok {
			if err := s.roles.DetachPermission(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// AssignRole creates a scoped role assignment.
func (s *Service) AssignRole(ctx context.Context, params AssignRoleParams) error {
	return s.userRoles.AssignRole(ctx, params)
}

// RemoveRole soft-removes a user's role assignments.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	return s.userRoles.RemoveRole(ctx, userID, roleID)
}

// AddGroupMember adds the user to a predefined group.
func (s *Service) AddGroupMember(ctx context.Context, groupName string, userID int64) error {
	if _, ok := s.catalog.Group(groupName); !ok {
		return shared.ErrNotFound
	}
	return s.members.AddMember(ctx, groupName, userID)
}

// RemoveGroupMember deactivates the user's group membership.
func (s *Service) RemoveGroupMember(ctx context.Context, groupName string, userID int64) error {
	if _, ok := s.catalog.Group(groupName); !ok {
		return shared.ErrNotFound
	}
	return s.members.RemoveMember(ctx, groupName, userID)
}

// Groups returns the predefined group catalog.
func (s *Service) Groups() []UserGroup {
	return s.catalog.Groups()
}
