package rbac

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
)

var (
	roleSuper        = Role{ID: 1, Name: RoleSuperAdmin, DisplayName: "Super Admin", Level: 0, IsSystem: true}
	roleCompanyAdmin = Role{ID: 2, Name: RoleCompanyAdmin, DisplayName: "Company Admin", Level: 1, IsSystem: true}
	roleProjectAdmin = Role{ID: 3, Name: RoleProjectAdmin, DisplayName: "Project Admin", Level: 2, IsSystem: true}
	roleStaff        = Role{ID: 4, Name: RoleStaff, DisplayName: "Staff", Level: 3, IsSystem: true}
	roleEngineer     = Role{ID: 5, Name: RoleEngineer, DisplayName: "Engineer", Level: 4, IsSystem: true}
	roleResident     = Role{ID: 6, Name: RoleResident, DisplayName: "Resident", Level: 5, IsSystem: true}
)

type fakeRoleStore struct {
	assignments map[int64][]UserRole
	rolePerms   map[int64][]Permission
	assigned    []AssignRoleParams
	removed     [][2]int64
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{
		assignments: make(map[int64][]UserRole),
		rolePerms:   make(map[int64][]Permission),
	}
}

func (f *fakeRoleStore) ActiveRolesForUser(ctx context.Context, userID int64) ([]UserRole, error) {
	return append([]UserRole(nil), f.assignments[userID]...), nil
}

func (f *fakeRoleStore) PermissionsForRoles(ctx context.Context, roleIDs []int64) ([]Permission, error) {
	// Deliberately no dedup here: the resolver owns deduplication.
	var perms []Permission
	for _, id := range roleIDs {
		perms = append(perms, f.rolePerms[id]...)
	}
	return perms, nil
}

func (f *fakeRoleStore) AssignRole(ctx context.Context, params AssignRoleParams) error {
	f.assigned = append(f.assigned, params)
	return nil
}

func (f *fakeRoleStore) RemoveRole(ctx context.Context, userID, roleID int64) error {
	f.removed = append(f.removed, [2]int64{userID, roleID})
	return nil
}

func (f *fakeRoleStore) grant(role Role, perms ...Permission) {
	f.rolePerms[role.ID] = append(f.rolePerms[role.ID], perms...)
}

func (f *fakeRoleStore) assign(userID int64, role Role, scope Scope) {
	f.assignments[userID] = append(f.assignments[userID], UserRole{
		ID:        int64(len(f.assignments[userID]) + 1),
		UserID:    userID,
		Role:      role,
		CompanyID: scope.CompanyID,
		ProjectID: scope.ProjectID,
		IsActive:  true,
	})
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

func TestCheckPermissionSuperAdminBypassesCatalog(t *testing.T) {
	store := newFakeRoleStore()
	store.assign(7, roleSuper, Scope{})
	checker := NewChecker(store, nil)

	scopes := []Scope{
		{},
		ScopeCompany(uuid.New()),
		ScopeProject(uuid.New()),
		{CompanyID: uuidPtr(uuid.New()), ProjectID: uuidPtr(uuid.New())},
	}
	for _, scope := range scopes {
		decision, err := checker.CheckPermission(context.Background(), 7, "nonexistent.permission", scope)
		if err != nil {
			t.Fatalf("CheckPermission() error = %v", err)
		}
		if !decision.Allowed {
			t.Fatalf("expected super admin to be allowed, got reason %q", decision.Reason)
		}
	}
}

func TestCheckPermissionNoRolesDenies(t *testing.T) {
	checker := NewChecker(newFakeRoleStore(), nil)

	decision, err := checker.CheckPermission(context.Background(), 99, "billing.view", Scope{})
	if err != nil {
		t.Fatalf("CheckPermission() error = %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected deny for user with no roles")
	}
	if !strings.Contains(decision.Reason, "no roles") {
		t.Fatalf("reason %q should mention no roles", decision.Reason)
	}

	any, err := checker.CheckAnyPermission(context.Background(), 99, []string{"billing.view"}, Scope{})
	if err != nil || any.Allowed || !strings.Contains(any.Reason, "no roles") {
		t.Fatalf("CheckAnyPermission() = %+v, %v", any, err)
	}
	all, err := checker.CheckAllPermissions(context.Background(), 99, []string{"billing.view"}, Scope{})
	if err != nil || all.Allowed || !strings.Contains(all.Reason, "no roles") {
		t.Fatalf("CheckAllPermissions() = %+v, %v", all, err)
	}
}

func TestCheckPermissionScopeNarrowing(t *testing.T) {
	projectA := uuid.New()
	projectB := uuid.New()

	store := newFakeRoleStore()
	store.assign(1, roleStaff, ScopeProject(projectA))
	store.grant(roleStaff, Permission{ID: 10, Name: "billing.view"})
	checker := NewChecker(store, nil)

	inA, err := checker.CheckPermission(context.Background(), 1, "billing.view", ScopeProject(projectA))
	if err != nil || !inA.Allowed {
		t.Fatalf("expected allow in assigned project, got %+v, %v", inA, err)
	}
	inB, err := checker.CheckPermission(context.Background(), 1, "billing.view", ScopeProject(projectB))
	if err != nil {
		t.Fatalf("CheckPermission() error = %v", err)
	}
	if inB.Allowed {
		t.Fatal("assignment scoped to project A must not satisfy a check for project B")
	}
}

func TestCheckPermissionUnscopedRoleIsGlobal(t *testing.T) {
	store := newFakeRoleStore()
	store.assign(1, roleStaff, Scope{})
	store.grant(roleStaff, Permission{ID: 10, Name: "billing.view"})
	checker := NewChecker(store, nil)

	scope := Scope{CompanyID: uuidPtr(uuid.New()), ProjectID: uuidPtr(uuid.New())}
	decision, err := checker.CheckPermission(context.Background(), 1, "billing.view", scope)
	if err != nil || !decision.Allowed {
		t.Fatalf("unscoped assignment should satisfy any scope, got %+v, %v", decision, err)
	}
}

func TestPermissionContextDeduplicates(t *testing.T) {
	shared := Permission{ID: 10, Name: "billing.view"}
	store := newFakeRoleStore()
	store.assign(1, roleStaff, Scope{})
	store.assign(1, roleEngineer, Scope{})
	store.grant(roleStaff, shared, Permission{ID: 11, Name: "billing.create"})
	store.grant(roleEngineer, shared)
	checker := NewChecker(store, nil)

	pc, err := checker.PermissionContext(context.Background(), 1, Scope{})
	if err != nil {
		t.Fatalf("PermissionContext() error = %v", err)
	}
	count := 0
	for _, p := range pc.Permissions {
		if p.Name == "billing.view" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected billing.view exactly once, got %d", count)
	}
	if len(pc.Permissions) != 2 {
		t.Fatalf("expected 2 distinct permissions, got %d", len(pc.Permissions))
	}
}

func TestPermissionContextNilWhenNoScopeMatch(t *testing.T) {
	store := newFakeRoleStore()
	store.assign(1, roleStaff, ScopeProject(uuid.New()))
	checker := NewChecker(store, nil)

	pc, err := checker.PermissionContext(context.Background(), 1, ScopeProject(uuid.New()))
	if err != nil {
		t.Fatalf("PermissionContext() error = %v", err)
	}
	if pc != nil {
		t.Fatalf("expected nil context when no assignment applies, got %+v", pc)
	}
}

func TestCheckAllPermissionsListsEveryMissingName(t *testing.T) {
	store := newFakeRoleStore()
	store.assign(1, roleStaff, Scope{})
	store.grant(roleStaff, Permission{ID: 11, Name: "billing.create"})
	checker := NewChecker(store, nil)

	decision, err := checker.CheckAllPermissions(context.Background(), 1,
		[]string{"billing.create", "billing.delete"}, Scope{})
	if err != nil {
		t.Fatalf("CheckAllPermissions() error = %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected deny")
	}
	if decision.Reason != "missing permissions: billing.delete" {
		t.Fatalf("reason = %q", decision.Reason)
	}

	decision, err = checker.CheckAllPermissions(context.Background(), 1,
		[]string{"billing.delete", "billing.approve"}, Scope{})
	if err != nil {
		t.Fatalf("CheckAllPermissions() error = %v", err)
	}
	if !strings.Contains(decision.Reason, "billing.delete") || !strings.Contains(decision.Reason, "billing.approve") {
		t.Fatalf("reason %q must list every missing permission", decision.Reason)
	}
}

func TestCheckAnyPermission(t *testing.T) {
	store := newFakeRoleStore()
	store.assign(1, roleStaff, Scope{})
	store.grant(roleStaff, Permission{ID: 11, Name: "billing.create"})
	checker := NewChecker(store, nil)

	decision, err := checker.CheckAnyPermission(context.Background(), 1,
		[]string{"billing.delete", "billing.create"}, Scope{})
	if err != nil || !decision.Allowed {
		t.Fatalf("expected allow, got %+v, %v", decision, err)
	}
	decision, err = checker.CheckAnyPermission(context.Background(), 1,
		[]string{"billing.delete", "billing.approve"}, Scope{})
	if err != nil || decision.Allowed {
		t.Fatalf("expected deny, got %+v, %v", decision, err)
	}
}

func TestCheckRoleIsIdentityNotCapability(t *testing.T) {
	store := newFakeRoleStore()
	store.assign(7, roleSuper, Scope{})
	checker := NewChecker(store, nil)

	isStaff, err := checker.CheckRole(context.Background(), 7, RoleStaff, Scope{})
	if err != nil {
		t.Fatalf("CheckRole() error = %v", err)
	}
	if isStaff {
		t.Fatal("super admin must not pass a structural check for another role name")
	}
	isSuper, err := checker.CheckRole(context.Background(), 7, RoleSuperAdmin, Scope{})
	if err != nil || !isSuper {
		t.Fatalf("CheckRole(super_admin) = %v, %v", isSuper, err)
	}
}

func TestCheckMinRoleLevel(t *testing.T) {
	store := newFakeRoleStore()
	store.assign(1, roleCompanyAdmin, Scope{}) // level 1
	store.assign(2, roleStaff, Scope{})        // level 3
	checker := NewChecker(store, nil)

	ok, err := checker.CheckMinRoleLevel(context.Background(), 1, 2, Scope{})
	if err != nil || !ok {
		t.Fatalf("level 1 should satisfy min level 2, got %v, %v", ok, err)
	}
	ok, err = checker.CheckMinRoleLevel(context.Background(), 2, 2, Scope{})
	if err != nil {
		t.Fatalf("CheckMinRoleLevel() error = %v", err)
	}
	if ok {
		t.Fatal("level 3 must not satisfy min level 2")
	}
}

func TestHighestRoleLevel(t *testing.T) {
	store := newFakeRoleStore()
	store.assign(1, roleStaff, Scope{})
	store.assign(1, roleCompanyAdmin, Scope{})
	checker := NewChecker(store, nil)

	level, ok, err := checker.HighestRoleLevel(context.Background(), 1, Scope{})
	if err != nil || !ok {
		t.Fatalf("HighestRoleLevel() = %d, %v, %v", level, ok, err)
	}
	if level != 1 {
		t.Fatalf("expected most privileged level 1, got %d", level)
	}

	_, ok, err = checker.HighestRoleLevel(context.Background(), 42, Scope{})
	if err != nil {
		t.Fatalf("HighestRoleLevel() error = %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for user without roles")
	}
}
