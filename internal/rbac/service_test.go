package rbac

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/strataboard/strataboard/internal/shared"
)

type fakeCatalogStore struct {
	roles     map[string]Role
	rolePerms map[int64][]Permission
	attached  [][2]int64
	detached  [][2]int64
	nextID    int64
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		roles:     make(map[string]Role),
		rolePerms: make(map[int64][]Permission),
		nextID:    100,
	}
}

func (f *fakeCatalogStore) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(f.roles))
	for _, r := range f.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (f *fakeCatalogStore) GetRoleByName(ctx context.Context, name string) (Role, error) {
	role, ok := f.roles[name]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (f *fakeCatalogStore) CreateRole(ctx context.Context, name, displayName string, level int) (Role, error) {
	if _, exists := f.roles[name]; exists {
		return Role{}, shared.ErrDuplicate
	}
	f.nextID++
	role := Role{ID: f.nextID, Name: name, DisplayName: displayName, Level: level, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.roles[name] = role
	return role, nil
}

func (f *fakeCatalogStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	return nil, nil
}

func (f *fakeCatalogStore) EnsurePermission(ctx context.Context, perm Permission) (Permission, error) {
	return perm, nil
}

func (f *fakeCatalogStore) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	return append([]Permission(nil), f.rolePerms[roleID]...), nil
}

func (f *fakeCatalogStore) AttachPermission(ctx context.Context, roleID, permissionID int64) error {
	f.attached = append(f.attached, [2]int64{roleID, permissionID})
	f.rolePerms[roleID] = append(f.rolePerms[roleID], Permission{ID: permissionID})
	return nil
}

func (f *fakeCatalogStore) DetachPermission(ctx context.Context, roleID, permissionID int64) error {
	f.detached = append(f.detached, [2]int64{roleID, permissionID})
	kept := f.rolePerms[roleID][:0]
	for _, p := range f.rolePerms[roleID] {
		if p.ID != permissionID {
			kept = append(kept, p)
		}
	}
	f.rolePerms[roleID] = kept
	return nil
}

func TestSetRolePermissionsDiffsExistingSet(t *testing.T) {
	catalog := newFakeCatalogStore()
	catalog.rolePerms[4] = []Permission{{ID: 1}, {ID: 2}, {ID: 3}}
	svc := NewService(catalog, newFakeRoleStore(), &fakeMemberStore{}, DefaultGroupCatalog())

	if err := svc.SetRolePermissions(context.Background(), 4, []int64{2, 3, 5}); err != nil {
		t.Fatalf("SetRolePermissions() error = %v", err)
	}
	if len(catalog.attached) != 1 || catalog.attached[0] != [2]int64{4, 5} {
		t.Fatalf("expected only permission 5 attached, got %v", catalog.attached)
	}
	if len(catalog.detached) != 1 || catalog.detached[0] != [2]int64{4, 1} {
		t.Fatalf("expected only permission 1 detached, got %v", catalog.detached)
	}

	final, _ := catalog.ListRolePermissions(context.Background(), 4)
	ids := make([]int64, 0, len(final))
	for _, p := range final {
		ids = append(ids, p.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) != 3 || ids[0] != 2 || ids[1] != 3 || ids[2] != 5 {
		t.Fatalf("final set = %v, want [2 3 5]", ids)
	}
}

func TestCreateRoleDerivesDisplayName(t *testing.T) {
	svc := NewService(newFakeCatalogStore(), newFakeRoleStore(), &fakeMemberStore{}, DefaultGroupCatalog())

	role, err := svc.CreateRole(context.Background(), " Facility_Manager ", "", 4)
	if err != nil {
		t.Fatalf("CreateRole() error = %v", err)
	}
	if role.Name != "facility_manager" {
		t.Fatalf("name = %q", role.Name)
	}
	if role.DisplayName != "Facility Manager" {
		t.Fatalf("display name = %q", role.DisplayName)
	}
}

func TestCreateRoleRejectsSuperAdminLevel(t *testing.T) {
	svc := NewService(newFakeCatalogStore(), newFakeRoleStore(), &fakeMemberStore{}, DefaultGroupCatalog())

	if _, err := svc.CreateRole(context.Background(), "shadow_admin", "", LevelSuperAdmin); err == nil {
		t.Fatal("expected error for level 0 role creation")
	}
	if _, err := svc.CreateRole(context.Background(), "", "", 3); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestGroupMembershipValidatesGroupName(t *testing.T) {
	members := &fakeMemberStore{}
	svc := NewService(newFakeCatalogStore(), newFakeRoleStore(), members, DefaultGroupCatalog())

	if err := svc.AddGroupMember(context.Background(), "no_such_group", 1); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.AddGroupMember(context.Background(), GroupAccountant, 1); err != nil {
		t.Fatalf("AddGroupMember() error = %v", err)
	}
	groups, _ := members.ActiveGroupsForUser(context.Background(), 1)
	if len(groups) != 1 || groups[0] != GroupAccountant {
		t.Fatalf("memberships = %v", groups)
	}
	if err := svc.RemoveGroupMember(context.Background(), GroupAccountant, 1); err != nil {
		t.Fatalf("RemoveGroupMember() error = %v", err)
	}
}
