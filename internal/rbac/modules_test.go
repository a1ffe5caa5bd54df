package rbac

import "testing"

func TestCanAccessModule(t *testing.T) {
	registry := DefaultModuleRegistry()

	if registry.CanAccess(RoleResident, ModuleChartOfAccounts) {
		t.Fatal("resident must not access chart_of_accounts")
	}
	if !registry.CanAccess(RoleSuperAdmin, ModuleChartOfAccounts) {
		t.Fatal("super admin accesses every registered module")
	}
	if !registry.CanAccess(RoleResident, ModuleNotices) {
		t.Fatal("resident should access notices")
	}
	if registry.CanAccess(RoleSuperAdmin, "unknown_module") {
		t.Fatal("an unregistered module is inaccessible even to super admin")
	}
}

func TestModulePermissionsNilMeansNoAccess(t *testing.T) {
	registry := NewModuleRegistry([]ModuleAccess{
		{Module: "archive", Roles: []string{RoleStaff}, Permissions: ModulePermissions{}},
	})

	if perms := registry.ModulePermissions(RoleResident, "archive"); perms != nil {
		t.Fatalf("expected nil for a role without access, got %+v", perms)
	}
	perms := registry.ModulePermissions(RoleStaff, "archive")
	if perms == nil {
		t.Fatal("access with all flags false is still access: expected non-nil")
	}
	if perms.View || perms.Create {
		t.Fatalf("expected all-false flags, got %+v", *perms)
	}
}

func TestAccessibleModulesFiltersAndKeepsOrder(t *testing.T) {
	registry := DefaultModuleRegistry()

	modules := registry.AccessibleModules(RoleResident)
	for _, m := range modules {
		if !registry.CanAccess(RoleResident, m.Module) {
			t.Fatalf("AccessibleModules returned inaccessible module %s", m.Module)
		}
	}
	if len(modules) == 0 {
		t.Fatal("resident should see at least the dashboard")
	}
	if modules[0].Module != ModuleDashboard {
		t.Fatalf("expected registration order, first = %s", modules[0].Module)
	}

	all := registry.AccessibleModules(RoleSuperAdmin)
	if len(all) != len(registry.Modules()) {
		t.Fatalf("super admin should see all %d modules, got %d", len(registry.Modules()), len(all))
	}
}

func TestNewModuleRegistryCopiesInput(t *testing.T) {
	roles := []string{RoleStaff}
	entries := []ModuleAccess{{Module: "archive", Roles: roles}}
	registry := NewModuleRegistry(entries)

	roles[0] = RoleResident
	if registry.CanAccess(RoleResident, "archive") {
		t.Fatal("registry must not observe caller-side mutation")
	}
	if !registry.CanAccess(RoleStaff, "archive") {
		t.Fatal("original role list should remain effective")
	}
}
