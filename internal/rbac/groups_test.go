package rbac

import (
	"context"
	"sort"
	"testing"
)

type fakeMemberStore struct {
	groups map[int64][]string
}

func (f *fakeMemberStore) ActiveGroupsForUser(ctx context.Context, userID int64) ([]string, error) {
	return append([]string(nil), f.groups[userID]...), nil
}

func (f *fakeMemberStore) AddMember(ctx context.Context, groupName string, userID int64) error {
	if f.groups == nil {
		f.groups = make(map[int64][]string)
	}
	f.groups[userID] = append(f.groups[userID], groupName)
	return nil
}

func (f *fakeMemberStore) RemoveMember(ctx context.Context, groupName string, userID int64) error {
	kept := f.groups[userID][:0]
	for _, g := range f.groups[userID] {
		if g != groupName {
			kept = append(kept, g)
		}
	}
	f.groups[userID] = kept
	return nil
}

func TestAuditorGroupFlags(t *testing.T) {
	catalog := DefaultGroupCatalog()

	group, ok := catalog.Group(GroupAuditor)
	if !ok {
		t.Fatal("auditor group missing from catalog")
	}
	if group.BaseRole != RoleResident {
		t.Fatalf("auditor rides on resident, got %s", group.BaseRole)
	}

	flags := group.Modules[ModuleFinancialStatements]
	if !flags.View || !flags.Print || !flags.Export {
		t.Fatalf("auditor should view/print/export statements, got %+v", flags)
	}
	if flags.Add || flags.Edit || flags.Delete {
		t.Fatalf("auditor must not mutate statements, got %+v", flags)
	}

	modules := catalog.GroupModules(GroupAuditor)
	sort.Strings(modules)
	want := []string{ModuleFinancialStatements, ModuleGeneralLedger}
	if len(modules) != len(want) {
		t.Fatalf("GroupModules = %v, want %v", modules, want)
	}
	for i := range want {
		if modules[i] != want[i] {
			t.Fatalf("GroupModules = %v, want %v", modules, want)
		}
	}

	if !catalog.GroupCanAccessModule(GroupAuditor, ModuleGeneralLedger) {
		t.Fatal("auditor should access general_ledger")
	}
	if catalog.GroupCanAccessModule(GroupAuditor, ModuleBilling) {
		t.Fatal("auditor must not access billing")
	}
	if catalog.GroupCanAccessModule("no_such_group", ModuleBilling) {
		t.Fatal("unknown group has no access")
	}
}

func TestEffectiveModuleFlagsGroupOverridesRegistry(t *testing.T) {
	engine := NewGroupEngine(DefaultGroupCatalog(), DefaultModuleRegistry(),
		&fakeMemberStore{groups: map[int64][]string{1: {GroupSupportStaff}}})

	// The staff registry entry for parcels grants export; the support_staff
	// group covers parcels without export and must win.
	flags, ok, err := engine.EffectiveModuleFlags(context.Background(), 1, RoleStaff, ModuleParcels)
	if err != nil {
		t.Fatalf("EffectiveModuleFlags() error = %v", err)
	}
	if !ok {
		t.Fatal("expected access")
	}
	if flags.Export {
		t.Fatal("group flags are authoritative: export must be off")
	}
	if !flags.Print || !flags.Add {
		t.Fatalf("expected support staff parcel flags, got %+v", flags)
	}
}

func TestEffectiveModuleFlagsFallsBackToRegistry(t *testing.T) {
	engine := NewGroupEngine(DefaultGroupCatalog(), DefaultModuleRegistry(), &fakeMemberStore{})

	flags, ok, err := engine.EffectiveModuleFlags(context.Background(), 1, RoleStaff, ModuleParcels)
	if err != nil {
		t.Fatalf("EffectiveModuleFlags() error = %v", err)
	}
	if !ok {
		t.Fatal("registry grants staff parcels access")
	}
	if !flags.Export || !flags.View {
		t.Fatalf("expected registry-derived flags, got %+v", flags)
	}

	_, ok, err = engine.EffectiveModuleFlags(context.Background(), 1, RoleResident, ModuleChartOfAccounts)
	if err != nil {
		t.Fatalf("EffectiveModuleFlags() error = %v", err)
	}
	if ok {
		t.Fatal("no group, no registry entry: no access")
	}
}

func TestEffectiveModuleFlagsGroupGrantsBeyondBaseRole(t *testing.T) {
	// An auditor based on resident gains statement access the resident role
	// alone would never have.
	engine := NewGroupEngine(DefaultGroupCatalog(), DefaultModuleRegistry(),
		&fakeMemberStore{groups: map[int64][]string{1: {GroupAuditor}}})

	flags, ok, err := engine.EffectiveModuleFlags(context.Background(), 1, RoleResident, ModuleFinancialStatements)
	if err != nil {
		t.Fatalf("EffectiveModuleFlags() error = %v", err)
	}
	if !ok || !flags.View || !flags.Export {
		t.Fatalf("auditor group should grant statement access, got ok=%v flags=%+v", ok, flags)
	}
}
