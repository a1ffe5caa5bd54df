package rbac

import "context"

// Predefined user group names. Groups model job functions that a bare role
// is too coarse for.
const (
	GroupAccountant   = "accountant"
	GroupCommittee    = "committee"
	GroupAuditor      = "auditor"
	GroupSupportStaff = "support_staff"
	GroupManager      = "manager"
)

// GroupFlags are the per-module capability flags a group grants. They are
// finer grained than ModulePermissions and, once a membership covers a
// module, authoritative over the role/registry answer for it.
type GroupFlags struct {
	Access  bool `json:"can_access"`
	View    bool `json:"can_view"`
	Add     bool `json:"can_add"`
	Edit    bool `json:"can_edit"`
	Delete  bool `json:"can_delete"`
	Print   bool `json:"can_print"`
	Export  bool `json:"can_export"`
	Approve bool `json:"can_approve"`
	Assign  bool `json:"can_assign"`
}

// UserGroup bundles per-module flags on top of a base role.
type UserGroup struct {
	Name        string
	DisplayName string
	BaseRole    string
	Modules     map[string]GroupFlags
}

// GroupCatalog is an immutable set of predefined groups, built once at
// startup and injected like the module registry.
type GroupCatalog struct {
	groups map[string]UserGroup
	order  []string
}

// NewGroupCatalog builds a frozen catalog. Module maps are copied.
func NewGroupCatalog(groups []UserGroup) *GroupCatalog {
	cat := &GroupCatalog{groups: make(map[string]UserGroup, len(groups))}
	for _, g := range groups {
		if _, dup := cat.groups[g.Name]; dup {
			continue
		}
		copied := g
		copied.Modules = make(map[string]GroupFlags, len(g.Modules))
		for module, flags := range g.Modules {
			copied.Modules[module] = flags
		}
		cat.groups[g.Name] = copied
		cat.order = append(cat.order, g.Name)
	}
	return cat
}

// Group returns the named group definition.
func (c *GroupCatalog) Group(name string) (UserGroup, bool) {
	g, ok := c.groups[name]
	return g, ok
}

// Groups returns every group in registration order.
func (c *GroupCatalog) Groups() []UserGroup {
	out := make([]UserGroup, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.groups[name])
	}
	return out
}

// GroupModules returns the module names the group defines flags for.
func (c *GroupCatalog) GroupModules(name string) []string {
	g, ok := c.groups[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.Modules))
	for module := range g.Modules {
		out = append(out, module)
	}
	return out
}

// GroupCanAccessModule reports whether the group defines any flags for the
// module.
func (c *GroupCatalog) GroupCanAccessModule(name, module string) bool {
	g, ok := c.groups[name]
	if !ok {
		return false
	}
	_, ok = g.Modules[module]
	return ok
}

// GroupEngine resolves a user's effective per-module flags: group flags win
// for modules any active membership covers; otherwise the role's module
// registry entry is translated into flags as a fallback.
type GroupEngine struct {
	catalog  *GroupCatalog
	registry *ModuleRegistry
	members  GroupMemberRepository
}

// NewGroupEngine constructs a GroupEngine.
func NewGroupEngine(catalog *GroupCatalog, registry *ModuleRegistry, members GroupMemberRepository) *GroupEngine {
	return &GroupEngine{catalog: catalog, registry: registry, members: members}
}

// EffectiveModuleFlags resolves the flags userID gets on module given their
// role. ok is false when neither a group membership nor the registry grants
// any access.
func (e *GroupEngine) EffectiveModuleFlags(ctx context.Context, userID int64, roleName, module string) (GroupFlags, bool, error) {
	memberships, err := e.members.ActiveGroupsForUser(ctx, userID)
	if err != nil {
		return GroupFlags{}, false, err
	}
	for _, name := range memberships {
		group, ok := e.catalog.Group(name)
		if !ok {
			continue
		}
		if flags, covered := group.Modules[module]; covered {
			return flags, true, nil
		}
	}

	perms := e.registry.ModulePermissions(roleName, module)
	if perms == nil {
		return GroupFlags{}, false, nil
	}
	return GroupFlags{
		Access: true,
		View:   perms.View,
		Add:    perms.Create,
		Edit:   perms.Update,
		Delete: perms.Delete,
		Export: perms.Export,
		Assign: perms.Assign,
	}, true, nil
}

// DefaultGroupCatalog returns the groups shipped with the product.
func DefaultGroupCatalog() *GroupCatalog {
	fullBooks := GroupFlags{Access: true, View: true, Add: true, Edit: true, Print: true, Export: true}
	readPrint := GroupFlags{Access: true, View: true, Print: true, Export: true}

	return NewGroupCatalog([]UserGroup{
		{
			Name:        GroupAccountant,
			DisplayName: "Accountant",
			BaseRole:    RoleStaff,
			Modules: map[string]GroupFlags{
				ModuleBilling:             fullBooks,
				ModulePayments:            GroupFlags{Access: true, View: true, Add: true, Edit: true, Export: true, Approve: true},
				ModuleChartOfAccounts:     GroupFlags{Access: true, View: true, Add: true, Edit: true},
				ModuleGeneralLedger:       fullBooks,
				ModuleFinancialStatements: readPrint,
			},
		},
		{
			Name:        GroupCommittee,
			DisplayName: "Committee",
			BaseRole:    RoleResident,
			Modules: map[string]GroupFlags{
				ModuleFinancialStatements: readPrint,
				ModuleMaintenance:         GroupFlags{Access: true, View: true, Approve: true},
				ModuleNotices:             GroupFlags{Access: true, View: true, Add: true, Edit: true},
				ModuleVendors:             GroupFlags{Access: true, View: true},
			},
		},
		{
			Name:        GroupAuditor,
			DisplayName: "Auditor",
			BaseRole:    RoleResident,
			Modules: map[string]GroupFlags{
				ModuleFinancialStatements: readPrint,
				ModuleGeneralLedger:       readPrint,
			},
		},
		{
			Name:        GroupSupportStaff,
			DisplayName: "Support Staff",
			BaseRole:    RoleStaff,
			Modules: map[string]GroupFlags{
				ModuleMaintenance: GroupFlags{Access: true, View: true, Add: true, Edit: true},
				ModuleParcels:     GroupFlags{Access: true, View: true, Add: true, Edit: true, Print: true},
				ModuleNotices:     GroupFlags{Access: true, View: true, Add: true},
			},
		},
		{
			Name:        GroupManager,
			DisplayName: "Manager",
			BaseRole:    RoleProjectAdmin,
			Modules: map[string]GroupFlags{
				ModuleUsers:       GroupFlags{Access: true, View: true, Add: true, Edit: true, Assign: true},
				ModuleBilling:     GroupFlags{Access: true, View: true, Add: true, Edit: true, Delete: true, Approve: true, Export: true},
				ModuleMaintenance: GroupFlags{Access: true, View: true, Add: true, Edit: true, Assign: true, Approve: true},
				ModuleVendors:     GroupFlags{Access: true, View: true, Add: true, Edit: true, Delete: true},
				ModuleUnits:       GroupFlags{Access: true, View: true, Add: true, Edit: true},
			},
		},
	})
}
