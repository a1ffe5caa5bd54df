package rbac

// Application module names gating sidebar/navigation visibility.
const (
	ModuleDashboard           = "dashboard"
	ModuleUsers               = "users"
	ModuleBilling             = "billing"
	ModulePayments            = "payments"
	ModuleChartOfAccounts     = "chart_of_accounts"
	ModuleGeneralLedger       = "general_ledger"
	ModuleFinancialStatements = "financial_statements"
	ModuleMaintenance         = "maintenance"
	ModuleParcels             = "parcels"
	ModuleNotices             = "notices"
	ModuleVendors             = "vendors"
	ModuleUnits               = "units"
	ModuleSettings            = "settings"
)

// ModulePermissions are the coarse capability flags a role gets on a module.
// A nil *ModulePermissions means "no access", which is different from a value
// with every flag false.
type ModulePermissions struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
	Manage bool `json:"manage"`
	Export bool `json:"export"`
	Assign bool `json:"assign"`
}

// ModuleAccess maps one module to the roles allowed into it and the flags
// they receive there.
type ModuleAccess struct {
	Module      string            `json:"module"`
	Roles       []string          `json:"roles"`
	Permissions ModulePermissions `json:"permissions"`
}

// ModuleRegistry is an immutable module→access table built once at startup
// and injected where needed. Super admin handling is code-level: the role
// lists below never need to mention super_admin, and CanAccess grants it
// every registered module. The lists are a secondary role gate in front of
// the fine-grained checker, not an exhaustive allow list.
type ModuleRegistry struct {
	entries map[string]ModuleAccess
	order   []string
}

// NewModuleRegistry builds a frozen registry from entries. Input slices are
// copied so later mutation of the caller's data cannot leak in.
func NewModuleRegistry(entries []ModuleAccess) *ModuleRegistry {
	reg := &ModuleRegistry{entries: make(map[string]ModuleAccess, len(entries))}
	for _, e := range entries {
		if _, dup := reg.entries[e.Module]; dup {
			continue
		}
		copied := e
		copied.Roles = append([]string(nil), e.Roles...)
		reg.entries[e.Module] = copied
		reg.order = append(reg.order, e.Module)
	}
	return reg
}

// CanAccess reports whether the role may enter the module.
func (r *ModuleRegistry) CanAccess(roleName, module string) bool {
	entry, ok := r.entries[module]
	if !ok {
		return false
	}
	if roleName == RoleSuperAdmin {
		return true
	}
	for _, name := range entry.Roles {
		if name == roleName {
			return true
		}
	}
	return false
}

// AccessibleModules returns, in registration order, every module the role may
// enter. Drives navigation rendering.
func (r *ModuleRegistry) AccessibleModules(roleName string) []ModuleAccess {
	var out []ModuleAccess
	for _, module := range r.order {
		if r.CanAccess(roleName, module) {
			out = append(out, r.entries[module])
		}
	}
	return out
}

// ModulePermissions returns the capability flags for the role on the module,
// or nil when the role has no access at all.
func (r *ModuleRegistry) ModulePermissions(roleName, module string) *ModulePermissions {
	if !r.CanAccess(roleName, module) {
		return nil
	}
	perms := r.entries[module].Permissions
	return &perms
}

// Modules returns all registered module names in registration order.
func (r *ModuleRegistry) Modules() []string {
	return append([]string(nil), r.order...)
}

// DefaultModuleRegistry returns the registry shipped with the product.
func DefaultModuleRegistry() *ModuleRegistry {
	all := ModulePermissions{View: true, Create: true, Update: true, Delete: true, Manage: true, Export: true, Assign: true}
	operate := ModulePermissions{View: true, Create: true, Update: true, Export: true}
	readOnly := ModulePermissions{View: true}

	return NewModuleRegistry([]ModuleAccess{
		{Module: ModuleDashboard, Roles: []string{RoleCompanyAdmin, RoleProjectAdmin, RoleStaff, RoleEngineer, RoleResident}, Permissions: readOnly},
		{Module: ModuleUsers, Roles: []string{RoleCompanyAdmin, RoleProjectAdmin}, Permissions: all},
		{Module: ModuleBilling, Roles: []string{RoleCompanyAdmin, RoleProjectAdmin, RoleStaff}, Permissions: operate},
		{Module: ModulePayments, Roles: []string{RoleCompanyAdmin, RoleProjectAdmin, RoleStaff, RoleResident}, Permissions: operate},
		{Module: ModuleChartOfAccounts, Roles: []string{RoleCompanyAdmin, RoleProjectAdmin}, Permissions: ModulePermissions{View: true, Create: true, Update: true, Manage: true}},
		{Module: ModuleGeneralLedger, Roles: []string{RoleCompanyAdmin, RoleProjectAdmin}, Permissions: ModulePermissions{View: true, Export: true}},
		{Module: ModuleFinancialStatements, Roles: []string{RoleCompanyAdmin, RoleProjectAdmin}, Permissions: ModulePermissions{View: true, Export: true}},
		{Module: ModuleMaintenance, Roles: []string{RoleCompanyAdmin, RoleProjectAdmin, RoleStaff, RoleEngineer, RoleResident}, Permissions: ModulePermissions{View: true, Create: true, Update: true, Assign: true}},
		{Module: ModuleParcels, Roles: []string{RoleCompanyAdmin, RoleProjectAdmin, RoleStaff, RoleResident}, Permissions: operate},
		{Module: ModuleNotices, Roles: []string{RoleCompanyAdmin, RoleProjectAdmin, RoleStaff, RoleResident}, Permissions: ModulePermissions{View: true, Create: true, Delete: true}},
		{Module: ModuleVendors, Roles: []string{RoleCompanyAdmin, RoleProjectAdmin, RoleStaff}, Permissions: operate},
		{Module: ModuleUnits, Roles: []string{RoleCompanyAdmin, RoleProjectAdmin, RoleStaff}, Permissions: ModulePermissions{View: true, Create: true, Update: true, Manage: true}},
		{Module: ModuleSettings, Roles: []string{RoleCompanyAdmin}, Permissions: ModulePermissions{View: true, Update: true, Manage: true}},
	})
}
