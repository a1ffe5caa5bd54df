package shared

// Core platform permissions.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"

	PermCompaniesView = "companies.view"
	PermCompaniesEdit = "companies.edit"

	PermProjectsView = "projects.view"
	PermProjectsEdit = "projects.edit"

	PermUnitsView = "units.view"
	PermUnitsEdit = "units.edit"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermRolesView,
		PermRolesEdit,
		PermPermissionsView,
		PermCompaniesView,
		PermCompaniesEdit,
		PermProjectsView,
		PermProjectsEdit,
		PermUnitsView,
		PermUnitsEdit,
	}
}
