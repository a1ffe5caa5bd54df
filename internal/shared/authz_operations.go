package shared

// Building operations permissions: maintenance, parcels, notices, vendors.
const (
	PermMaintenanceView    = "maintenance.view"
	PermMaintenanceCreate  = "maintenance.create"
	PermMaintenanceAssign  = "maintenance.assign"
	PermMaintenanceApprove = "maintenance.approve"

	PermParcelsView   = "parcels.view"
	PermParcelsCreate = "parcels.create"
	PermParcelsUpdate = "parcels.update"

	PermNoticesView   = "notices.view"
	PermNoticesCreate = "notices.create"
	PermNoticesDelete = "notices.delete"

	PermVendorsView = "vendors.view"
	PermVendorsEdit = "vendors.edit"
)

// OperationsScopes lists all permissions for day-to-day building operations.
func OperationsScopes() []string {
	return []string{
		PermMaintenanceView,
		PermMaintenanceCreate,
		PermMaintenanceAssign,
		PermMaintenanceApprove,
		PermParcelsView,
		PermParcelsCreate,
		PermParcelsUpdate,
		PermNoticesView,
		PermNoticesCreate,
		PermNoticesDelete,
		PermVendorsView,
		PermVendorsEdit,
	}
}
