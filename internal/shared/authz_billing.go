package shared

// Billing and payment permissions declared for RBAC.
const (
	PermBillingView    = "billing.view"
	PermBillingCreate  = "billing.create"
	PermBillingDelete  = "billing.delete"
	PermBillingApprove = "billing.approve"

	PermPaymentsView   = "payments.view"
	PermPaymentsCreate = "payments.create"
	PermPaymentsExport = "payments.export"
)

// BillingScopes lists all permissions related to the billing module.
func BillingScopes() []string {
	return []string{
		PermBillingView,
		PermBillingCreate,
		PermBillingDelete,
		PermBillingApprove,
		PermPaymentsView,
		PermPaymentsCreate,
		PermPaymentsExport,
	}
}
