package shared

// Accounting permissions declared for RBAC.
const (
	PermCOAView = "chart_of_accounts.view"
	PermCOAEdit = "chart_of_accounts.edit"

	PermGLView   = "general_ledger.view"
	PermGLExport = "general_ledger.export"

	PermStatementsView   = "financial_statements.view"
	PermStatementsExport = "financial_statements.export"
)

// AccountingScopes lists all permissions related to the accounting module.
func AccountingScopes() []string {
	return []string{
		PermCOAView,
		PermCOAEdit,
		PermGLView,
		PermGLExport,
		PermStatementsView,
		PermStatementsExport,
	}
}
