package shared

// Back-office permissions evaluated per route by the rbac middleware.
const (
	PermInventoryView   = "inventory.view"
	PermInventoryManage = "inventory.manage"

	PermWarehousesView   = "warehouses.view"
	PermWarehousesManage = "warehouses.manage"

	PermClientsView   = "clients.view"
	PermClientsManage = "clients.manage"

	PermInvoicesView   = "invoices.view"
	PermInvoicesManage = "invoices.manage"
	PermPaymentsRecord = "payments.record"

	PermReportsView     = "reports.view"
	PermExportsDownload = "exports.download"

	PermSettingsManage = "settings.manage"
	PermUsersManage    = "users.manage"
	PermBackupManage   = "backup.manage"
	PermJobsView       = "jobs.view"
)

// Roles known to the system.
const (
	RoleOwner = "owner"
	RoleHR    = "hr"
	RoleStaff = "staff"
)

// StaffScopes lists permissions granted to every authenticated role.
func StaffScopes() []string {
	return []string{
		PermInventoryView,
		PermInventoryManage,
		PermWarehousesView,
		PermClientsView,
		PermClientsManage,
		PermInvoicesView,
		PermInvoicesManage,
		PermPaymentsRecord,
		PermReportsView,
		PermExportsDownload,
	}
}

// AdminScopes lists permissions reserved to administrative roles.
func AdminScopes() []string {
	return []string{
		PermWarehousesManage,
		PermSettingsManage,
		PermUsersManage,
		PermJobsView,
	}
}

// OwnerScopes lists permissions only the owner holds.
func OwnerScopes() []string {
	return []string{PermBackupManage}
}
