package rbac

import "github.com/denimstock/denimstock/internal/shared"

// Permission represents an atomic capability.
type Permission struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RoleGrant lists the permissions a role holds.
type RoleGrant struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

var catalogue = []Permission{
	{Name: shared.PermInventoryView, Description: "View products and stock levels"},
	{Name: shared.PermInventoryManage, Description: "Create products and adjust stock"},
	{Name: shared.PermWarehousesView, Description: "View warehouses"},
	{Name: shared.PermWarehousesManage, Description: "Create, rename and delete warehouses"},
	{Name: shared.PermClientsView, Description: "View clients and their balances"},
	{Name: shared.PermClientsManage, Description: "Create and edit clients"},
	{Name: shared.PermInvoicesView, Description: "View invoices"},
	{Name: shared.PermInvoicesManage, Description: "Create invoices and edit their items"},
	{Name: shared.PermPaymentsRecord, Description: "Record invoice and client payments"},
	{Name: shared.PermReportsView, Description: "View dashboards and reports"},
	{Name: shared.PermExportsDownload, Description: "Download CSV, XLSX and PDF exports"},
	{Name: shared.PermSettingsManage, Description: "Edit store settings"},
	{Name: shared.PermUsersManage, Description: "Register and list users"},
	{Name: shared.PermBackupManage, Description: "Create, download and restore backups"},
	{Name: shared.PermJobsView, Description: "Inspect background job queues"},
}
