package settings

import "time"

// Sections that can appear in the sidebar.
var Sections = []string{"dashboard", "inventory", "warehouses", "sales", "alerts", "invoices", "reports", "debtors", "clients", "settings"}

// Settings is the single store configuration row.
type Settings struct {
	BrandName       string    `json:"brand_name" validate:"required,max=100"`
	LogoURL         string    `json:"logo_url" validate:"omitempty,max=200"`
	SidebarImageURL string    `json:"sidebar_image_url" validate:"omitempty,max=200"`
	OwnerEmail      string    `json:"owner_email" validate:"omitempty,email,max=120"`
	ThemeColor      string    `json:"theme_color" validate:"required,hexcolor"`
	AboutTitle      string    `json:"about_title" validate:"max=100"`
	AboutText       string    `json:"about_text" validate:"max=2000"`
	ContactPhone    string    `json:"contact_phone" validate:"max=20"`
	ContactEmail    string    `json:"contact_email" validate:"omitempty,email,max=120"`
	ShowDashboard   bool      `json:"show_dashboard"`
	ShowInventory   bool      `json:"show_inventory"`
	ShowWarehouses  bool      `json:"show_warehouses"`
	ShowSales       bool      `json:"show_sales"`
	ShowAlerts      bool      `json:"show_alerts"`
	ShowInvoices    bool      `json:"show_invoices"`
	ShowReports     bool      `json:"show_reports"`
	ShowDebtors     bool      `json:"show_debtors"`
	ShowClients     bool      `json:"show_clients"`
	ShowSettings    bool      `json:"show_settings"`
	SidebarOrder    []string  `json:"sidebar_order" validate:"omitempty,dive,oneof=dashboard inventory warehouses sales alerts invoices reports debtors clients settings"`
	UpdatedAt       time.Time `json:"updated_at" validate:"-"`
}

// Defaults returns the row written on first boot.
func Defaults() Settings {
	return Settings{
		BrandName:      "My Store",
		ThemeColor:     "#007bff",
		ShowDashboard:  true,
		ShowInventory:  true,
		ShowWarehouses: true,
		ShowSales:      true,
		ShowAlerts:     true,
		ShowInvoices:   true,
		ShowReports:    true,
		ShowDebtors:    true,
		ShowClients:    true,
		ShowSettings:   true,
		SidebarOrder:   []string{"dashboard", "inventory", "warehouses", "sales", "alerts", "invoices", "reports", "debtors", "clients"},
	}
}
