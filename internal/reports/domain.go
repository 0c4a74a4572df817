package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/denimstock/denimstock/internal/sales"
	"github.com/denimstock/denimstock/internal/shared"
)

const (
	defaultDays     = 7
	maxDays         = 90
	defaultTopLimit = 5
	recentLimit     = 5
)

// DailySale is the paid invoice total of one calendar day.
type DailySale struct {
	Date    string          `json:"date"`
	Weekday string          `json:"weekday"`
	Total   decimal.Decimal `json:"total"`
}

// MethodTotal is the paid amount collected through one payment method.
type MethodTotal struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// ClientBalance is the outstanding amount of one client.
type ClientBalance struct {
	ClientID int64           `json:"client_id"`
	Name     string          `json:"name"`
	Phone    string          `json:"phone"`
	Amount   decimal.Decimal `json:"amount"`
}

// ProductSales ranks a product by units sold on paid invoices.
type ProductSales struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Barcode   string `json:"barcode"`
	Quantity  int    `json:"quantity"`
}

// Overview gathers the figures of the reports page.
type Overview struct {
	DailySales      []DailySale     `json:"daily_sales"`
	InventoryValue  decimal.Decimal `json:"inventory_value"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	PaymentStats    []MethodTotal   `json:"payment_stats"`
	PendingPayments []ClientBalance `json:"pending_payments"`
	TopSelling      []ProductSales  `json:"top_selling"`
}

// InvoiceCounts splits open invoices by payment status. Cancelled invoices
// are counted apart.
type InvoiceCounts struct {
	Pending   int `json:"pending"`
	Partial   int `json:"partial"`
	Paid      int `json:"paid"`
	Cancelled int `json:"cancelled"`
}

// RecentInvoice is a dashboard invoice line.
type RecentInvoice struct {
	ID              int64           `json:"id"`
	InvoiceNumber   string          `json:"invoice_number"`
	ClientName      string          `json:"client_name"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PaymentStatus   string          `json:"payment_status"`
	Status          string          `json:"status"`
}

// Dashboard is the landing page summary.
type Dashboard struct {
	TotalStock     int              `json:"total_stock"`
	LowStockCount  int              `json:"low_stock_count"`
	Invoices       InvoiceCounts    `json:"invoices"`
	RecentInvoices []RecentInvoice  `json:"recent_invoices"`
	SaleCount      int              `json:"sale_count"`
	RecentSales    []sales.SaleView `json:"recent_sales"`
}

// SalesReport lists sale records inside a period.
type SalesReport struct {
	Period Period           `json:"period"`
	From   *time.Time       `json:"from,omitempty"`
	To     *time.Time       `json:"to,omitempty"`
	Sales  []sales.SaleView `json:"sales"`
	Total  decimal.Decimal  `json:"total"`
}

// ClientSummary is one row of the clients export.
type ClientSummary struct {
	ClientID       int64           `json:"client_id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Location       string          `json:"location"`
	InvoiceCount   int             `json:"invoice_count"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	TotalDebt      decimal.Decimal `json:"total_debt"`
}

// Period selects the window of a sales report.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodTotal Period = "total"
)

// ParsePeriod validates a period name.
func ParsePeriod(raw string) (Period, error) {
	switch p := Period(raw); p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodTotal:
		return p, nil
	default:
		return "", shared.Invalid("period", "must be one of day, week, month, total")
	}
}

// Range returns the [from, to) window of the period relative to now. A nil
// bound is open.
func (p Period) Range(now time.Time) (from, to *time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch p {
	case PeriodDay:
		tomorrow := today.AddDate(0, 0, 1)
		return &today, &tomorrow
	case PeriodWeek:
		start := today.AddDate(0, 0, -7)
		return &start, nil
	case PeriodMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return &start, nil
	default:
		return nil, nil
	}
}

// Title is the heading printed on exported reports.
func (p Period) Title(now time.Time) string {
	switch p {
	case PeriodDay:
		return "Sales of " + now.Format("2006-01-02")
	case PeriodWeek:
		return "Sales of the last 7 days"
	case PeriodMonth:
		return "Sales of " + now.Format("January 2006")
	default:
		return "All sales"
	}
}
