package clients

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client is a customer that owns invoices.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Location  string    `json:"location"`
	Gender    string    `json:"gender"`
	CreatedAt time.Time `json:"created_at"`
}

// InvoiceSummary is the slice of an invoice shown on the client page.
type InvoiceSummary struct {
	ID              int64           `json:"id"`
	InvoiceNumber   string          `json:"invoice_number"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PaymentStatus   string          `json:"payment_status"`
	Status          string          `json:"status"`
}

// Detail is a client with its invoices and running totals.
type Detail struct {
	Client         Client           `json:"client"`
	Invoices       []InvoiceSummary `json:"invoices"`
	TotalPurchases decimal.Decimal  `json:"total_purchases"`
	TotalDebt      decimal.Decimal  `json:"total_debt"`
}
