package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/denimstock/denimstock/internal/clients"
)

// Invoice lifecycle status.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// Payment status.
const (
	PaymentPending = "pending"
	PaymentPartial = "partial"
	PaymentPaid    = "paid"
)

// Invoice is the aggregate root. RemainingAmount always equals
// TotalAmount - PaidAmount once persisted.
type Invoice struct {
	ID              int64           `json:"id"`
	InvoiceNumber   string          `json:"invoice_number"`
	ClientID        int64           `json:"client_id"`
	ClientName      string          `json:"client_name,omitempty"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   string          `json:"payment_status"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Item is one invoice line. Price is frozen when the line is first added.
type Item struct {
	ID            int64           `json:"id"`
	InvoiceID     int64           `json:"invoice_id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name,omitempty"`
	WarehouseID   int64           `json:"warehouse_id"`
	WarehouseName string          `json:"warehouse_name,omitempty"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// PaymentLine is a payment as shown on the invoice page.
type PaymentLine struct {
	ID            int64           `json:"id"`
	InvoiceID     int64           `json:"invoice_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaidAt        time.Time       `json:"paid_at"`
	Notes         string          `json:"notes"`
}

// Detail bundles an invoice with its lines and payments.
type Detail struct {
	Invoice
	Items    []Item        `json:"items"`
	Payments []PaymentLine `json:"payments"`
}

// CreateInput opens an invoice for ClientID or, when NewClient is set, for a
// client created in the same transaction.
type CreateInput struct {
	ClientID      int64                        `json:"client_id"`
	NewClient     *clients.CreateClientRequest `json:"new_client" validate:"omitempty"`
	InvoiceDate   time.Time                    `json:"invoice_date"`
	PaymentMethod string                       `json:"payment_method" validate:"omitempty,oneof=cash visa wallet"`
}

// AddItemInput adds Quantity units of a product taken from a warehouse.
type AddItemInput struct {
	ProductID   int64 `json:"product_id" validate:"required,gt=0"`
	WarehouseID int64 `json:"warehouse_id" validate:"required,gt=0"`
	Quantity    int   `json:"quantity" validate:"required,gt=0"`
}

// AddItemResult reports the line after the addition and the amount it added
// to the invoice total.
type AddItemResult struct {
	Item    Item            `json:"item"`
	Merged  bool            `json:"merged"`
	Added   decimal.Decimal `json:"added"`
	Invoice Invoice         `json:"invoice"`
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	ClientID      int64
	PaymentStatus string
}
