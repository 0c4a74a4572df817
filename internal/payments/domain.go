package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is an append-only payment row.
type Payment struct {
	ID            int64           `json:"id"`
	InvoiceID     int64           `json:"invoice_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaidAt        time.Time       `json:"paid_at"`
	Notes         string          `json:"notes"`
}

// Input is the body of both payment endpoints. IdempotencyKey comes from the
// Idempotency-Key header.
type Input struct {
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"payment_method" validate:"required,oneof=cash visa wallet"`
	Notes          string          `json:"notes" validate:"max=500"`
	IdempotencyKey string          `json:"-"`
}

// Outstanding is an invoice still open for payment, in allocation order.
type Outstanding struct {
	InvoiceID int64
	Remaining decimal.Decimal
}

// Allocation is the share of a client payment applied to one invoice.
type Allocation struct {
	InvoiceID     int64           `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentID     int64           `json:"payment_id,omitempty"`
	Remaining     decimal.Decimal `json:"remaining_amount"`
	PaymentStatus string          `json:"payment_status,omitempty"`
}

// ClientPaymentResult reports how a client payment was spread. Unused is
// the part of the amount that exceeded the client's open debt.
type ClientPaymentResult struct {
	ClientID     int64           `json:"client_id"`
	Allocations  []Allocation    `json:"allocations"`
	Applied      decimal.Decimal `json:"applied"`
	Unused       decimal.Decimal `json:"unused"`
	FullySettled bool            `json:"fully_settled"`
}
