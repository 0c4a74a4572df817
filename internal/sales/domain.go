package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRecord is the append-only trail written once per invoice item addition.
// InvoiceItemID ties the record to the line that produced it.
type SaleRecord struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	InvoiceItemID int64           `json:"invoice_item_id"`
	Quantity      int             `json:"quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	SoldAt        time.Time       `json:"sold_at"`
}

// SaleView is a sale joined with its product name.
type SaleView struct {
	SaleRecord
	ProductName string `json:"product_name"`
	Barcode     string `json:"barcode"`
}

// ListFilter narrows sale listings. Zero times leave the range open.
type ListFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}
