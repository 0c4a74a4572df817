package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/denimstock/denimstock/internal/shared"
)

// SaleTx is the transactional view of the sales table.
type SaleTx interface {
	InsertSale(ctx context.Context, rec SaleRecord) (SaleRecord, error)
	DeleteSalesForItem(ctx context.Context, invoiceItemID int64) (int64, error)
}

// Writer appends and removes sale records inside the caller's transaction.
type Writer struct {
	now func() time.Time
}

// NewWriter constructs a Writer.
func NewWriter() *Writer {
	return &Writer{now: time.Now}
}

// Record appends one sale.
func (w *Writer) Record(ctx context.Context, tx SaleTx, rec SaleRecord) (SaleRecord, error) {
	if rec.ProductID == 0 || rec.InvoiceItemID == 0 {
		return SaleRecord{}, shared.Invalid("invoice_item_id", "sale needs a product and an invoice item")
	}
	if rec.Quantity <= 0 {
		return SaleRecord{}, shared.Invalid("quantity", "must be greater than 0")
	}
	if rec.TotalAmount.IsNegative() {
		return SaleRecord{}, shared.Invalid("total_amount", "must not be negative")
	}
	if rec.SoldAt.IsZero() {
		rec.SoldAt = w.now().UTC()
	}
	saved, err := tx.InsertSale(ctx, rec)
	if err != nil {
		return SaleRecord{}, fmt.Errorf("sales: record for item %d: %w", rec.InvoiceItemID, err)
	}
	return saved, nil
}

// RemoveForItem deletes the records owned by the invoice item and returns
// how many were removed.
func (w *Writer) RemoveForItem(ctx context.Context, tx SaleTx, invoiceItemID int64) (int64, error) {
	n, err := tx.DeleteSalesForItem(ctx, invoiceItemID)
	if err != nil {
		return 0, fmt.Errorf("sales: remove for item %d: %w", invoiceItemID, err)
	}
	return n, nil
}
