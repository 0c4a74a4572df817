package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/denimstock/denimstock/internal/shared"
)

// StockTx is the transactional view of the stock table the ledger mutates.
// Implementations lock the row on LockStock for the rest of the transaction.
type StockTx interface {
	LockStock(ctx context.Context, productID, warehouseID int64) (StockRow, error)
	UpdateStockQuantity(ctx context.Context, productID, warehouseID int64, quantity int) error
	InsertStock(ctx context.Context, productID, warehouseID int64, quantity int) error
}

// Ledger applies quantity changes to stock rows. Reserve is the only path
// that lowers a quantity and it never writes a negative value.
type Ledger struct {
	policy ReleasePolicy
}

// NewLedger builds a ledger with the given release policy.
func NewLedger(policy ReleasePolicy) *Ledger {
	return &Ledger{policy: policy}
}

// Policy returns the configured release policy.
func (l *Ledger) Policy() ReleasePolicy { return l.policy }

// Get returns the locked quantity of the stock row.
func (l *Ledger) Get(ctx context.Context, tx StockTx, productID, warehouseID int64) (int, error) {
	row, err := tx.LockStock(ctx, productID, warehouseID)
	if err != nil {
		return 0, err
	}
	return row.Quantity, nil
}

// Reserve decrements the row by qty. A missing row or a quantity larger than
// the row yields an InsufficientStockError and leaves the row untouched.
func (l *Ledger) Reserve(ctx context.Context, tx StockTx, productID, warehouseID int64, qty int) error {
	if qty <= 0 {
		return shared.Invalid("quantity", "must be greater than 0")
	}
	row, err := tx.LockStock(ctx, productID, warehouseID)
	if err != nil {
		if errors.Is(err, ErrStockNotFound) {
			return &InsufficientStockError{ProductID: productID, WarehouseID: warehouseID, Requested: qty}
		}
		return err
	}
	if qty > row.Quantity {
		return &InsufficientStockError{ProductID: productID, WarehouseID: warehouseID, Available: row.Quantity, Requested: qty}
	}
	return tx.UpdateStockQuantity(ctx, productID, warehouseID, row.Quantity-qty)
}

// Release increments the row by qty. A missing row is created or rejected
// depending on the ledger policy.
func (l *Ledger) Release(ctx context.Context, tx StockTx, productID, warehouseID int64, qty int) error {
	if qty <= 0 {
		return shared.Invalid("quantity", "must be greater than 0")
	}
	row, err := tx.LockStock(ctx, productID, warehouseID)
	switch {
	case err == nil:
		return tx.UpdateStockQuantity(ctx, productID, warehouseID, row.Quantity+qty)
	case errors.Is(err, ErrStockNotFound) && l.policy == CreateMissing:
		return tx.InsertStock(ctx, productID, warehouseID, qty)
	case errors.Is(err, ErrStockNotFound):
		return fmt.Errorf("release %d of product %d to warehouse %d: %w", qty, productID, warehouseID, err)
	default:
		return err
	}
}

// Set overwrites the row quantity, creating the row when absent. Used by
// product edits where the operator states the counted quantity.
func (l *Ledger) Set(ctx context.Context, tx StockTx, productID, warehouseID int64, qty int) error {
	if qty < 0 {
		return shared.Invalid("quantity", "must not be negative")
	}
	_, err := tx.LockStock(ctx, productID, warehouseID)
	switch {
	case err == nil:
		return tx.UpdateStockQuantity(ctx, productID, warehouseID, qty)
	case errors.Is(err, ErrStockNotFound):
		return tx.InsertStock(ctx, productID, warehouseID, qty)
	default:
		return err
	}
}
