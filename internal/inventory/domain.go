package inventory

import (
	"fmt"
	"time"

	"github.com/denimstock/denimstock/internal/shared"
)

// DefaultLowStockThreshold marks a stock row as low when quantity falls below it.
const DefaultLowStockThreshold = 48

// ReleasePolicy decides what Release does when the stock row is absent.
type ReleasePolicy int

const (
	// RejectMissing fails a release on a missing row. Used for reversals.
	RejectMissing ReleasePolicy = iota
	// CreateMissing inserts the row. Used when a product is first stocked.
	CreateMissing
)

func (p ReleasePolicy) String() string {
	if p == CreateMissing {
		return "create-missing"
	}
	return "reject-missing"
}

// ErrStockNotFound indicates there is no stock row for the product and warehouse.
var ErrStockNotFound = fmt.Errorf("inventory: stock row missing: %w", shared.ErrNotFound)

// InsufficientStockError reports a reservation larger than the stock row.
type InsufficientStockError struct {
	ProductID   int64
	WarehouseID int64
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d in warehouse %d: requested %d, available %d",
		e.ProductID, e.WarehouseID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return shared.ErrInsufficientStock }

// StockRow is the quantity of one product held at one warehouse.
type StockRow struct {
	ProductID   int64
	WarehouseID int64
	Quantity    int
	UpdatedAt   time.Time
}

// StockView is a stock row joined with product and warehouse names.
type StockView struct {
	ProductID     int64     `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Barcode       string    `json:"barcode"`
	WarehouseID   int64     `json:"warehouse_id"`
	WarehouseName string    `json:"warehouse_name"`
	Quantity      int       `json:"quantity"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StockFilter narrows stock listings. Zero values match everything.
type StockFilter struct {
	ProductID   int64
	WarehouseID int64
}
