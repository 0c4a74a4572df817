package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denimstock/denimstock/internal/platform/db"
)

// TxStore implements StockTx on an open transaction.
type TxStore struct {
	q db.DBTX
}

// NewTxStore wraps tx for ledger use.
func NewTxStore(q db.DBTX) *TxStore {
	return &TxStore{q: q}
}

// LockStock selects the row FOR UPDATE.
func (s *TxStore) LockStock(ctx context.Context, productID, warehouseID int64) (StockRow, error) {
	var row StockRow
	err := s.q.QueryRow(ctx, `SELECT product_id, warehouse_id, quantity, updated_at
FROM stock WHERE product_id = $1 AND warehouse_id = $2 FOR UPDATE`, productID, warehouseID).
		Scan(&row.ProductID, &row.WarehouseID, &row.Quantity, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockRow{}, ErrStockNotFound
	}
	return row, err
}

// UpdateStockQuantity writes the new quantity.
func (s *TxStore) UpdateStockQuantity(ctx context.Context, productID, warehouseID int64, quantity int) error {
	tag, err := s.q.Exec(ctx, `UPDATE stock SET quantity = $3, updated_at = NOW()
WHERE product_id = $1 AND warehouse_id = $2`, productID, warehouseID, quantity)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStockNotFound
	}
	return nil
}

// InsertStock creates the row.
func (s *TxStore) InsertStock(ctx context.Context, productID, warehouseID int64, quantity int) error {
	_, err := s.q.Exec(ctx, `INSERT INTO stock (product_id, warehouse_id, quantity) VALUES ($1, $2, $3)`,
		productID, warehouseID, quantity)
	return db.MapError(err)
}

var _ StockTx = (*TxStore)(nil)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const stockViewSelect = `SELECT s.product_id, p.name, p.barcode, s.warehouse_id, w.name, s.quantity, s.updated_at
FROM stock s
JOIN products p ON p.id = s.product_id
JOIN warehouses w ON w.id = s.warehouse_id`

// ListStock returns stock rows matching the filter ordered by product then warehouse.
func (r *Repository) ListStock(ctx context.Context, filter StockFilter) ([]StockView, error) {
	rows, err := r.pool.Query(ctx, stockViewSelect+`
WHERE ($1::bigint = 0 OR s.product_id = $1) AND ($2::bigint = 0 OR s.warehouse_id = $2)
ORDER BY p.name, w.name`, filter.ProductID, filter.WarehouseID)
	if err != nil {
		return nil, err
	}
	return collectStock(rows)
}

// ListLowStock returns rows whose quantity is below threshold, lowest first.
func (r *Repository) ListLowStock(ctx context.Context, threshold int) ([]StockView, error) {
	rows, err := r.pool.Query(ctx, stockViewSelect+`
WHERE s.quantity < $1
ORDER BY s.quantity, p.name`, threshold)
	if err != nil {
		return nil, err
	}
	return collectStock(rows)
}

func collectStock(rows pgx.Rows) ([]StockView, error) {
	defer rows.Close()
	var out []StockView
	for rows.Next() {
		var v StockView
		if err := rows.Scan(&v.ProductID, &v.ProductName, &v.Barcode, &v.WarehouseID, &v.WarehouseName, &v.Quantity, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
