package sales

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denimstock/denimstock/internal/platform/db"
)

// TxStore implements SaleTx on an open transaction.
type TxStore struct {
	q db.DBTX
}

// NewTxStore wraps q.
func NewTxStore(q db.DBTX) *TxStore {
	return &TxStore{q: q}
}

// InsertSale writes the record.
func (s *TxStore) InsertSale(ctx context.Context, rec SaleRecord) (SaleRecord, error) {
	err := s.q.QueryRow(ctx, `INSERT INTO sales (product_id, invoice_item_id, quantity, total_amount, sold_at)
VALUES ($1, $2, $3, $4, $5) RETURNING id`, rec.ProductID, rec.InvoiceItemID, rec.Quantity, rec.TotalAmount, rec.SoldAt).
		Scan(&rec.ID)
	if err != nil {
		return SaleRecord{}, db.MapError(err)
	}
	return rec, nil
}

// DeleteSalesForItem removes records owned by the invoice item.
func (s *TxStore) DeleteSalesForItem(ctx context.Context, invoiceItemID int64) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM sales WHERE invoice_item_id = $1`, invoiceItemID)
	if err != nil {
		return 0, db.MapError(err)
	}
	return tag.RowsAffected(), nil
}

var _ SaleTx = (*TxStore)(nil)

// Repository serves sale listings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListSales returns sales newest first.
func (r *Repository) ListSales(ctx context.Context, filter ListFilter) ([]SaleView, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.id, s.product_id, COALESCE(s.invoice_item_id, 0), s.quantity, s.total_amount, s.sold_at, p.name, p.barcode
FROM sales s
JOIN products p ON p.id = s.product_id
WHERE ($1::timestamptz IS NULL OR s.sold_at >= $1)
  AND ($2::timestamptz IS NULL OR s.sold_at < $2)
ORDER BY s.sold_at DESC, s.id DESC
LIMIT $3`, nullTime(filter.From), nullTime(filter.To), filter.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SaleView
	for rows.Next() {
		var v SaleView
		if err := rows.Scan(&v.ID, &v.ProductID, &v.InvoiceItemID, &v.Quantity, &v.TotalAmount, &v.SoldAt, &v.ProductName, &v.Barcode); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
