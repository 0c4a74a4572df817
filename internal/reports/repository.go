package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/denimstock/denimstock/internal/sales"
)

// DatedAmount is one paid invoice total at its invoice date.
type DatedAmount struct {
	At     time.Time
	Amount decimal.Decimal
}

// StockTotals are the stock figures of the dashboard.
type StockTotals struct {
	Units    int
	LowRows  int
	SaleRows int
}

// Repository exposes the read-only aggregations the service relies on.
type Repository interface {
	PaidInvoiceTotals(ctx context.Context, from, to time.Time) ([]DatedAmount, error)
	InventoryValue(ctx context.Context) (decimal.Decimal, error)
	TotalSales(ctx context.Context) (decimal.Decimal, error)
	PaymentStats(ctx context.Context) ([]MethodTotal, error)
	PendingPayments(ctx context.Context) ([]ClientBalance, error)
	TopSelling(ctx context.Context, limit int) ([]ProductSales, error)
	Debtors(ctx context.Context) ([]ClientBalance, error)
	StockTotals(ctx context.Context, threshold int) (StockTotals, error)
	InvoiceCounts(ctx context.Context) (InvoiceCounts, error)
	RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error)
	RecentSales(ctx context.Context, limit int) ([]sales.SaleView, error)
	SalesBetween(ctx context.Context, from, to *time.Time) ([]sales.SaleView, error)
	ClientSummaries(ctx context.Context) ([]ClientSummary, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) PaidInvoiceTotals(ctx context.Context, from, to time.Time) ([]DatedAmount, error) {
	rows, err := r.pool.Query(ctx, `SELECT invoice_date, total_amount FROM invoices
WHERE status = 'paid' AND invoice_date >= $1 AND invoice_date < $2`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DatedAmount
	for rows.Next() {
		var d DatedAmount
		if err := rows.Scan(&d.At, &d.Amount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *pgRepository) InventoryValue(ctx context.Context) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(p.price * s.quantity), 0)
FROM stock s JOIN products p ON p.id = s.product_id`).Scan(&v)
	return v, err
}

func (r *pgRepository) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM invoices WHERE status = 'paid'`).Scan(&v)
	return v, err
}

func (r *pgRepository) PaymentStats(ctx context.Context) ([]MethodTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT payment_method, COALESCE(SUM(paid_amount), 0)
FROM invoices
GROUP BY payment_method
ORDER BY payment_method`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MethodTotal
	for rows.Next() {
		var m MethodTotal
		if err := rows.Scan(&m.Method, &m.Amount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *pgRepository) PendingPayments(ctx context.Context) ([]ClientBalance, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.name, c.phone, SUM(i.remaining_amount)
FROM clients c
JOIN invoices i ON i.client_id = c.id
WHERE i.payment_status <> 'paid'
GROUP BY c.id, c.name, c.phone
ORDER BY c.name, c.id`)
	if err != nil {
		return nil, err
	}
	return collectBalances(rows)
}

func (r *pgRepository) Debtors(ctx context.Context) ([]ClientBalance, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.name, c.phone, SUM(i.remaining_amount) AS debt
FROM clients c
JOIN invoices i ON i.client_id = c.id
WHERE i.payment_status IN ('pending', 'partial')
GROUP BY c.id, c.name, c.phone
HAVING SUM(i.remaining_amount) > 0
ORDER BY debt DESC, c.id`)
	if err != nil {
		return nil, err
	}
	return collectBalances(rows)
}

func collectBalances(rows pgx.Rows) ([]ClientBalance, error) {
	defer rows.Close()
	var out []ClientBalance
	for rows.Next() {
		var b ClientBalance
		if err := rows.Scan(&b.ClientID, &b.Name, &b.Phone, &b.Amount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *pgRepository) TopSelling(ctx context.Context, limit int) ([]ProductSales, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.name, p.barcode, SUM(ii.quantity)::int AS sold
FROM invoice_items ii
JOIN invoices i ON i.id = ii.invoice_id
JOIN products p ON p.id = ii.product_id
WHERE i.status = 'paid'
GROUP BY p.id, p.name, p.barcode
ORDER BY sold DESC, p.id
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProductSales
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Barcode, &p.Quantity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgRepository) StockTotals(ctx context.Context, threshold int) (StockTotals, error) {
	var t StockTotals
	err := r.pool.QueryRow(ctx, `SELECT
    (SELECT COALESCE(SUM(quantity), 0)::int FROM stock),
    (SELECT COUNT(*)::int FROM stock WHERE quantity < $1),
    (SELECT COUNT(*)::int FROM sales)`, threshold).Scan(&t.Units, &t.LowRows, &t.SaleRows)
	return t, err
}

func (r *pgRepository) InvoiceCounts(ctx context.Context) (InvoiceCounts, error) {
	var c InvoiceCounts
	err := r.pool.QueryRow(ctx, `SELECT
    COUNT(*) FILTER (WHERE status <> 'cancelled' AND payment_status = 'pending')::int,
    COUNT(*) FILTER (WHERE status <> 'cancelled' AND payment_status = 'partial')::int,
    COUNT(*) FILTER (WHERE status <> 'cancelled' AND payment_status = 'paid')::int,
    COUNT(*) FILTER (WHERE status = 'cancelled')::int
FROM invoices`).Scan(&c.Pending, &c.Partial, &c.Paid, &c.Cancelled)
	return c, err
}

func (r *pgRepository) RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT i.id, i.invoice_number, c.name, i.invoice_date, i.total_amount,
       i.remaining_amount, i.payment_status, i.status
FROM invoices i
JOIN clients c ON c.id = i.client_id
ORDER BY i.invoice_date DESC, i.id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecentInvoice
	for rows.Next() {
		var inv RecentInvoice
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientName, &inv.InvoiceDate, &inv.TotalAmount,
			&inv.RemainingAmount, &inv.PaymentStatus, &inv.Status); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

const saleViewSelect = `SELECT s.id, s.product_id, COALESCE(s.invoice_item_id, 0), s.quantity, s.total_amount, s.sold_at, p.name, p.barcode
FROM sales s
JOIN products p ON p.id = s.product_id
`

func (r *pgRepository) RecentSales(ctx context.Context, limit int) ([]sales.SaleView, error) {
	rows, err := r.pool.Query(ctx, saleViewSelect+`ORDER BY s.sold_at DESC, s.id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectSales(rows)
}

func (r *pgRepository) SalesBetween(ctx context.Context, from, to *time.Time) ([]sales.SaleView, error) {
	rows, err := r.pool.Query(ctx, saleViewSelect+`WHERE ($1::timestamptz IS NULL OR s.sold_at >= $1)
  AND ($2::timestamptz IS NULL OR s.sold_at < $2)
ORDER BY s.sold_at, s.id`, from, to)
	if err != nil {
		return nil, err
	}
	return collectSales(rows)
}

func collectSales(rows pgx.Rows) ([]sales.SaleView, error) {
	defer rows.Close()
	var out []sales.SaleView
	for rows.Next() {
		var v sales.SaleView
		if err := rows.Scan(&v.ID, &v.ProductID, &v.InvoiceItemID, &v.Quantity, &v.TotalAmount, &v.SoldAt, &v.ProductName, &v.Barcode); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *pgRepository) ClientSummaries(ctx context.Context) ([]ClientSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.name, c.phone, c.location,
       COUNT(i.id)::int,
       COALESCE(SUM(i.total_amount), 0),
       COALESCE(SUM(i.remaining_amount) FILTER (WHERE i.payment_status IN ('pending', 'partial') AND i.remaining_amount > 0), 0)
FROM clients c
LEFT JOIN invoices i ON i.client_id = c.id
GROUP BY c.id, c.name, c.phone, c.location
ORDER BY c.name, c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ClientSummary
	for rows.Next() {
		var s ClientSummary
		if err := rows.Scan(&s.ClientID, &s.Name, &s.Phone, &s.Location, &s.InvoiceCount, &s.TotalPurchases, &s.TotalDebt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
