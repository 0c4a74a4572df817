package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/denimstock/denimstock/internal/clients"
	"github.com/denimstock/denimstock/internal/inventory"
	"github.com/denimstock/denimstock/internal/platform/db"
	"github.com/denimstock/denimstock/internal/sales"
	"github.com/denimstock/denimstock/internal/shared"
)

// Repository provides persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxStore(tx))
	})
}

// TxStore implements TxRepository over a transaction. It composes the stock,
// sale and client stores so one transaction covers the whole mutation.
type TxStore struct {
	inventory.StockTx
	sales.SaleTx
	clients.ClientTx
	q db.DBTX
}

// NewTxStore wraps q.
func NewTxStore(q db.DBTX) *TxStore {
	return &TxStore{
		StockTx:  inventory.NewTxStore(q),
		SaleTx:   sales.NewTxStore(q),
		ClientTx: clients.NewStore(q),
		q:        q,
	}
}

const invoiceColumns = `i.id, i.invoice_number, i.client_id, c.name, i.invoice_date, i.total_amount, i.paid_amount,
i.remaining_amount, i.payment_method, i.payment_status, i.status, i.created_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientID, &inv.ClientName, &inv.InvoiceDate, &inv.TotalAmount,
		&inv.PaidAmount, &inv.RemainingAmount, &inv.PaymentMethod, &inv.PaymentStatus, &inv.Status, &inv.CreatedAt)
	return inv, err
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, shared.ErrNotFound)
	}
	return err
}

// LockInvoice loads the invoice row FOR UPDATE.
func (s *TxStore) LockInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(s.q.QueryRow(ctx, `SELECT `+invoiceColumns+`
FROM invoices i JOIN clients c ON c.id = i.client_id
WHERE i.id = $1
FOR UPDATE OF i`, id))
	return inv, notFound(err, "invoice", id)
}

// UpdateInvoiceAmounts persists the amounts, statuses and payment method.
func (s *TxStore) UpdateInvoiceAmounts(ctx context.Context, inv Invoice) error {
	_, err := s.q.Exec(ctx, `UPDATE invoices
SET total_amount = $2, paid_amount = $3, remaining_amount = $4, payment_status = $5, status = $6,
    payment_method = $7, updated_at = NOW()
WHERE id = $1`, inv.ID, inv.TotalAmount, inv.PaidAmount, inv.RemainingAmount, inv.PaymentStatus, inv.Status, inv.PaymentMethod)
	return db.MapError(err)
}

// InsertInvoice creates the invoice row.
func (s *TxStore) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	err := s.q.QueryRow(ctx, `INSERT INTO invoices (invoice_number, client_id, invoice_date, total_amount, paid_amount,
    remaining_amount, payment_method, payment_status, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, created_at`, inv.InvoiceNumber, inv.ClientID, inv.InvoiceDate, inv.TotalAmount, inv.PaidAmount,
		inv.RemainingAmount, inv.PaymentMethod, inv.PaymentStatus, inv.Status).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return Invoice{}, db.MapError(err)
	}
	return inv, nil
}

// ProductPrice returns the current product price.
func (s *TxStore) ProductPrice(ctx context.Context, productID int64) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := s.q.QueryRow(ctx, `SELECT price FROM products WHERE id = $1`, productID).Scan(&price)
	return price, notFound(err, "product", productID)
}

// WarehouseExists reports whether the warehouse row exists.
func (s *TxStore) WarehouseExists(ctx context.Context, warehouseID int64) (bool, error) {
	var ok bool
	err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM warehouses WHERE id = $1)`, warehouseID).Scan(&ok)
	return ok, err
}

const itemColumns = `id, invoice_id, product_id, warehouse_id, quantity, price, subtotal`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.WarehouseID, &it.Quantity, &it.Price, &it.Subtotal)
	return it, err
}

// FindItemForUpdate returns the line for (invoice, product, warehouse) if present.
func (s *TxStore) FindItemForUpdate(ctx context.Context, invoiceID, productID, warehouseID int64) (Item, bool, error) {
	it, err := scanItem(s.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM invoice_items
WHERE invoice_id = $1 AND product_id = $2 AND warehouse_id = $3
FOR UPDATE`, invoiceID, productID, warehouseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, false, nil
	}
	if err != nil {
		return Item{}, false, err
	}
	return it, true, nil
}

// GetItemForUpdate loads a line that must belong to the invoice.
func (s *TxStore) GetItemForUpdate(ctx context.Context, invoiceID, itemID int64) (Item, error) {
	it, err := scanItem(s.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM invoice_items
WHERE id = $1 AND invoice_id = $2
FOR UPDATE`, itemID, invoiceID))
	return it, notFound(err, "invoice item", itemID)
}

// ListItemsForUpdate locks every line of the invoice.
func (s *TxStore) ListItemsForUpdate(ctx context.Context, invoiceID int64) ([]Item, error) {
	rows, err := s.q.Query(ctx, `SELECT `+itemColumns+` FROM invoice_items
WHERE invoice_id = $1 ORDER BY id
FOR UPDATE`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// InsertItem creates a line.
func (s *TxStore) InsertItem(ctx context.Context, item Item) (Item, error) {
	err := s.q.QueryRow(ctx, `INSERT INTO invoice_items (invoice_id, product_id, warehouse_id, quantity, price, subtotal)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`, item.InvoiceID, item.ProductID, item.WarehouseID, item.Quantity,
		item.Price, item.Subtotal).Scan(&item.ID)
	if err != nil {
		return Item{}, db.MapError(err)
	}
	return item, nil
}

// UpdateItemQuantity rewrites quantity and subtotal of a line.
func (s *TxStore) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int, subtotal decimal.Decimal) error {
	_, err := s.q.Exec(ctx, `UPDATE invoice_items SET quantity = $2, subtotal = $3 WHERE id = $1`, itemID, quantity, subtotal)
	return db.MapError(err)
}

// DeleteItem removes a line.
func (s *TxStore) DeleteItem(ctx context.Context, itemID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM invoice_items WHERE id = $1`, itemID)
	return db.MapError(err)
}

// DeletePayments hard-deletes the invoice payments.
func (s *TxStore) DeletePayments(ctx context.Context, invoiceID int64) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM payments WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return 0, db.MapError(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteInvoice removes the invoice row.
func (s *TxStore) DeleteInvoice(ctx context.Context, invoiceID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, invoiceID)
	return db.MapError(err)
}

var _ TxRepository = (*TxStore)(nil)

// GetInvoice loads one invoice with its client name.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+`
FROM invoices i JOIN clients c ON c.id = i.client_id
WHERE i.id = $1`, id))
	return inv, notFound(err, "invoice", id)
}

// ListItems returns the lines with product and warehouse names.
func (r *Repository) ListItems(ctx context.Context, invoiceID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT it.id, it.invoice_id, it.product_id, p.name, it.warehouse_id, w.name,
    it.quantity, it.price, it.subtotal
FROM invoice_items it
JOIN products p ON p.id = it.product_id
JOIN warehouses w ON w.id = it.warehouse_id
WHERE it.invoice_id = $1
ORDER BY it.id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.ProductName, &it.WarehouseID, &it.WarehouseName,
			&it.Quantity, &it.Price, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListPayments returns payments oldest first.
func (r *Repository) ListPayments(ctx context.Context, invoiceID int64) ([]PaymentLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, invoice_id, amount, payment_method, paid_at, notes
FROM payments WHERE invoice_id = $1 ORDER BY paid_at, id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PaymentLine
	for rows.Next() {
		var p PaymentLine
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentMethod, &p.PaidAt, &p.Notes); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListInvoices returns invoices newest first with the total match count.
func (r *Repository) ListInvoices(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Invoice, int, error) {
	const where = `WHERE ($1::bigint = 0 OR i.client_id = $1) AND ($2::text = '' OR i.payment_status = $2)`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices i `+where, filter.ClientID, filter.PaymentStatus).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+`
FROM invoices i JOIN clients c ON c.id = i.client_id
`+where+`
ORDER BY i.invoice_date DESC, i.id DESC
LIMIT $3 OFFSET $4`, filter.ClientID, filter.PaymentStatus, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
