package payments

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denimstock/denimstock/internal/clients"
	"github.com/denimstock/denimstock/internal/invoices"
	"github.com/denimstock/denimstock/internal/platform/db"
)

// TxRepository exposes the statements a payment runs inside one transaction.
type TxRepository interface {
	invoices.InvoiceTx
	clients.ClientTx

	LockOutstandingInvoices(ctx context.Context, clientID int64) ([]invoices.Invoice, error)
	InsertPayment(ctx context.Context, p Payment) (Payment, error)
}

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Repository provides persistence for payments.
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
		return fn(ctx, newTxStore(tx))
	})
}

type txStore struct {
	*invoices.TxStore
	q db.DBTX
}

func newTxStore(q db.DBTX) *txStore {
	return &txStore{TxStore: invoices.NewTxStore(q), q: q}
}

// LockOutstandingInvoices locks the client's open invoices oldest first.
func (s *txStore) LockOutstandingInvoices(ctx context.Context, clientID int64) ([]invoices.Invoice, error) {
	rows, err := s.q.Query(ctx, `SELECT id, invoice_number, client_id, invoice_date, total_amount, paid_amount,
    remaining_amount, payment_method, payment_status, status, created_at
FROM invoices
WHERE client_id = $1
  AND payment_status IN ('pending', 'partial')
  AND status <> 'cancelled'
ORDER BY invoice_date, id
FOR UPDATE`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []invoices.Invoice
	for rows.Next() {
		var inv invoices.Invoice
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientID, &inv.InvoiceDate, &inv.TotalAmount, &inv.PaidAmount,
			&inv.RemainingAmount, &inv.PaymentMethod, &inv.PaymentStatus, &inv.Status, &inv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// InsertPayment appends a payment row.
func (s *txStore) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	err := s.q.QueryRow(ctx, `INSERT INTO payments (invoice_id, amount, payment_method, paid_at, notes)
VALUES ($1, $2, $3, $4, $5) RETURNING id`, p.InvoiceID, p.Amount, p.PaymentMethod, p.PaidAt, p.Notes).Scan(&p.ID)
	if err != nil {
		return Payment{}, db.MapError(err)
	}
	return p, nil
}

var _ TxRepository = (*txStore)(nil)
