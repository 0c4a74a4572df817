package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denimstock/denimstock/internal/platform/db"
	"github.com/denimstock/denimstock/internal/shared"
)

// Repository is the clients persistence port.
type Repository interface {
	Get(ctx context.Context, id int64) (Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Search(ctx context.Context, query string, limit int) ([]Client, error)
	Create(ctx context.Context, req CreateClientRequest) (Client, error)
	Update(ctx context.Context, id int64, req UpdateClientRequest) (Client, error)
	ListInvoices(ctx context.Context, clientID int64) ([]InvoiceSummary, error)
}

// ClientTx is the transactional view invoices and payments need.
type ClientTx interface {
	InsertClient(ctx context.Context, req CreateClientRequest) (Client, error)
	LockClient(ctx context.Context, id int64) (Client, error)
}

// Store runs client statements against a pool or an open transaction.
type Store struct {
	db db.DBTX
}

// NewStore wraps q. Invoice creation uses it inside its own transaction.
func NewStore(q db.DBTX) *Store {
	return &Store{db: q}
}

// NewRepository returns a pool backed repository.
func NewRepository(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

const clientColumns = `id, name, phone, location, gender, created_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Location, &c.Gender, &c.CreatedAt)
	return c, err
}

// Get loads one client.
func (s *Store) Get(ctx context.Context, id int64) (Client, error) {
	c, err := scanClient(s.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, fmt.Errorf("client %d: %w", id, shared.ErrNotFound)
	}
	return c, err
}

// LockClient loads one client FOR UPDATE.
func (s *Store) LockClient(ctx context.Context, id int64) (Client, error) {
	c, err := scanClient(s.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, fmt.Errorf("client %d: %w", id, shared.ErrNotFound)
	}
	return c, err
}

// List returns a page of clients ordered by name plus the total match count.
func (s *Store) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	pattern := "%" + req.Search + "%"
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE name ILIKE $1 OR phone ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.Query(ctx, `SELECT `+clientColumns+` FROM clients
WHERE name ILIKE $1 OR phone ILIKE $1
ORDER BY name, id
LIMIT $2 OFFSET $3`, pattern, req.Limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectClients(rows)
	return out, total, err
}

// Search matches name or phone case-insensitively.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Client, error) {
	rows, err := s.db.Query(ctx, `SELECT `+clientColumns+` FROM clients
WHERE name ILIKE $1 OR phone ILIKE $1
ORDER BY name, id
LIMIT $2`, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	return collectClients(rows)
}

// Create inserts a client.
func (s *Store) Create(ctx context.Context, req CreateClientRequest) (Client, error) {
	c, err := scanClient(s.db.QueryRow(ctx, `INSERT INTO clients (name, phone, location, gender)
VALUES ($1, $2, $3, $4) RETURNING `+clientColumns, req.Name, req.Phone, req.Location, req.Gender))
	return c, db.MapError(err)
}

// Update replaces editable fields.
func (s *Store) Update(ctx context.Context, id int64, req UpdateClientRequest) (Client, error) {
	c, err := scanClient(s.db.QueryRow(ctx, `UPDATE clients SET name = $2, phone = $3, location = $4, gender = $5, updated_at = NOW()
WHERE id = $1 RETURNING `+clientColumns, id, req.Name, req.Phone, req.Location, req.Gender))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, fmt.Errorf("client %d: %w", id, shared.ErrNotFound)
	}
	return c, db.MapError(err)
}

// InsertClient creates a client inside the caller's transaction.
func (s *Store) InsertClient(ctx context.Context, req CreateClientRequest) (Client, error) {
	return s.Create(ctx, req)
}

// ListInvoices returns the client's invoices newest first.
func (s *Store) ListInvoices(ctx context.Context, clientID int64) ([]InvoiceSummary, error) {
	rows, err := s.db.Query(ctx, `SELECT id, invoice_number, invoice_date, total_amount, paid_amount, remaining_amount, payment_status, status
FROM invoices WHERE client_id = $1
ORDER BY invoice_date DESC, id DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []InvoiceSummary
	for rows.Next() {
		var inv InvoiceSummary
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.InvoiceDate, &inv.TotalAmount, &inv.PaidAmount,
			&inv.RemainingAmount, &inv.PaymentStatus, &inv.Status); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func collectClients(rows pgx.Rows) ([]Client, error) {
	defer rows.Close()
	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var (
	_ Repository = (*Store)(nil)
	_ ClientTx   = (*Store)(nil)
)
