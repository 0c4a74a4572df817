package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denimstock/denimstock/internal/inventory"
	"github.com/denimstock/denimstock/internal/masterdata/shared"
	"github.com/denimstock/denimstock/internal/platform/db"
	internalShared "github.com/denimstock/denimstock/internal/shared"
)

// TxRepository is the transactional view product writes need.
type TxRepository interface {
	inventory.StockTx

	InsertProduct(ctx context.Context, p Product) (Product, error)
	LockProduct(ctx context.Context, id int64) (Product, error)
	UpdateProduct(ctx context.Context, p Product) error
	ProductInUse(ctx context.Context, id int64) (bool, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{StockTx: inventory.NewTxStore(tx), q: tx})
	})
}

const columns = `p.id, p.name, p.barcode, p.sizes, p.colors, p.price, p.pieces_per_dozen, p.dozens_per_package,
p.image_url, p.created_at, p.updated_at`

func scan(row pgx.Row, extra ...any) (Product, error) {
	var p Product
	dest := []any{&p.ID, &p.Name, &p.Barcode, &p.Sizes, &p.Colors, &p.Price, &p.PiecesPerDozen, &p.DozensPerPackage,
		&p.ImageURL, &p.CreatedAt, &p.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return p, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	pattern := "%" + filters.Search + "%"
	const where = `WHERE p.name ILIKE $1 OR p.barcode ILIKE $1 OR p.colors ILIKE $1`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products p `+where, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+columns+`, COALESCE(SUM(s.quantity), 0)
FROM products p
LEFT JOIN stock s ON s.product_id = p.id
`+where+`
GROUP BY p.id
ORDER BY `+sortOrder(filters)+`
LIMIT $2 OFFSET $3`, pattern, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var qty int
		p, err := scan(rows, &qty)
		if err != nil {
			return nil, 0, err
		}
		p.TotalQuantity = qty
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM products p WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("product %d: %w", id, internalShared.ErrNotFound)
	}
	if err != nil {
		return Product{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT s.warehouse_id, w.name, s.quantity
FROM stock s JOIN warehouses w ON w.id = s.warehouse_id
WHERE s.product_id = $1
ORDER BY w.name`, id)
	if err != nil {
		return Product{}, err
	}
	defer rows.Close()
	p.Stock = []StockLine{}
	for rows.Next() {
		var line StockLine
		if err := rows.Scan(&line.WarehouseID, &line.WarehouseName, &line.Quantity); err != nil {
			return Product{}, err
		}
		p.Stock = append(p.Stock, line)
		p.TotalQuantity += line.Quantity
	}
	return p, rows.Err()
}

type txRepo struct {
	inventory.StockTx
	q db.DBTX
}

func (t *txRepo) InsertProduct(ctx context.Context, p Product) (Product, error) {
	err := t.q.QueryRow(ctx, `INSERT INTO products (name, barcode, sizes, colors, price, pieces_per_dozen, dozens_per_package, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at, updated_at`, p.Name, p.Barcode, p.Sizes, p.Colors, p.Price, p.PiecesPerDozen, p.DozensPerPackage,
		p.ImageURL).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, db.MapError(err)
	}
	return p, nil
}

func (t *txRepo) LockProduct(ctx context.Context, id int64) (Product, error) {
	p, err := scan(t.q.QueryRow(ctx, `SELECT `+columns+` FROM products p WHERE p.id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("product %d: %w", id, internalShared.ErrNotFound)
	}
	return p, err
}

func (t *txRepo) UpdateProduct(ctx context.Context, p Product) error {
	_, err := t.q.Exec(ctx, `UPDATE products
SET name = $2, barcode = $3, sizes = $4, colors = $5, price = $6, pieces_per_dozen = $7, dozens_per_package = $8,
    image_url = $9, updated_at = NOW()
WHERE id = $1`, p.ID, p.Name, p.Barcode, p.Sizes, p.Colors, p.Price, p.PiecesPerDozen, p.DozensPerPackage, p.ImageURL)
	return db.MapError(err)
}

func (t *txRepo) ProductInUse(ctx context.Context, id int64) (bool, error) {
	var inUse bool
	err := t.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoice_items WHERE product_id = $1)
    OR EXISTS (SELECT 1 FROM sales WHERE product_id = $1)`, id).Scan(&inUse)
	return inUse, err
}

func (t *txRepo) DeleteProduct(ctx context.Context, id int64) error {
	_, err := t.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return db.MapError(err)
}

func sortOrder(filters shared.ListFilters) string {
	dir := filters.Direction()
	switch filters.SortBy {
	case "price":
		return "p.price " + dir + ", p.id"
	case "created":
		return "p.created_at " + dir + ", p.id"
	case "barcode":
		return "p.barcode " + dir + ", p.id"
	default:
		return "p.name " + dir + ", p.id"
	}
}
