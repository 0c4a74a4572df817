package warehouses

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denimstock/denimstock/internal/masterdata/shared"
	"github.com/denimstock/denimstock/internal/platform/db"
	internalShared "github.com/denimstock/denimstock/internal/shared"
)

// ErrInUse is returned when a warehouse still holds stock or is referenced by
// invoice lines.
var ErrInUse = fmt.Errorf("warehouse still has stock or invoice lines: %w", internalShared.ErrConstraintViolation)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error)
	Get(ctx context.Context, id int64) (Warehouse, error)
	FindByName(ctx context.Context, name string) (Warehouse, error)
	Create(ctx context.Context, in Input) (Warehouse, error)
	Update(ctx context.Context, id int64, in Input) (Warehouse, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, name, location, description, created_at, updated_at`

func scan(row pgx.Row) (Warehouse, error) {
	var w Warehouse
	err := row.Scan(&w.ID, &w.Name, &w.Location, &w.Description, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error) {
	pattern := "%" + filters.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM warehouses WHERE name ILIKE $1 OR location ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM warehouses
WHERE name ILIKE $1 OR location ILIKE $1
ORDER BY `+sortOrder(filters)+`
LIMIT $2 OFFSET $3`, pattern, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Warehouse
	for rows.Next() {
		w, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, w)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Warehouse, error) {
	w, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM warehouses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Warehouse{}, fmt.Errorf("warehouse %d: %w", id, internalShared.ErrNotFound)
	}
	return w, err
}

func (r *repository) FindByName(ctx context.Context, name string) (Warehouse, error) {
	w, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM warehouses WHERE LOWER(name) = LOWER($1)`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return Warehouse{}, fmt.Errorf("warehouse %q: %w", name, internalShared.ErrNotFound)
	}
	return w, err
}

func (r *repository) Create(ctx context.Context, in Input) (Warehouse, error) {
	w, err := scan(r.pool.QueryRow(ctx, `INSERT INTO warehouses (name, location, description)
VALUES ($1, $2, $3) RETURNING `+columns, in.Name, in.Location, in.Description))
	return w, db.MapError(err)
}

func (r *repository) Update(ctx context.Context, id int64, in Input) (Warehouse, error) {
	w, err := scan(r.pool.QueryRow(ctx, `UPDATE warehouses SET name = $2, location = $3, description = $4, updated_at = NOW()
WHERE id = $1 RETURNING `+columns, id, in.Name, in.Location, in.Description))
	if errors.Is(err, pgx.ErrNoRows) {
		return Warehouse{}, fmt.Errorf("warehouse %d: %w", id, internalShared.ErrNotFound)
	}
	return w, db.MapError(err)
}

// Delete removes the warehouse unless stock rows or invoice lines point at it.
// The row is locked first so a concurrent stock insert cannot slip in.
func (r *repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM warehouses WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("warehouse %d: %w", id, internalShared.ErrNotFound)
		}
		if err != nil {
			return err
		}
		var inUse bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stock WHERE warehouse_id = $1)
    OR EXISTS (SELECT 1 FROM invoice_items WHERE warehouse_id = $1)`, id).Scan(&inUse); err != nil {
			return err
		}
		if inUse {
			return ErrInUse
		}
		_, err = tx.Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
		return err
	})
}

func sortOrder(filters shared.ListFilters) string {
	dir := filters.Direction()
	switch filters.SortBy {
	case "location":
		return "location " + dir + ", id"
	case "created":
		return "created_at " + dir + ", id"
	default:
		return "name " + dir + ", id"
	}
}
