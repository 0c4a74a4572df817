package backup

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denimstock/denimstock/internal/platform/db"
)

// serialTables have a BIGSERIAL id whose sequence is reset after restore.
var serialTables = []string{
	"users", "warehouses", "products", "clients", "invoices",
	"invoice_items", "payments", "sales", "audit_logs",
}

// Database copies tables in and out.
type Database interface {
	Dump(ctx context.Context, table string, w io.Writer) (int64, error)
	Restore(ctx context.Context, tables []string, open func(table string) (io.ReadCloser, error)) error
}

// PostgresDatabase implements Database with COPY.
type PostgresDatabase struct {
	pool *pgxpool.Pool
}

// NewPostgresDatabase wraps pool.
func NewPostgresDatabase(pool *pgxpool.Pool) *PostgresDatabase {
	return &PostgresDatabase{pool: pool}
}

// Dump writes table as CSV with a header row.
func (p *PostgresDatabase) Dump(ctx context.Context, table string, w io.Writer) (int64, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()
	tag, err := conn.Conn().PgConn().CopyTo(ctx, w, fmt.Sprintf("COPY %s TO STDOUT (FORMAT csv, HEADER)", pgx.Identifier{table}.Sanitize()))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Restore truncates every table and loads each from open in one transaction,
// then moves the id sequences past the loaded rows.
func (p *PostgresDatabase) Restore(ctx context.Context, tables []string, open func(table string) (io.ReadCloser, error)) error {
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		idents := make([]string, len(tables))
		for i, t := range tables {
			idents[i] = pgx.Identifier{t}.Sanitize()
		}
		if _, err := tx.Exec(ctx, "TRUNCATE "+strings.Join(idents, ", ")+" RESTART IDENTITY CASCADE"); err != nil {
			return fmt.Errorf("backup: truncate: %w", err)
		}
		for i, table := range tables {
			if err := copyIn(ctx, tx, idents[i], table, open); err != nil {
				return err
			}
		}
		for _, table := range serialTables {
			ident := pgx.Identifier{table}.Sanitize()
			_, err := tx.Exec(ctx, fmt.Sprintf(
				"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 1), MAX(id) IS NOT NULL) FROM %s",
				table, ident))
			if err != nil {
				return fmt.Errorf("backup: reset sequence of %s: %w", table, err)
			}
		}
		return nil
	})
}

func copyIn(ctx context.Context, tx pgx.Tx, ident, table string, open func(string) (io.ReadCloser, error)) error {
	rc, err := open(table)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	if _, err := tx.Conn().PgConn().CopyFrom(ctx, rc, fmt.Sprintf("COPY %s FROM STDIN (FORMAT csv, HEADER)", ident)); err != nil {
		return fmt.Errorf("backup: load %s: %w", table, err)
	}
	return nil
}
