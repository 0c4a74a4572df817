//go:build integration

// Package dbtest starts a disposable PostgreSQL container with the embedded
// migrations applied. Tests using it carry the integration build tag.
package dbtest

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/denimstock/denimstock/internal/platform/db"
)

// tables lists every application table, children before parents.
var tables = []string{
	"idempotency_keys", "audit_logs", "settings", "sales", "payments", "invoice_items",
	"invoices", "clients", "stock", "products", "warehouses", "users",
}

var (
	startOnce sync.Once
	sharedDSN string
	startErr  error
)

// Pool returns a pool on the shared container with every table emptied.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	startOnce.Do(func() {
		sharedDSN, startErr = start(ctx)
	})
	require.NoError(t, startErr, "start postgres container")

	pool, err := db.New(ctx, sharedDSN, db.PoolOptions{MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	Reset(t, pool)
	return pool
}

func start(ctx context.Context) (string, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("denimstock_test"),
		tcpostgres.WithUsername("denimstock"),
		tcpostgres.WithPassword("denimstock"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return "", err
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", err
	}
	pool, err := db.New(ctx, dsn, db.PoolOptions{MaxConns: 2})
	if err != nil {
		return "", err
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool, nil); err != nil {
		return "", err
	}
	return dsn, nil
}

// Reset empties every table and restarts identities.
func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), "TRUNCATE "+strings.Join(tables, ", ")+" RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

// Catalog is the minimal data an invoice flow needs.
type Catalog struct {
	WarehouseID int64
	ProductID   int64
	ClientID    int64
	Price       decimal.Decimal
}

// SeedCatalog inserts one warehouse, one product priced at price with
// quantity units in stock, and one client.
func SeedCatalog(t *testing.T, pool *pgxpool.Pool, price string, quantity int) Catalog {
	t.Helper()
	ctx := context.Background()
	c := Catalog{Price: decimal.RequireFromString(price)}
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO warehouses (name, location) VALUES ('Main Warehouse', 'Cairo') RETURNING id`).Scan(&c.WarehouseID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO products (name, barcode, sizes, colors, price, pieces_per_dozen, dozens_per_package)
		 VALUES ('Slim Indigo', 'JNS20240101000000', '30,32,34', 'indigo', $1, 12, 4) RETURNING id`, c.Price).Scan(&c.ProductID))
	_, err := pool.Exec(ctx, `INSERT INTO stock (product_id, warehouse_id, quantity) VALUES ($1, $2, $3)`, c.ProductID, c.WarehouseID, quantity)
	require.NoError(t, err)
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO clients (name, phone) VALUES ('Mona Store', '0100000000') RETURNING id`).Scan(&c.ClientID))
	return c
}

// Quantity reads the current stock quantity.
func Quantity(t *testing.T, pool *pgxpool.Pool, productID, warehouseID int64) int {
	t.Helper()
	var q int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT quantity FROM stock WHERE product_id = $1 AND warehouse_id = $2`, productID, warehouseID).Scan(&q))
	return q
}

// Count returns the row count of a table.
func Count(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
