//go:build integration

package backup_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denimstock/denimstock/internal/backup"
	"github.com/denimstock/denimstock/internal/platform/db/dbtest"
)

func TestPostgresSnapshotRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	cat := dbtest.SeedCatalog(t, pool, "120.00", 40)

	store, err := backup.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	svc := backup.NewService(backup.NewPostgresDatabase(pool), store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	obj, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `UPDATE stock SET quantity = 1`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO clients (name, phone) VALUES ('Later', '0111')`)
	require.NoError(t, err)

	rc, err := svc.Open(ctx, obj.Name)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	manifest, err := svc.Restore(ctx, bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, manifest.Tables, len(backup.Tables))

	require.Equal(t, 40, dbtest.Quantity(t, pool, cat.ProductID, cat.WarehouseID))
	require.Equal(t, 1, dbtest.Count(t, pool, "clients"))

	// Sequences continue after the restored ids.
	var next int64
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO clients (name, phone) VALUES ('After', '0122') RETURNING id`).Scan(&next))
	require.Greater(t, next, cat.ClientID)
}
