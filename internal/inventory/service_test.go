package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows          []StockView
	lastThreshold int
}

func (m *memoryRepo) ListStock(ctx context.Context, filter StockFilter) ([]StockView, error) {
	var out []StockView
	for _, row := range m.rows {
		if filter.ProductID != 0 && row.ProductID != filter.ProductID {
			continue
		}
		if filter.WarehouseID != 0 && row.WarehouseID != filter.WarehouseID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memoryRepo) ListLowStock(ctx context.Context, threshold int) ([]StockView, error) {
	m.lastThreshold = threshold
	var out []StockView
	for _, row := range m.rows {
		if row.Quantity < threshold {
			out = append(out, row)
		}
	}
	return out, nil
}

func TestLowStockUsesDefaultThreshold(t *testing.T) {
	repo := &memoryRepo{rows: []StockView{
		{ProductID: 1, WarehouseID: 1, Quantity: 47},
		{ProductID: 2, WarehouseID: 1, Quantity: 48},
	}}
	svc := NewService(repo, 0)

	low, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Equal(t, DefaultLowStockThreshold, repo.lastThreshold)
	require.Len(t, low, 1)
	require.Equal(t, int64(1), low[0].ProductID)
}

func TestListStockFilters(t *testing.T) {
	repo := &memoryRepo{rows: []StockView{
		{ProductID: 1, WarehouseID: 1, Quantity: 5},
		{ProductID: 1, WarehouseID: 2, Quantity: 6},
		{ProductID: 2, WarehouseID: 2, Quantity: 7},
	}}
	svc := NewService(repo, 10)

	rows, err := svc.ListStock(context.Background(), StockFilter{WarehouseID: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}
