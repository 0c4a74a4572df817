package sales

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/denimstock/denimstock/internal/shared"
)

type memoryTx struct {
	nextID  int64
	records []SaleRecord
}

func (m *memoryTx) InsertSale(ctx context.Context, rec SaleRecord) (SaleRecord, error) {
	m.nextID++
	rec.ID = m.nextID
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memoryTx) DeleteSalesForItem(ctx context.Context, invoiceItemID int64) (int64, error) {
	kept := m.records[:0]
	var removed int64
	for _, rec := range m.records {
		if rec.InvoiceItemID == invoiceItemID {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return removed, nil
}

func TestRecordStampsTime(t *testing.T) {
	fixed := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	w := &Writer{now: func() time.Time { return fixed }}
	tx := &memoryTx{}

	rec, err := w.Record(context.Background(), tx, SaleRecord{ProductID: 1, InvoiceItemID: 9, Quantity: 2, TotalAmount: decimal.NewFromInt(50)})
	require.NoError(t, err)
	require.Equal(t, int64(1), rec.ID)
	require.Equal(t, fixed, rec.SoldAt)
}

func TestRecordValidates(t *testing.T) {
	w := NewWriter()
	tx := &memoryTx{}
	_, err := w.Record(context.Background(), tx, SaleRecord{ProductID: 1, InvoiceItemID: 9, Quantity: 0, TotalAmount: decimal.Zero})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = w.Record(context.Background(), tx, SaleRecord{ProductID: 1, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, tx.records)
}

func TestRemoveForItemIsExact(t *testing.T) {
	w := NewWriter()
	tx := &memoryTx{}
	ctx := context.Background()
	// same product, quantity and amount on two lines must not be confused
	for _, item := range []int64{10, 11} {
		_, err := w.Record(ctx, tx, SaleRecord{ProductID: 3, InvoiceItemID: item, Quantity: 1, TotalAmount: decimal.NewFromInt(20)})
		require.NoError(t, err)
	}

	n, err := w.RemoveForItem(ctx, tx, 11)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.Len(t, tx.records, 1)
	require.Equal(t, int64(10), tx.records[0].InvoiceItemID)
}

type memoryRepo struct{ last ListFilter }

func (m *memoryRepo) ListSales(ctx context.Context, filter ListFilter) ([]SaleView, error) {
	m.last = filter
	return nil, nil
}

func TestListClampsLimit(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	_, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Equal(t, defaultListLimit, repo.last.Limit)

	_, err = svc.List(context.Background(), ListFilter{Limit: 5000})
	require.NoError(t, err)
	require.Equal(t, maxListLimit, repo.last.Limit)
}
