package reports

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/denimstock/denimstock/internal/inventory"
	"github.com/denimstock/denimstock/internal/sales"
	"github.com/denimstock/denimstock/internal/shared"
)

type mockRepo struct {
	paid         []DatedAmount
	paidFrom     time.Time
	paidTo       time.Time
	value        decimal.Decimal
	total        decimal.Decimal
	totalErr     error
	methods      []MethodTotal
	pending      []ClientBalance
	top          []ProductSales
	debtors      []ClientBalance
	debtorCalls  atomic.Int32
	stock        StockTotals
	counts       InvoiceCounts
	recent       []RecentInvoice
	recentSales  []sales.SaleView
	periodSales  []sales.SaleView
	periodFrom   *time.Time
	periodTo     *time.Time
	summaries    []ClientSummary
	overviewHits atomic.Int32
}

func (m *mockRepo) PaidInvoiceTotals(ctx context.Context, from, to time.Time) ([]DatedAmount, error) {
	m.paidFrom, m.paidTo = from, to
	return m.paid, nil
}

func (m *mockRepo) InventoryValue(ctx context.Context) (decimal.Decimal, error) {
	m.overviewHits.Add(1)
	return m.value, nil
}

func (m *mockRepo) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	return m.total, m.totalErr
}

func (m *mockRepo) PaymentStats(ctx context.Context) ([]MethodTotal, error) { return m.methods, nil }

func (m *mockRepo) PendingPayments(ctx context.Context) ([]ClientBalance, error) {
	return m.pending, nil
}

func (m *mockRepo) TopSelling(ctx context.Context, limit int) ([]ProductSales, error) {
	if len(m.top) > limit {
		return m.top[:limit], nil
	}
	return m.top, nil
}

func (m *mockRepo) Debtors(ctx context.Context) ([]ClientBalance, error) {
	m.debtorCalls.Add(1)
	return m.debtors, nil
}

func (m *mockRepo) StockTotals(ctx context.Context, threshold int) (StockTotals, error) {
	return m.stock, nil
}

func (m *mockRepo) InvoiceCounts(ctx context.Context) (InvoiceCounts, error) { return m.counts, nil }

func (m *mockRepo) RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error) {
	return m.recent, nil
}

func (m *mockRepo) RecentSales(ctx context.Context, limit int) ([]sales.SaleView, error) {
	return m.recentSales, nil
}

func (m *mockRepo) SalesBetween(ctx context.Context, from, to *time.Time) ([]sales.SaleView, error) {
	m.periodFrom, m.periodTo = from, to
	return m.periodSales, nil
}

func (m *mockRepo) ClientSummaries(ctx context.Context) ([]ClientSummary, error) {
	return m.summaries, nil
}

type fixedLowStock struct{ rows []inventory.StockView }

func (f fixedLowStock) LowStock(ctx context.Context) ([]inventory.StockView, error) { return f.rows, nil }
func (f fixedLowStock) Threshold() int { return 48 }

var testNow = time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, repo Repository) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := NewService(repo, NewCache(client, time.Minute), fixedLowStock{}, nil).
		WithClock(func() time.Time { return testNow })
	return svc, mr
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDailySalesZeroFillsAndSumsPerDay(t *testing.T) {
	repo := &mockRepo{paid: []DatedAmount{
		{At: time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC), Amount: dec("100")},
		{At: time.Date(2024, 3, 14, 18, 0, 0, 0, time.UTC), Amount: dec("25.50")},
		{At: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), Amount: dec("40")},
	}}
	svc, _ := newTestService(t, repo)

	days, err := svc.DailySales(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, days, 7)
	require.Equal(t, "2024-03-08", days[0].Date)
	require.Equal(t, "Friday", days[0].Weekday)
	require.Equal(t, "2024-03-14", days[6].Date)
	require.True(t, days[6].Total.Equal(dec("125.50")))
	require.True(t, days[2].Total.Equal(dec("40")))
	require.True(t, days[1].Total.IsZero())
	require.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), repo.paidFrom)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), repo.paidTo)
}

func TestOverviewIsCachedUntilBump(t *testing.T) {
	repo := &mockRepo{value: dec("1000"), total: dec("300")}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	ov, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.True(t, ov.InventoryValue.Equal(dec("1000")))
	require.NotNil(t, ov.TopSelling)
	require.Equal(t, int32(1), repo.overviewHits.Load())

	_, err = svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(1), repo.overviewHits.Load())

	require.NoError(t, svc.Cache().Bump(ctx))
	repo.value = dec("1200")
	ov, err = svc.Overview(ctx)
	require.NoError(t, err)
	require.True(t, ov.InventoryValue.Equal(dec("1200")))
	require.Equal(t, int32(2), repo.overviewHits.Load())
}

func TestOverviewPropagatesLoaderError(t *testing.T) {
	repo := &mockRepo{totalErr: errors.New("boom")}
	svc, _ := newTestService(t, repo)
	_, err := svc.Overview(context.Background())
	require.EqualError(t, err, "boom")
}

func TestReportsFallBackWhenRedisIsDown(t *testing.T) {
	repo := &mockRepo{debtors: []ClientBalance{{ClientID: 1, Name: "Omar", Amount: dec("70")}}}
	svc, mr := newTestService(t, repo)
	mr.Close()

	rows, err := svc.Debtors(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].Amount.Equal(dec("70")))
}

func TestDebtorsEmptyIsNotNil(t *testing.T) {
	svc, _ := newTestService(t, &mockRepo{})
	rows, err := svc.Debtors(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rows)
	require.Empty(t, rows)
}

func TestDashboardCombinesCounts(t *testing.T) {
	repo := &mockRepo{
		stock:  StockTotals{Units: 480, LowRows: 2, SaleRows: 9},
		counts: InvoiceCounts{Pending: 1, Partial: 2, Paid: 3},
		recent: []RecentInvoice{{ID: 5, InvoiceNumber: "INV-1"}},
	}
	svc, _ := newTestService(t, repo)
	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, 480, d.TotalStock)
	require.Equal(t, 2, d.LowStockCount)
	require.Equal(t, 9, d.SaleCount)
	require.Equal(t, 2, d.Invoices.Partial)
	require.Len(t, d.RecentInvoices, 1)
	require.NotNil(t, d.RecentSales)
}

func TestSalesByPeriodTotalsRows(t *testing.T) {
	repo := &mockRepo{periodSales: []sales.SaleView{
		{SaleRecord: sales.SaleRecord{ID: 1, TotalAmount: dec("10.25")}},
		{SaleRecord: sales.SaleRecord{ID: 2, TotalAmount: dec("4.75")}},
	}}
	svc, _ := newTestService(t, repo)

	report, err := svc.SalesByPeriod(context.Background(), PeriodMonth)
	require.NoError(t, err)
	require.True(t, report.Total.Equal(dec("15")))
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *repo.periodFrom)
	require.Nil(t, repo.periodTo)

	_, err = svc.SalesByPeriod(context.Background(), Period("year"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestPeriodRanges(t *testing.T) {
	from, to := PeriodDay.Range(testNow)
	require.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), *from)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *to)

	from, to = PeriodWeek.Range(testNow)
	require.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), *from)
	require.Nil(t, to)

	from, to = PeriodTotal.Range(testNow)
	require.Nil(t, from)
	require.Nil(t, to)
}

func TestInvalidateOnWriteBumpsAfterSuccess(t *testing.T) {
	svc, mr := newTestService(t, &mockRepo{})
	ctx := context.Background()
	before, err := svc.Cache().Version(ctx)
	require.NoError(t, err)

	status := http.StatusCreated
	handler := InvalidateOnWrite(svc.Cache(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/invoices", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/invoices", nil))
	status = http.StatusConflict
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/invoices", nil))

	after, err := mr.Get(cacheVersionKey)
	require.NoError(t, err)
	require.Equal(t, "2", after)
	require.Equal(t, int64(1), before)
}
