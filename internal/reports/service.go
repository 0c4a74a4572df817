package reports

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/denimstock/denimstock/internal/inventory"
)

// LowStockLister lists stock rows below the alert threshold.
type LowStockLister interface {
	LowStock(ctx context.Context) ([]inventory.StockView, error)
	Threshold() int
}

// Service coordinates report queries with the cache layer.
type Service struct {
	repo     Repository
	cache    *Cache
	lowStock LowStockLister
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache, lowStock LowStockLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, lowStock: lowStock, logger: logger, now: time.Now}
}

// WithClock pins the clock used for day windows.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Cache exposes the cache so writers can invalidate it.
func (s *Service) Cache() *Cache { return s.cache }

func (s *Service) fetch(ctx context.Context, dest any, loader func(context.Context) (any, error), parts ...string) error {
	var loadErr error
	load := func(ctx context.Context) (any, error) {
		value, err := loader(ctx)
		loadErr = err
		return value, err
	}
	key, err := s.cache.BuildKey(ctx, parts...)
	if err == nil {
		err = s.cache.FetchJSON(ctx, key, dest, load)
		if err == nil || loadErr != nil {
			return err
		}
	}
	s.logger.Warn("report cache unavailable", slog.String("report", parts[0]), slog.Any("error", err))
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	return roundTrip(value, dest)
}

// DailySales returns the paid invoice totals of the last days days, oldest
// first, including today. Days without sales are zero.
func (s *Service) DailySales(ctx context.Context, days int) ([]DailySale, error) {
	if days <= 0 {
		days = defaultDays
	}
	if days > maxDays {
		days = maxDays
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from := today.AddDate(0, 0, -(days - 1))
	rows, err := s.repo.PaidInvoiceTotals(ctx, from, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return bucketDaily(rows, from, days), nil
}

func bucketDaily(rows []DatedAmount, from time.Time, days int) []DailySale {
	totals := make(map[string]decimal.Decimal, days)
	for _, row := range rows {
		day := row.At.In(from.Location()).Format(time.DateOnly)
		totals[day] = totals[day].Add(row.Amount)
	}
	out := make([]DailySale, 0, days)
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i)
		key := day.Format(time.DateOnly)
		out = append(out, DailySale{Date: key, Weekday: day.Weekday().String(), Total: totals[key]})
	}
	return out
}

// Overview loads every figure of the reports page in parallel.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var out Overview
	err := s.fetch(ctx, &out, func(ctx context.Context) (any, error) {
		return s.loadOverview(ctx)
	}, "overview", s.now().Format(time.DateOnly))
	return out, err
}

func (s *Service) loadOverview(ctx context.Context) (Overview, error) {
	var ov Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ov.DailySales, err = s.DailySales(ctx, defaultDays)
		return err
	})
	g.Go(func() (err error) {
		ov.InventoryValue, err = s.repo.InventoryValue(ctx)
		return err
	})
	g.Go(func() (err error) {
		ov.TotalSales, err = s.repo.TotalSales(ctx)
		return err
	})
	g.Go(func() (err error) {
		ov.PaymentStats, err = s.repo.PaymentStats(ctx)
		return err
	})
	g.Go(func() (err error) {
		ov.PendingPayments, err = s.repo.PendingPayments(ctx)
		return err
	})
	g.Go(func() (err error) {
		ov.TopSelling, err = s.repo.TopSelling(ctx, defaultTopLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	ov.PaymentStats = nonNil(ov.PaymentStats)
	ov.PendingPayments = nonNil(ov.PendingPayments)
	ov.TopSelling = nonNil(ov.TopSelling)
	return ov, nil
}

// InventoryValue returns the sum of price times quantity over every stock row.
func (s *Service) InventoryValue(ctx context.Context) (decimal.Decimal, error) {
	return s.repo.InventoryValue(ctx)
}

// TotalSales returns the total of paid invoices.
func (s *Service) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	return s.repo.TotalSales(ctx)
}

func (s *Service) PaymentStats(ctx context.Context) ([]MethodTotal, error) {
	rows, err := s.repo.PaymentStats(ctx)
	return nonNil(rows), err
}

func (s *Service) PendingPayments(ctx context.Context) ([]ClientBalance, error) {
	rows, err := s.repo.PendingPayments(ctx)
	return nonNil(rows), err
}

// TopSelling ranks products by units on paid invoices.
func (s *Service) TopSelling(ctx context.Context, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	rows, err := s.repo.TopSelling(ctx, limit)
	return nonNil(rows), err
}

// Debtors lists clients with a positive balance on pending or partial invoices.
func (s *Service) Debtors(ctx context.Context) ([]ClientBalance, error) {
	var out []ClientBalance
	err := s.fetch(ctx, &out, func(ctx context.Context) (any, error) {
		rows, err := s.repo.Debtors(ctx)
		return nonNil(rows), err
	}, "debtors")
	return nonNil(out), err
}

// Dashboard summarises stock, invoices and recent activity.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var out Dashboard
	err := s.fetch(ctx, &out, func(ctx context.Context) (any, error) {
		return s.loadDashboard(ctx)
	}, "dashboard", strconv.Itoa(s.lowStock.Threshold()))
	return out, err
}

func (s *Service) loadDashboard(ctx context.Context) (Dashboard, error) {
	var (
		d      Dashboard
		totals StockTotals
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = s.repo.StockTotals(ctx, s.lowStock.Threshold())
		return err
	})
	g.Go(func() (err error) {
		d.Invoices, err = s.repo.InvoiceCounts(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.RecentInvoices, err = s.repo.RecentInvoices(ctx, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		d.RecentSales, err = s.repo.RecentSales(ctx, recentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	d.TotalStock = totals.Units
	d.LowStockCount = totals.LowRows
	d.SaleCount = totals.SaleRows
	d.RecentInvoices = nonNil(d.RecentInvoices)
	d.RecentSales = nonNil(d.RecentSales)
	return d, nil
}

// LowStock lists rows below the alert threshold.
func (s *Service) LowStock(ctx context.Context) ([]inventory.StockView, error) {
	rows, err := s.lowStock.LowStock(ctx)
	return nonNil(rows), err
}

// SalesByPeriod returns the sale records of the period and their total. It
// always reads the database.
func (s *Service) SalesByPeriod(ctx context.Context, period Period) (SalesReport, error) {
	if _, err := ParsePeriod(string(period)); err != nil {
		return SalesReport{}, err
	}
	from, to := period.Range(s.now())
	rows, err := s.repo.SalesBetween(ctx, from, to)
	if err != nil {
		return SalesReport{}, err
	}
	report := SalesReport{Period: period, From: from, To: to, Sales: nonNil(rows), Total: decimal.Zero}
	for _, sale := range rows {
		report.Total = report.Total.Add(sale.TotalAmount)
	}
	return report, nil
}

// ClientSummaries returns per-client invoice count, purchases and debt.
func (s *Service) ClientSummaries(ctx context.Context) ([]ClientSummary, error) {
	rows, err := s.repo.ClientSummaries(ctx)
	return nonNil(rows), err
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time { return s.now() }

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
