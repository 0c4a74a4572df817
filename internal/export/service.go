// Package export renders inventory, client, sales and invoice documents as
// CSV, XLSX and PDF downloads.
package export

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/denimstock/denimstock/internal/invoices"
	"github.com/denimstock/denimstock/internal/reports"
	"github.com/denimstock/denimstock/internal/settings"
	"github.com/denimstock/denimstock/report"
)

// InventoryRow is one stock row with its product fields, in export order.
type InventoryRow struct {
	WarehouseName    string
	ProductName      string
	Barcode          string
	Sizes            string
	Colors           string
	Price            decimal.Decimal
	PiecesPerDozen   int
	DozensPerPackage int
	Quantity         int
}

// InventorySource lists stock rows for export.
type InventorySource interface {
	InventoryRows(ctx context.Context) ([]InventoryRow, error)
}

// ReportSource provides the aggregated client and sales data.
type ReportSource interface {
	ClientSummaries(ctx context.Context) ([]reports.ClientSummary, error)
	SalesByPeriod(ctx context.Context, period reports.Period) (reports.SalesReport, error)
	Now() time.Time
}

// InvoiceSource loads an invoice with its lines and payments.
type InvoiceSource interface {
	Get(ctx context.Context, id int64) (invoices.Detail, error)
}

// SettingsSource provides the brand printed on documents.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Renderer converts HTML to PDF.
type Renderer interface {
	RenderHTML(ctx context.Context, html []byte, page report.Page) ([]byte, error)
}

// Service assembles export documents.
type Service struct {
	inventory InventorySource
	reports   ReportSource
	invoices  InvoiceSource
	settings  SettingsSource
	pdf       Renderer
	logger    *slog.Logger
}

// NewService wires the export sources.
func NewService(inventory InventorySource, reports ReportSource, invoices InvoiceSource, settings SettingsSource, pdf Renderer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{inventory: inventory, reports: reports, invoices: invoices, settings: settings, pdf: pdf, logger: logger}
}

func (s *Service) brand(ctx context.Context) string {
	current, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Warn("load brand for export", slog.Any("error", err))
		return settings.Defaults().BrandName
	}
	return current.BrandName
}

type pgInventory struct {
	pool *pgxpool.Pool
}

// NewInventorySource returns the Postgres backed InventorySource.
func NewInventorySource(pool *pgxpool.Pool) InventorySource {
	return &pgInventory{pool: pool}
}

func (p *pgInventory) InventoryRows(ctx context.Context) ([]InventoryRow, error) {
	rows, err := p.pool.Query(ctx, `SELECT w.name, p.name, p.barcode, p.sizes, p.colors, p.price,
       p.pieces_per_dozen, p.dozens_per_package, s.quantity
FROM stock s
JOIN products p ON p.id = s.product_id
JOIN warehouses w ON w.id = s.warehouse_id
ORDER BY w.name, p.name, p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []InventoryRow
	for rows.Next() {
		var r InventoryRow
		if err := rows.Scan(&r.WarehouseName, &r.ProductName, &r.Barcode, &r.Sizes, &r.Colors, &r.Price,
			&r.PiecesPerDozen, &r.DozensPerPackage, &r.Quantity); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
