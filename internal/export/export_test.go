package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/denimstock/denimstock/internal/invoices"
	"github.com/denimstock/denimstock/internal/reports"
	"github.com/denimstock/denimstock/internal/sales"
	"github.com/denimstock/denimstock/internal/settings"
	"github.com/denimstock/denimstock/internal/shared"
	"github.com/denimstock/denimstock/report"
)

var exportNow = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

type fakeInventory struct{ rows []InventoryRow }

func (f fakeInventory) InventoryRows(ctx context.Context) ([]InventoryRow, error) { return f.rows, nil }

type fakeReports struct {
	summaries []reports.ClientSummary
	sales     reports.SalesReport
}

func (f fakeReports) ClientSummaries(ctx context.Context) ([]reports.ClientSummary, error) {
	return f.summaries, nil
}

func (f fakeReports) SalesByPeriod(ctx context.Context, period reports.Period) (reports.SalesReport, error) {
	rep := f.sales
	rep.Period = period
	return rep, nil
}

func (f fakeReports) Now() time.Time { return exportNow }

type fakeInvoices map[int64]invoices.Detail

func (f fakeInvoices) Get(ctx context.Context, id int64) (invoices.Detail, error) {
	d, ok := f[id]
	if !ok {
		return invoices.Detail{}, shared.ErrNotFound
	}
	return d, nil
}

type fakeSettings struct{}

func (fakeSettings) Get(ctx context.Context) (settings.Settings, error) {
	s := settings.Defaults()
	s.BrandName = "Denim House"
	return s, nil
}

type capturingRenderer struct {
	html []byte
	page report.Page
}

func (c *capturingRenderer) RenderHTML(ctx context.Context, html []byte, page report.Page) ([]byte, error) {
	c.html, c.page = html, page
	return []byte("%PDF"), nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func inventoryRows() []InventoryRow {
	return []InventoryRow{
		{WarehouseName: "Main Warehouse", ProductName: "Slim Fit", Barcode: "JNS1", Sizes: "28-34", Colors: "blue", Price: dec("125.5"), PiecesPerDozen: 12, DozensPerPackage: 4, Quantity: 60},
		{WarehouseName: "Outlet", ProductName: "Baggy, \"wide\"", Barcode: "JNS2", Sizes: "30-38", Colors: "black", Price: dec("99"), PiecesPerDozen: 12, DozensPerPackage: 2, Quantity: 0},
	}
}

func newExportService(r *capturingRenderer, rep fakeReports, inv fakeInvoices) *Service {
	return NewService(fakeInventory{rows: inventoryRows()}, rep, inv, fakeSettings{}, r, nil)
}

func TestInventoryCSVStartsWithBOMAndKeepsColumnOrder(t *testing.T) {
	svc := newExportService(&capturingRenderer{}, fakeReports{}, nil)
	var buf bytes.Buffer
	require.NoError(t, svc.InventoryCSV(context.Background(), &buf))

	raw := buf.String()
	require.True(t, strings.HasPrefix(raw, utf8BOM))
	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(raw, utf8BOM))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, inventoryHeader, records[0])
	require.Equal(t, []string{"Main Warehouse", "Slim Fit", "JNS1", "28-34", "blue", "125.50", "12", "4", "60"}, records[1])
	require.Equal(t, "Baggy, \"wide\"", records[2][1])
}

func TestClientsCSV(t *testing.T) {
	rep := fakeReports{summaries: []reports.ClientSummary{
		{Name: "Omar", Phone: "0100", Location: "Cairo", InvoiceCount: 3, TotalPurchases: dec("300"), TotalDebt: dec("70.5")},
	}}
	svc := newExportService(&capturingRenderer{}, rep, nil)
	var buf bytes.Buffer
	require.NoError(t, svc.ClientsCSV(context.Background(), &buf))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), utf8BOM))).ReadAll()
	require.NoError(t, err)
	require.Equal(t, clientsHeader, records[0])
	require.Equal(t, []string{"Omar", "0100", "Cairo", "3", "300.00", "70.50"}, records[1])
}

func TestInventoryXLSX(t *testing.T) {
	svc := newExportService(&capturingRenderer{}, fakeReports{}, nil)
	data, err := svc.InventoryXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(inventorySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Warehouse", rows[0][0])
	require.Equal(t, "Slim Fit", rows[1][1])
	require.Equal(t, "60", rows[1][8])
}

func TestSalesPDFRendersFormattedAmounts(t *testing.T) {
	rep := fakeReports{sales: reports.SalesReport{
		Sales: []sales.SaleView{
			{SaleRecord: sales.SaleRecord{ID: 1, Quantity: 1200, TotalAmount: dec("1234.5"), SoldAt: exportNow}, ProductName: "Slim Fit", Barcode: "JNS1"},
		},
		Total: dec("1234.5"),
	}}
	renderer := &capturingRenderer{}
	svc := newExportService(renderer, rep, nil)

	pdf, err := svc.SalesPDF(context.Background(), reports.PeriodDay)
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(pdf))
	html := string(renderer.html)
	require.Contains(t, html, "Denim House: Sales of 2024-06-03")
	require.Contains(t, html, "1,234.50")
	require.Contains(t, html, "1,200")
	require.Equal(t, report.A4, renderer.page)
}

func TestSalesPDFEmptyPeriod(t *testing.T) {
	renderer := &capturingRenderer{}
	svc := newExportService(renderer, fakeReports{sales: reports.SalesReport{Total: decimal.Zero}}, nil)
	_, err := svc.SalesPDF(context.Background(), reports.PeriodTotal)
	require.NoError(t, err)
	require.Contains(t, string(renderer.html), "No sales in this period.")
}

func TestInvoicePDF(t *testing.T) {
	inv := fakeInvoices{7: {
		Invoice: invoices.Invoice{ID: 7, InvoiceNumber: "INV-20240603100000", ClientName: "Omar <VIP>",
			TotalAmount: dec("250"), PaidAmount: dec("100"), RemainingAmount: dec("150"), PaymentStatus: invoices.PaymentPartial},
		Items: []invoices.Item{{ProductName: "Slim Fit", WarehouseName: "Main Warehouse", Quantity: 2, Price: dec("125"), Subtotal: dec("250")}},
	}}
	renderer := &capturingRenderer{}
	svc := newExportService(renderer, fakeReports{}, inv)

	_, err := svc.InvoicePDF(context.Background(), 7)
	require.NoError(t, err)
	html := string(renderer.html)
	require.Contains(t, html, "INV-20240603100000")
	require.Contains(t, html, "Omar &lt;VIP&gt;")
	require.Contains(t, html, "150.00")

	_, err = svc.InvoicePDF(context.Background(), 8)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
