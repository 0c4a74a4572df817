package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/denimstock/denimstock/internal/reports"
)

// utf8BOM lets spreadsheet software detect the encoding.
const utf8BOM = "\ufeff"

var (
	inventoryHeader = []string{"Warehouse", "Product", "Barcode", "Sizes", "Colors", "Price", "Pieces per dozen", "Dozens per package", "Quantity"}
	clientsHeader   = []string{"Client", "Phone", "Location", "Invoices", "Total purchases", "Debt"}
)

// InventoryCSV writes every stock row.
func (s *Service) InventoryCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.inventory.InventoryRows(ctx)
	if err != nil {
		return err
	}
	return writeInventoryCSV(w, rows)
}

// ClientsCSV writes the per-client invoice summary.
func (s *Service) ClientsCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.reports.ClientSummaries(ctx)
	if err != nil {
		return err
	}
	return writeClientsCSV(w, rows)
}

func writeInventoryCSV(w io.Writer, rows []InventoryRow) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(inventoryHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.WarehouseName,
			r.ProductName,
			r.Barcode,
			r.Sizes,
			r.Colors,
			r.Price.StringFixed(2),
			strconv.Itoa(r.PiecesPerDozen),
			strconv.Itoa(r.DozensPerPackage),
			strconv.Itoa(r.Quantity),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeClientsCSV(w io.Writer, rows []reports.ClientSummary) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(clientsHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Name,
			r.Phone,
			r.Location,
			strconv.Itoa(r.InvoiceCount),
			r.TotalPurchases.StringFixed(2),
			r.TotalDebt.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
