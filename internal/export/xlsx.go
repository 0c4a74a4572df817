package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const inventorySheet = "Inventory"

// InventoryXLSX builds a workbook with one sheet of stock rows.
func (s *Service) InventoryXLSX(ctx context.Context) ([]byte, error) {
	rows, err := s.inventory.InventoryRows(ctx)
	if err != nil {
		return nil, err
	}
	return buildInventoryXLSX(rows)
}

func buildInventoryXLSX(rows []InventoryRow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), inventorySheet); err != nil {
		return nil, err
	}
	header := make([]any, len(inventoryHeader))
	for i, h := range inventoryHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(inventorySheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("export: xlsx header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(inventorySheet, 1, 1, bold); err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		record := []any{
			r.WarehouseName,
			r.ProductName,
			r.Barcode,
			r.Sizes,
			r.Colors,
			r.Price.InexactFloat64(),
			r.PiecesPerDozen,
			r.DozensPerPackage,
			r.Quantity,
		}
		if err := f.SetSheetRow(inventorySheet, cell, &record); err != nil {
			return nil, fmt.Errorf("export: xlsx row %d: %w", i+2, err)
		}
	}
	if len(rows) > 0 {
		if err := f.SetCellStyle(inventorySheet, "F2", fmt.Sprintf("F%d", len(rows)+1), money); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(inventorySheet, "A", "E", 20); err != nil {
		return nil, err
	}
	if err := f.AutoFilter(inventorySheet, fmt.Sprintf("A1:I%d", len(rows)+1), nil); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
