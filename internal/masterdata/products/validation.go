package products

import (
	"fmt"
	"strings"

	"github.com/denimstock/denimstock/internal/shared"
)

func (s *Service) validate(f ProductForm) (ProductForm, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Barcode = strings.TrimSpace(f.Barcode)
	f.Sizes = strings.TrimSpace(f.Sizes)
	f.Colors = strings.TrimSpace(f.Colors)
	f.ImageURL = strings.TrimSpace(f.ImageURL)

	var fields []shared.FieldError
	add := func(field, msg string) { fields = append(fields, shared.FieldError{Field: field, Message: msg}) }
	if f.Name == "" {
		add("name", "product name is required")
	}
	if f.Sizes == "" {
		add("sizes", "sizes are required")
	}
	if f.Colors == "" {
		add("colors", "colors are required")
	}
	if f.Price.IsNegative() {
		add("price", "must not be negative")
	}
	if !f.Price.Equal(f.Price.Round(2)) {
		add("price", "must have at most 2 decimal places")
	}
	if f.PiecesPerDozen <= 0 {
		add("pieces_per_dozen", "must be greater than 0")
	}
	if f.DozensPerPackage <= 0 {
		add("dozens_per_package", "must be greater than 0")
	}
	seen := make(map[int64]bool, len(f.Stock))
	for i, sq := range f.Stock {
		if sq.WarehouseID <= 0 {
			add(fmt.Sprintf("stock[%d].warehouse_id", i), "is required")
		}
		if sq.Quantity < 0 {
			add(fmt.Sprintf("stock[%d].quantity", i), "must not be negative")
		}
		if seen[sq.WarehouseID] {
			add(fmt.Sprintf("stock[%d].warehouse_id", i), "listed twice")
		}
		seen[sq.WarehouseID] = true
	}
	if len(fields) > 0 {
		return f, &shared.ValidationError{Fields: fields}
	}
	return f, nil
}
