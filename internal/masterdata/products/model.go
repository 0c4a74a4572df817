package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a jeans model held in stock.
type Product struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Barcode          string          `json:"barcode"`
	Sizes            string          `json:"sizes"`
	Colors           string          `json:"colors"`
	Price            decimal.Decimal `json:"price"`
	PiecesPerDozen   int             `json:"pieces_per_dozen"`
	DozensPerPackage int             `json:"dozens_per_package"`
	ImageURL         string          `json:"image_url"`
	TotalQuantity    int             `json:"total_quantity"`
	Stock            []StockLine     `json:"stock,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// StockLine is the quantity of the product at one warehouse.
type StockLine struct {
	WarehouseID   int64  `json:"warehouse_id"`
	WarehouseName string `json:"warehouse_name"`
	Quantity      int    `json:"quantity"`
}
