package products

import "github.com/shopspring/decimal"

// StockQuantity sets the quantity of the product at one warehouse.
type StockQuantity struct {
	WarehouseID int64 `json:"warehouse_id" validate:"required,gt=0"`
	Quantity    int   `json:"quantity" validate:"min=0"`
}

// ProductForm carries the editable product fields.
type ProductForm struct {
	Name             string          `json:"name" validate:"required,max=100"`
	Barcode          string          `json:"barcode" validate:"max=50"`
	Sizes            string          `json:"sizes" validate:"required,max=100"`
	Colors           string          `json:"colors" validate:"required,max=200"`
	Price            decimal.Decimal `json:"price"`
	PiecesPerDozen   int             `json:"pieces_per_dozen" validate:"required,gt=0"`
	DozensPerPackage int             `json:"dozens_per_package" validate:"required,gt=0"`
	ImageURL         string          `json:"image_url" validate:"omitempty,max=200"`
	Stock            []StockQuantity `json:"stock" validate:"omitempty,dive"`
}
