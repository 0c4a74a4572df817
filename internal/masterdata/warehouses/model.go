package warehouses

import (
	"time"

	"github.com/denimstock/denimstock/internal/inventory"
)

// DefaultName is the warehouse seeded on first boot.
const DefaultName = "Main Warehouse"

// Warehouse represents a warehouse entity
type Warehouse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Detail is a warehouse with the stock rows it holds.
type Detail struct {
	Warehouse
	Stock         []inventory.StockView `json:"stock"`
	TotalQuantity int                   `json:"total_quantity"`
}

// Input is the create and update payload.
type Input struct {
	Name        string `json:"name" validate:"required,max=100"`
	Location    string `json:"location" validate:"max=200"`
	Description string `json:"description" validate:"max=1000"`
}
