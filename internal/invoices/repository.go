package invoices

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/denimstock/denimstock/internal/clients"
	"github.com/denimstock/denimstock/internal/inventory"
	"github.com/denimstock/denimstock/internal/sales"
	"github.com/denimstock/denimstock/internal/shared"
)

// InvoiceTx is the locked invoice row access shared with the payments package.
type InvoiceTx interface {
	LockInvoice(ctx context.Context, id int64) (Invoice, error)
	UpdateInvoiceAmounts(ctx context.Context, inv Invoice) error
}

// TxRepository exposes the statements an invoice mutation runs inside one
// transaction.
type TxRepository interface {
	inventory.StockTx
	sales.SaleTx
	clients.ClientTx
	InvoiceTx

	InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	ProductPrice(ctx context.Context, productID int64) (decimal.Decimal, error)
	WarehouseExists(ctx context.Context, warehouseID int64) (bool, error)
	FindItemForUpdate(ctx context.Context, invoiceID, productID, warehouseID int64) (Item, bool, error)
	GetItemForUpdate(ctx context.Context, invoiceID, itemID int64) (Item, error)
	ListItemsForUpdate(ctx context.Context, invoiceID int64) ([]Item, error)
	InsertItem(ctx context.Context, item Item) (Item, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int, subtotal decimal.Decimal) error
	DeleteItem(ctx context.Context, itemID int64) error
	DeletePayments(ctx context.Context, invoiceID int64) (int64, error)
	DeleteInvoice(ctx context.Context, invoiceID int64) error
}

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	ListItems(ctx context.Context, invoiceID int64) ([]Item, error)
	ListPayments(ctx context.Context, invoiceID int64) ([]PaymentLine, error)
	ListInvoices(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Invoice, int, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort receives invoice flow counters.
type MetricsPort interface {
	ItemAdded()
	InsufficientStock()
}
