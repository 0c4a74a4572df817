package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/denimstock/denimstock/internal/inventory"
	"github.com/denimstock/denimstock/internal/sales"
	"github.com/denimstock/denimstock/internal/shared"
)

// Number allocation retries on a unique violation of invoice_number.
const numberAttempts = 3

// ErrInvoiceCancelled is returned when a cancelled invoice is edited.
var ErrInvoiceCancelled = fmt.Errorf("invoices: invoice is cancelled: %w", shared.ErrConstraintViolation)

// Service coordinates invoice mutations. Every mutation runs in one
// transaction that locks the invoice row before touching stock.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	logger  *slog.Logger
	metrics MetricsPort
	ledger  *inventory.Ledger
	sales   *sales.Writer
	numbers *shared.StampSequence
	now     func() time.Time
}

// NewService builds Service. Reversals use a ledger that rejects missing
// stock rows.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger, metrics MetricsPort) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		repo:    repo,
		audit:   audit,
		logger:  logger,
		metrics: metrics,
		ledger:  inventory.NewLedger(inventory.RejectMissing),
		sales:   sales.NewWriter(),
		numbers: shared.NewStampSequence("INV-"),
		now:     time.Now,
	}
}

// WithNumberSequence replaces the invoice number source.
func (s *Service) WithNumberSequence(seq *shared.StampSequence) *Service {
	s.numbers = seq
	return s
}

// CreateInvoice opens an empty invoice for an existing or inline client.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInput) (Invoice, error) {
	if input.NewClient == nil && input.ClientID <= 0 {
		return Invoice{}, shared.Invalid("client_id", "select a client or provide a new one")
	}
	if input.NewClient != nil {
		nc := input.NewClient.Normalize()
		if err := nc.Validate(); err != nil {
			return Invoice{}, err
		}
		input.NewClient = &nc
	}
	if input.InvoiceDate.IsZero() {
		input.InvoiceDate = s.now()
	}

	var created Invoice
	var err error
	for attempt := 1; attempt <= numberAttempts; attempt++ {
		err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			inv := Invoice{
				InvoiceNumber: s.numbers.Next(),
				ClientID:      input.ClientID,
				InvoiceDate:   input.InvoiceDate,
				TotalAmount:   decimal.Zero,
				PaidAmount:    decimal.Zero,
				PaymentMethod: input.PaymentMethod,
			}
			if input.NewClient != nil {
				c, err := tx.InsertClient(ctx, *input.NewClient)
				if err != nil {
					return fmt.Errorf("invoices: inline client: %w", err)
				}
				inv.ClientID = c.ID
				inv.ClientName = c.Name
			} else {
				c, err := tx.LockClient(ctx, input.ClientID)
				if err != nil {
					return err
				}
				inv.ClientName = c.Name
			}
			inv.Rederive()
			saved, err := tx.InsertInvoice(ctx, inv)
			if err != nil {
				return err
			}
			created = saved
			return nil
		})
		if !errors.Is(err, shared.ErrDuplicate) {
			break
		}
		s.logger.Warn("invoice number collision, retrying", slog.Int("attempt", attempt))
	}
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, "invoice.create", created.ID, map[string]any{"invoice_number": created.InvoiceNumber, "client_id": created.ClientID})
	return created, nil
}

// AddItem adds qty units of a product from a warehouse to the invoice.
//
// Availability is checked before anything is written. An existing line for
// the same product and warehouse is merged at its frozen price, otherwise a
// new line takes the current product price. The invoice total grows by the
// added subtotal only.
func (s *Service) AddItem(ctx context.Context, invoiceID int64, input AddItemInput) (AddItemResult, error) {
	if input.ProductID <= 0 {
		return AddItemResult{}, shared.Invalid("product_id", "is required")
	}
	if input.WarehouseID <= 0 {
		return AddItemResult{}, shared.Invalid("warehouse_id", "is required")
	}
	if input.Quantity <= 0 {
		return AddItemResult{}, shared.Invalid("quantity", "must be greater than 0")
	}

	var result AddItemResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == StatusCancelled {
			return ErrInvoiceCancelled
		}

		available, err := s.ledger.Get(ctx, tx, input.ProductID, input.WarehouseID)
		if err != nil && !errors.Is(err, inventory.ErrStockNotFound) {
			return err
		}
		if err != nil {
			exists, lookupErr := tx.WarehouseExists(ctx, input.WarehouseID)
			if lookupErr != nil {
				return lookupErr
			}
			if !exists {
				return fmt.Errorf("warehouse %d: %w", input.WarehouseID, shared.ErrNotFound)
			}
		}
		if err != nil || input.Quantity > available {
			return &inventory.InsufficientStockError{
				ProductID:   input.ProductID,
				WarehouseID: input.WarehouseID,
				Available:   available,
				Requested:   input.Quantity,
			}
		}

		item, merged, err := tx.FindItemForUpdate(ctx, invoiceID, input.ProductID, input.WarehouseID)
		if err != nil {
			return err
		}
		var added decimal.Decimal
		if merged {
			added = item.Price.Mul(decimal.NewFromInt(int64(input.Quantity)))
			item.Quantity += input.Quantity
			item.Subtotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			if err := tx.UpdateItemQuantity(ctx, item.ID, item.Quantity, item.Subtotal); err != nil {
				return err
			}
		} else {
			price, err := tx.ProductPrice(ctx, input.ProductID)
			if err != nil {
				return err
			}
			added = price.Mul(decimal.NewFromInt(int64(input.Quantity)))
			item, err = tx.InsertItem(ctx, Item{
				InvoiceID:   invoiceID,
				ProductID:   input.ProductID,
				WarehouseID: input.WarehouseID,
				Quantity:    input.Quantity,
				Price:       price,
				Subtotal:    added,
			})
			if err != nil {
				return err
			}
		}

		if err := s.ledger.Reserve(ctx, tx, input.ProductID, input.WarehouseID, input.Quantity); err != nil {
			return err
		}
		if _, err := s.sales.Record(ctx, tx, sales.SaleRecord{
			ProductID:     input.ProductID,
			InvoiceItemID: item.ID,
			Quantity:      input.Quantity,
			TotalAmount:   added,
		}); err != nil {
			return err
		}

		inv.TotalAmount = inv.TotalAmount.Add(added)
		inv.Rederive()
		if err := tx.UpdateInvoiceAmounts(ctx, inv); err != nil {
			return err
		}
		result = AddItemResult{Item: item, Merged: merged, Added: added, Invoice: inv}
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.metrics.InsufficientStock()
		}
		return AddItemResult{}, err
	}
	s.metrics.ItemAdded()
	s.logger.Info("invoice item added",
		slog.Int64("invoice_id", invoiceID),
		slog.Int64("item_id", result.Item.ID),
		slog.Int("quantity", input.Quantity),
		slog.Bool("merged", result.Merged))
	return result, nil
}

// RemoveItem returns the line quantity to its warehouse, takes its subtotal
// off the invoice and drops the line with its sale records.
func (s *Service) RemoveItem(ctx context.Context, invoiceID, itemID int64) (Invoice, error) {
	var updated Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		item, err := tx.GetItemForUpdate(ctx, invoiceID, itemID)
		if err != nil {
			return err
		}
		if err := s.reverseItem(ctx, tx, item); err != nil {
			return err
		}
		inv.TotalAmount = inv.TotalAmount.Sub(item.Subtotal)
		inv.Rederive()
		if err := tx.UpdateInvoiceAmounts(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, "invoice.item.remove", invoiceID, map[string]any{"item_id": itemID})
	return updated, nil
}

// DeleteInvoice restores every line to stock, hard-deletes the payments and
// removes the invoice.
func (s *Service) DeleteInvoice(ctx context.Context, invoiceID int64) error {
	var number string
	var removedPayments int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		number = inv.InvoiceNumber
		items, err := tx.ListItemsForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := s.reverseItem(ctx, tx, item); err != nil {
				return err
			}
		}
		removedPayments, err = tx.DeletePayments(ctx, invoiceID)
		if err != nil {
			return err
		}
		return tx.DeleteInvoice(ctx, invoiceID)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "invoice.delete", invoiceID, map[string]any{"invoice_number": number, "payments_removed": removedPayments})
	return nil
}

func (s *Service) reverseItem(ctx context.Context, tx TxRepository, item Item) error {
	if err := s.ledger.Release(ctx, tx, item.ProductID, item.WarehouseID, item.Quantity); err != nil {
		return fmt.Errorf("invoices: restore item %d: %w", item.ID, err)
	}
	if _, err := s.sales.RemoveForItem(ctx, tx, item.ID); err != nil {
		return err
	}
	return tx.DeleteItem(ctx, item.ID)
}

// Get returns the invoice with its items and payments.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	payments, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if items == nil {
		items = []Item{}
	}
	if payments == nil {
		payments = []PaymentLine{}
	}
	return Detail{Invoice: inv, Items: items, Payments: payments}, nil
}

// List returns invoices newest first.
func (s *Service) List(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Invoice, shared.Pagination, error) {
	items, total, err := s.repo.ListInvoices(ctx, filter, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page.Page, page.PerPage, total), nil
}

type noopMetrics struct{}

func (noopMetrics) ItemAdded()         {}
func (noopMetrics) InsufficientStock() {}

func (s *Service) record(ctx context.Context, action string, invoiceID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "invoice",
		EntityID: strconv.FormatInt(invoiceID, 10),
		Meta:     meta,
		At:       s.now(),
	}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
