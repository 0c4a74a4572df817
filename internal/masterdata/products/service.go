package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/denimstock/denimstock/internal/inventory"
	"github.com/denimstock/denimstock/internal/masterdata/shared"
	internalShared "github.com/denimstock/denimstock/internal/shared"
)

// ErrInUse is returned when deleting a product that invoices or sales reference.
var ErrInUse = fmt.Errorf("product is referenced by invoices or sales: %w", internalShared.ErrConstraintViolation)

type Service struct {
	repo     Repository
	logger   *slog.Logger
	ledger   *inventory.Ledger
	barcodes *internalShared.StampSequence
}

// NewService builds Service. Initial stock is released through a ledger that
// creates missing rows.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		logger:   logger,
		ledger:   inventory.NewLedger(inventory.CreateMissing),
		barcodes: internalShared.NewStampSequence("JNS"),
	}
}

// WithBarcodeSequence replaces the barcode source.
func (s *Service) WithBarcodeSequence(seq *internalShared.StampSequence) *Service {
	s.barcodes = seq
	return s
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, internalShared.Invalid("id", "invalid product ID")
	}
	return s.repo.Get(ctx, id)
}

// Create inserts the product and stocks it at each listed warehouse with a
// positive quantity. A blank barcode is generated.
func (s *Service) Create(ctx context.Context, form ProductForm) (Product, error) {
	form, err := s.validate(form)
	if err != nil {
		return Product{}, err
	}
	if form.Barcode == "" {
		form.Barcode = s.barcodes.Next()
	}
	var created Product
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.InsertProduct(ctx, fromForm(form))
		if err != nil {
			return err
		}
		for _, sq := range form.Stock {
			if sq.Quantity <= 0 {
				continue
			}
			if err := s.ledger.Release(ctx, tx, p.ID, sq.WarehouseID, sq.Quantity); err != nil {
				return fmt.Errorf("stock product %d at warehouse %d: %w", p.ID, sq.WarehouseID, err)
			}
			p.TotalQuantity += sq.Quantity
		}
		created = p
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	s.logger.Info("product created", slog.Int64("product_id", created.ID), slog.String("barcode", created.Barcode))
	return created, nil
}

// Update edits the product and overwrites the counted quantity of existing
// stock rows. A warehouse without a stock row for the product is rejected.
func (s *Service) Update(ctx context.Context, id int64, form ProductForm) (Product, error) {
	if id <= 0 {
		return Product{}, internalShared.Invalid("id", "invalid product ID")
	}
	form, err := s.validate(form)
	if err != nil {
		return Product{}, err
	}
	var updated Product
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.LockProduct(ctx, id)
		if err != nil {
			return err
		}
		p := fromForm(form)
		p.ID = id
		p.CreatedAt = current.CreatedAt
		if p.Barcode == "" {
			p.Barcode = current.Barcode
		}
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		for i, sq := range form.Stock {
			if _, err := s.ledger.Get(ctx, tx, id, sq.WarehouseID); err != nil {
				if errors.Is(err, inventory.ErrStockNotFound) {
					return internalShared.Invalid(fmt.Sprintf("stock[%d].warehouse_id", i), "product is not stocked at this warehouse")
				}
				return err
			}
			if err := s.ledger.Set(ctx, tx, id, sq.WarehouseID, sq.Quantity); err != nil {
				return err
			}
		}
		updated = p
		return nil
	})
	if err != nil {
		if !errors.Is(err, internalShared.ErrValidation) && !errors.Is(err, internalShared.ErrNotFound) &&
			!errors.Is(err, internalShared.ErrDuplicate) {
			s.logger.Error("product update failed", slog.Int64("product_id", id), slog.Any("error", err))
		}
		return Product{}, err
	}
	return s.repo.Get(ctx, updated.ID)
}

// Delete removes a product that no invoice line or sale references. Its
// stock rows go with it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return internalShared.Invalid("id", "invalid product ID")
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.LockProduct(ctx, id); err != nil {
			return err
		}
		inUse, err := tx.ProductInUse(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return ErrInUse
		}
		return tx.DeleteProduct(ctx, id)
	})
}

func fromForm(f ProductForm) Product {
	return Product{
		Name:             f.Name,
		Barcode:          f.Barcode,
		Sizes:            f.Sizes,
		Colors:           f.Colors,
		Price:            f.Price.Round(2),
		PiecesPerDozen:   f.PiecesPerDozen,
		DozensPerPackage: f.DozensPerPackage,
		ImageURL:         f.ImageURL,
	}
}
