package warehouses

import (
	"context"
	"errors"
	"fmt"

	"github.com/denimstock/denimstock/internal/inventory"
	"github.com/denimstock/denimstock/internal/masterdata/shared"
	internalShared "github.com/denimstock/denimstock/internal/shared"
)

// StockLister returns stock rows for the warehouse detail page.
type StockLister interface {
	ListStock(ctx context.Context, filter inventory.StockFilter) ([]inventory.StockView, error)
}

type Service struct {
	repo  Repository
	stock StockLister
}

func NewService(repo Repository, stock StockLister) *Service {
	return &Service{repo: repo, stock: stock}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Warehouse, error) {
	if id <= 0 {
		return Warehouse{}, internalShared.Invalid("id", "invalid warehouse ID")
	}
	return s.repo.Get(ctx, id)
}

// Detail returns the warehouse and its stock rows.
func (s *Service) Detail(ctx context.Context, id int64) (Detail, error) {
	w, err := s.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	rows, err := s.stock.ListStock(ctx, inventory.StockFilter{WarehouseID: id})
	if err != nil {
		return Detail{}, fmt.Errorf("warehouse %d stock: %w", id, err)
	}
	d := Detail{Warehouse: w, Stock: rows}
	if d.Stock == nil {
		d.Stock = []inventory.StockView{}
	}
	for _, row := range rows {
		d.TotalQuantity += row.Quantity
	}
	return d, nil
}

func (s *Service) Create(ctx context.Context, in Input) (Warehouse, error) {
	in, err := s.validate(in)
	if err != nil {
		return Warehouse{}, err
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (Warehouse, error) {
	if id <= 0 {
		return Warehouse{}, internalShared.Invalid("id", "invalid warehouse ID")
	}
	in, err := s.validate(in)
	if err != nil {
		return Warehouse{}, err
	}
	return s.repo.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return internalShared.Invalid("id", "invalid warehouse ID")
	}
	return s.repo.Delete(ctx, id)
}

// EnsureDefault creates the default warehouse when no warehouse of that name
// exists. It reports whether a row was created.
func (s *Service) EnsureDefault(ctx context.Context) (Warehouse, bool, error) {
	w, err := s.repo.FindByName(ctx, DefaultName)
	if err == nil {
		return w, false, nil
	}
	if !errors.Is(err, internalShared.ErrNotFound) {
		return Warehouse{}, false, err
	}
	w, err = s.repo.Create(ctx, Input{Name: DefaultName})
	if errors.Is(err, internalShared.ErrDuplicate) {
		w, err = s.repo.FindByName(ctx, DefaultName)
		return w, false, err
	}
	if err != nil {
		return Warehouse{}, false, err
	}
	return w, true, nil
}
