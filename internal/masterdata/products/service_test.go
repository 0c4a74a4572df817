package products

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/denimstock/denimstock/internal/inventory"
	"github.com/denimstock/denimstock/internal/masterdata/shared"
	internalShared "github.com/denimstock/denimstock/internal/shared"
)

type stockKey struct{ product, warehouse int64 }

type memoryRepo struct {
	products map[int64]Product
	stock    map[stockKey]int
	inUse    map[int64]bool
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product), stock: make(map[stockKey]int), inUse: make(map[int64]bool)}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{repo: m, products: make(map[int64]Product), stock: make(map[stockKey]int), nextID: m.nextID}
	for k, v := range m.products {
		tx.products[k] = v
	}
	for k, v := range m.stock {
		tx.stock[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.products, m.stock, m.nextID = tx.products, tx.stock, tx.nextID
	return nil
}

func (m *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, internalShared.ErrNotFound
	}
	p.TotalQuantity = 0
	for k, qty := range m.stock {
		if k.product == id {
			p.TotalQuantity += qty
		}
	}
	return p, nil
}

type memoryTx struct {
	repo     *memoryRepo
	products map[int64]Product
	stock    map[stockKey]int
	nextID   int64
}

func (t *memoryTx) LockStock(ctx context.Context, productID, warehouseID int64) (inventory.StockRow, error) {
	qty, ok := t.stock[stockKey{productID, warehouseID}]
	if !ok {
		return inventory.StockRow{}, inventory.ErrStockNotFound
	}
	return inventory.StockRow{ProductID: productID, WarehouseID: warehouseID, Quantity: qty}, nil
}

func (t *memoryTx) UpdateStockQuantity(ctx context.Context, productID, warehouseID int64, quantity int) error {
	if quantity < 0 {
		return errors.New("negative quantity written")
	}
	t.stock[stockKey{productID, warehouseID}] = quantity
	return nil
}

func (t *memoryTx) InsertStock(ctx context.Context, productID, warehouseID int64, quantity int) error {
	t.stock[stockKey{productID, warehouseID}] = quantity
	return nil
}

func (t *memoryTx) InsertProduct(ctx context.Context, p Product) (Product, error) {
	for _, existing := range t.products {
		if existing.Barcode == p.Barcode {
			return Product{}, internalShared.ErrDuplicate
		}
	}
	t.nextID++
	p.ID = t.nextID
	t.products[p.ID] = p
	return p, nil
}

func (t *memoryTx) LockProduct(ctx context.Context, id int64) (Product, error) {
	p, ok := t.products[id]
	if !ok {
		return Product{}, internalShared.ErrNotFound
	}
	return p, nil
}

func (t *memoryTx) UpdateProduct(ctx context.Context, p Product) error {
	t.products[p.ID] = p
	return nil
}

func (t *memoryTx) ProductInUse(ctx context.Context, id int64) (bool, error) {
	return t.repo.inUse[id], nil
}

func (t *memoryTx) DeleteProduct(ctx context.Context, id int64) error {
	delete(t.products, id)
	for k := range t.stock {
		if k.product == id {
			delete(t.stock, k)
		}
	}
	return nil
}

func form() ProductForm {
	return ProductForm{
		Name:             "Slim Fit",
		Sizes:            "28-34",
		Colors:           "blue,black",
		Price:            decimal.RequireFromString("125.50"),
		PiecesPerDozen:   12,
		DozensPerPackage: 4,
	}
}

func newTestService(repo *memoryRepo) *Service {
	clock := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	return NewService(repo, nil).
		WithBarcodeSequence(internalShared.NewStampSequenceWithClock("JNS", func() time.Time { return clock }))
}

func TestCreateGeneratesBarcodeAndStocksPositiveQuantities(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	f := form()
	f.Stock = []StockQuantity{{WarehouseID: 1, Quantity: 24}, {WarehouseID: 2, Quantity: 0}}

	p, err := svc.Create(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, "JNS20240506070809", p.Barcode)
	require.Equal(t, 24, p.TotalQuantity)
	require.Equal(t, 24, repo.stock[stockKey{p.ID, 1}])
	_, hasZeroRow := repo.stock[stockKey{p.ID, 2}]
	require.False(t, hasZeroRow)
}

func TestCreateBarcodesAreUniqueWithinProcess(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	a, err := svc.Create(context.Background(), form())
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), form())
	require.NoError(t, err)
	require.NotEqual(t, a.Barcode, b.Barcode)
}

func TestCreateKeepsGivenBarcode(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	f := form()
	f.Barcode = " ABC-1 "
	p, err := svc.Create(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, "ABC-1", p.Barcode)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	f := form()
	f.Name = ""
	f.Price = decimal.RequireFromString("-1")
	f.Stock = []StockQuantity{{WarehouseID: 1, Quantity: 1}, {WarehouseID: 1, Quantity: 2}}
	_, err := svc.Create(context.Background(), f)
	var verr *internalShared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 3)
}

func TestUpdateSetsExistingStockRows(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	f := form()
	f.Stock = []StockQuantity{{WarehouseID: 1, Quantity: 10}}
	p, err := svc.Create(context.Background(), f)
	require.NoError(t, err)

	f = form()
	f.Name = "Slim Fit 2"
	f.Stock = []StockQuantity{{WarehouseID: 1, Quantity: 3}}
	updated, err := svc.Update(context.Background(), p.ID, f)
	require.NoError(t, err)
	require.Equal(t, "Slim Fit 2", updated.Name)
	require.Equal(t, p.Barcode, updated.Barcode)
	require.Equal(t, 3, repo.stock[stockKey{p.ID, 1}])
}

func TestUpdateRejectsUnstockedWarehouse(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	p, err := svc.Create(context.Background(), form())
	require.NoError(t, err)

	f := form()
	f.Name = "changed"
	f.Stock = []StockQuantity{{WarehouseID: 9, Quantity: 3}}
	_, err = svc.Update(context.Background(), p.ID, f)
	require.ErrorIs(t, err, internalShared.ErrValidation)
	require.Equal(t, "Slim Fit", repo.products[p.ID].Name)
	require.Empty(t, repo.stock)
}

func TestDeleteGuardedByReferences(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	f := form()
	f.Stock = []StockQuantity{{WarehouseID: 1, Quantity: 5}}
	p, err := svc.Create(context.Background(), f)
	require.NoError(t, err)

	repo.inUse[p.ID] = true
	require.ErrorIs(t, svc.Delete(context.Background(), p.ID), internalShared.ErrConstraintViolation)
	require.Contains(t, repo.products, p.ID)

	repo.inUse[p.ID] = false
	require.NoError(t, svc.Delete(context.Background(), p.ID))
	require.NotContains(t, repo.products, p.ID)
	require.Empty(t, repo.stock)
}
