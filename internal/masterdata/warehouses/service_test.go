package warehouses

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denimstock/denimstock/internal/inventory"
	"github.com/denimstock/denimstock/internal/masterdata/shared"
	internalShared "github.com/denimstock/denimstock/internal/shared"
)

type memoryRepo struct {
	rows   map[int64]Warehouse
	inUse  map[int64]bool
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]Warehouse), inUse: make(map[int64]bool)}
}

func (m *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error) {
	var out []Warehouse
	for _, w := range m.rows {
		out = append(out, w)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Warehouse, error) {
	w, ok := m.rows[id]
	if !ok {
		return Warehouse{}, internalShared.ErrNotFound
	}
	return w, nil
}

func (m *memoryRepo) FindByName(ctx context.Context, name string) (Warehouse, error) {
	for _, w := range m.rows {
		if strings.EqualFold(w.Name, name) {
			return w, nil
		}
	}
	return Warehouse{}, internalShared.ErrNotFound
}

func (m *memoryRepo) Create(ctx context.Context, in Input) (Warehouse, error) {
	if _, err := m.FindByName(ctx, in.Name); err == nil {
		return Warehouse{}, internalShared.ErrDuplicate
	}
	m.nextID++
	w := Warehouse{ID: m.nextID, Name: in.Name, Location: in.Location, Description: in.Description}
	m.rows[w.ID] = w
	return w, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, in Input) (Warehouse, error) {
	if _, ok := m.rows[id]; !ok {
		return Warehouse{}, internalShared.ErrNotFound
	}
	w := Warehouse{ID: id, Name: in.Name, Location: in.Location, Description: in.Description}
	m.rows[id] = w
	return w, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return internalShared.ErrNotFound
	}
	if m.inUse[id] {
		return ErrInUse
	}
	delete(m.rows, id)
	return nil
}

type stubStock []inventory.StockView

func (s stubStock) ListStock(ctx context.Context, filter inventory.StockFilter) ([]inventory.StockView, error) {
	var out []inventory.StockView
	for _, row := range s {
		if row.WarehouseID == filter.WarehouseID {
			out = append(out, row)
		}
	}
	return out, nil
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo(), stubStock{})
	_, err := svc.Create(context.Background(), Input{Name: "   "})
	require.ErrorIs(t, err, internalShared.ErrValidation)
}

func TestDetailSumsStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, stubStock{
		{ProductID: 1, WarehouseID: 1, Quantity: 12},
		{ProductID: 2, WarehouseID: 1, Quantity: 30},
		{ProductID: 2, WarehouseID: 2, Quantity: 99},
	})
	w, err := svc.Create(context.Background(), Input{Name: "Gudang A"})
	require.NoError(t, err)

	d, err := svc.Detail(context.Background(), w.ID)
	require.NoError(t, err)
	require.Len(t, d.Stock, 2)
	require.Equal(t, 42, d.TotalQuantity)
}

func TestDeleteInUseIsConstraintViolation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, stubStock{})
	w, err := svc.Create(context.Background(), Input{Name: "Gudang B"})
	require.NoError(t, err)
	repo.inUse[w.ID] = true

	err = svc.Delete(context.Background(), w.ID)
	require.ErrorIs(t, err, internalShared.ErrConstraintViolation)
	require.Contains(t, repo.rows, w.ID)
}

func TestEnsureDefaultIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, stubStock{})

	first, created, err := svc.EnsureDefault(context.Background())
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, DefaultName, first.Name)

	second, created, err := svc.EnsureDefault(context.Background())
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.rows, 1)
}
