package clients

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/denimstock/denimstock/internal/shared"
)

type memoryRepo struct {
	clients  []Client
	invoices map[int64][]InvoiceSummary
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{invoices: make(map[int64][]InvoiceSummary)}
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Client, error) {
	for _, c := range m.clients {
		if c.ID == id {
			return c, nil
		}
	}
	return Client{}, fmt.Errorf("client %d: %w", id, shared.ErrNotFound)
}

func (m *memoryRepo) match(q string) []Client {
	var out []Client
	q = strings.ToLower(q)
	for _, c := range m.clients {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Phone), q) {
			out = append(out, c)
		}
	}
	return out
}

func (m *memoryRepo) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	all := m.match(req.Search)
	end := req.Offset + req.Limit
	if end > len(all) {
		end = len(all)
	}
	if req.Offset >= len(all) {
		return nil, len(all), nil
	}
	return all[req.Offset:end], len(all), nil
}

func (m *memoryRepo) Search(ctx context.Context, query string, limit int) ([]Client, error) {
	all := m.match(query)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memoryRepo) Create(ctx context.Context, req CreateClientRequest) (Client, error) {
	c := Client{ID: int64(len(m.clients) + 1), Name: req.Name, Phone: req.Phone, Location: req.Location, Gender: req.Gender}
	m.clients = append(m.clients, c)
	return c, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, req UpdateClientRequest) (Client, error) {
	for i, c := range m.clients {
		if c.ID == id {
			m.clients[i] = Client{ID: id, Name: req.Name, Phone: req.Phone, Location: req.Location, Gender: req.Gender}
			return m.clients[i], nil
		}
	}
	return Client{}, shared.ErrNotFound
}

func (m *memoryRepo) ListInvoices(ctx context.Context, clientID int64) ([]InvoiceSummary, error) {
	return m.invoices[clientID], nil
}

func TestCreateTrimsAndDefaultsGender(t *testing.T) {
	svc := NewService(newMemoryRepo())
	c, err := svc.Create(context.Background(), CreateClientRequest{Name: "  Budi ", Phone: " 0812 "})
	require.NoError(t, err)
	require.Equal(t, "Budi", c.Name)
	require.Equal(t, "0812", c.Phone)
	require.Equal(t, "male", c.Gender)
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.Create(context.Background(), CreateClientRequest{Name: "   ", Phone: "1"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSearchIsCaseInsensitiveAndCapped(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	for i := 0; i < 7; i++ {
		_, err := svc.Create(context.Background(), CreateClientRequest{Name: fmt.Sprintf("Toko Jaya %d", i), Phone: fmt.Sprintf("08%d", i)})
		require.NoError(t, err)
	}
	found, err := svc.Search(context.Background(), "JAYA")
	require.NoError(t, err)
	require.Len(t, found, 5)

	empty, err := svc.Search(context.Background(), "  ")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestDetailSumsPurchasesAndPositiveDebt(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	c, err := svc.Create(context.Background(), CreateClientRequest{Name: "Sari", Phone: "0899"})
	require.NoError(t, err)
	repo.invoices[c.ID] = []InvoiceSummary{
		{ID: 1, TotalAmount: decimal.NewFromInt(100), RemainingAmount: decimal.NewFromInt(40)},
		{ID: 2, TotalAmount: decimal.NewFromInt(50), RemainingAmount: decimal.NewFromInt(-10)},
		{ID: 3, TotalAmount: decimal.NewFromInt(30), RemainingAmount: decimal.Zero},
	}

	d, err := svc.Detail(context.Background(), c.ID)
	require.NoError(t, err)
	require.True(t, d.TotalPurchases.Equal(decimal.NewFromInt(180)))
	require.True(t, d.TotalDebt.Equal(decimal.NewFromInt(40)))
	require.Len(t, d.Invoices, 3)
}

func TestDetailUnknownClient(t *testing.T) {
	_, err := NewService(newMemoryRepo()).Detail(context.Background(), 9)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListPaginates(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), CreateClientRequest{Name: fmt.Sprintf("C%d", i), Phone: "1"})
		require.NoError(t, err)
	}
	items, page, err := svc.List(context.Background(), "", shared.PageRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 3, page.Total)
	require.Equal(t, 2, page.TotalPages)
}
