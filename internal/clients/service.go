package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/denimstock/denimstock/internal/shared"
)

const searchLimit = 5

// Service holds client rules.
type Service struct {
	repo Repository
}

// NewService constructs Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Normalize trims the request and applies the default gender.
func (r CreateClientRequest) Normalize() CreateClientRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Location = strings.TrimSpace(r.Location)
	if r.Gender == "" {
		r.Gender = "male"
	}
	return r
}

// Validate checks the fields the validator cannot see after trimming.
func (r CreateClientRequest) Validate() error {
	if r.Name == "" {
		return shared.Invalid("name", "is required")
	}
	if r.Phone == "" {
		return shared.Invalid("phone", "is required")
	}
	return nil
}

// Create inserts a client.
func (s *Service) Create(ctx context.Context, req CreateClientRequest) (Client, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return Client{}, err
	}
	c, err := s.repo.Create(ctx, req)
	if err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// Update edits a client.
func (s *Service) Update(ctx context.Context, id int64, req UpdateClientRequest) (Client, error) {
	norm := CreateClientRequest(req).Normalize()
	if err := norm.Validate(); err != nil {
		return Client{}, err
	}
	return s.repo.Update(ctx, id, UpdateClientRequest(norm))
}

// List pages through clients.
func (s *Service) List(ctx context.Context, search string, page shared.PageRequest) ([]Client, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, ListClientsRequest{
		Search: strings.TrimSpace(search),
		Limit:  page.PerPage,
		Offset: page.Offset(),
	})
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// Search returns up to five clients whose name or phone contains q.
func (s *Service) Search(ctx context.Context, q string) ([]Client, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Client{}, nil
	}
	return s.repo.Search(ctx, q, searchLimit)
}

// Detail returns the client with invoices, total purchases and debt. Debt
// counts only invoices that still carry a positive remainder.
func (s *Service) Detail(ctx context.Context, id int64) (Detail, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	invoices, err := s.repo.ListInvoices(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{Client: c, Invoices: invoices, TotalPurchases: decimal.Zero, TotalDebt: decimal.Zero}
	if d.Invoices == nil {
		d.Invoices = []InvoiceSummary{}
	}
	for _, inv := range invoices {
		d.TotalPurchases = d.TotalPurchases.Add(inv.TotalAmount)
		if inv.RemainingAmount.IsPositive() {
			d.TotalDebt = d.TotalDebt.Add(inv.RemainingAmount)
		}
	}
	return d, nil
}
