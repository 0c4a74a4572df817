package inventory

import (
	"context"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	ListStock(ctx context.Context, filter StockFilter) ([]StockView, error)
	ListLowStock(ctx context.Context, threshold int) ([]StockView, error)
}

// Service serves the read side of the stock table.
type Service struct {
	repo      RepositoryPort
	threshold int
}

// NewService builds Service. A non-positive threshold falls back to
// DefaultLowStockThreshold.
func NewService(repo RepositoryPort, lowStockThreshold int) *Service {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &Service{repo: repo, threshold: lowStockThreshold}
}

// Threshold returns the low stock threshold in use.
func (s *Service) Threshold() int { return s.threshold }

// ListStock lists stock rows.
func (s *Service) ListStock(ctx context.Context, filter StockFilter) ([]StockView, error) {
	return s.repo.ListStock(ctx, filter)
}

// LowStock lists rows below the threshold.
func (s *Service) LowStock(ctx context.Context) ([]StockView, error) {
	return s.repo.ListLowStock(ctx, s.threshold)
}
