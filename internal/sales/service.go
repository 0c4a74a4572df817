package sales

import (
	"context"
	"time"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// RepositoryPort abstracts sale listing.
type RepositoryPort interface {
	ListSales(ctx context.Context, filter ListFilter) ([]SaleView, error)
}

// Service serves the read side of the sales trail.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns sales newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]SaleView, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		filter.From, filter.To = filter.To, filter.From
	}
	return s.repo.ListSales(ctx, filter)
}

// ParseDay parses a YYYY-MM-DD query value; empty input yields the zero time.
func ParseDay(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(time.DateOnly, raw, time.Local)
}
