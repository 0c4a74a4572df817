package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/denimstock/denimstock/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the stored settings, or the defaults when the row is missing.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	current, err := s.repo.Get(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return Defaults(), nil
	}
	return current, err
}

// Update replaces every editable field.
func (s *Service) Update(ctx context.Context, in Settings) (Settings, error) {
	in.BrandName = strings.TrimSpace(in.BrandName)
	in.ThemeColor = strings.ToLower(strings.TrimSpace(in.ThemeColor))
	in.OwnerEmail = strings.TrimSpace(in.OwnerEmail)
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	if in.BrandName == "" {
		return Settings{}, shared.Invalid("brand_name", "is required")
	}
	order := make([]string, 0, len(in.SidebarOrder))
	seen := make(map[string]bool, len(in.SidebarOrder))
	for i, section := range in.SidebarOrder {
		section = strings.TrimSpace(section)
		if !known(section) {
			return Settings{}, shared.Invalid(fmt.Sprintf("sidebar_order[%d]", i), "unknown section")
		}
		if seen[section] {
			continue
		}
		seen[section] = true
		order = append(order, section)
	}
	in.SidebarOrder = order
	if _, err := s.repo.Insert(ctx, Defaults()); err != nil {
		return Settings{}, err
	}
	return s.repo.Save(ctx, in)
}

// EnsureDefault writes the default row when none exists.
func (s *Service) EnsureDefault(ctx context.Context) (bool, error) {
	return s.repo.Insert(ctx, Defaults())
}

func known(section string) bool {
	for _, s := range Sections {
		if s == section {
			return true
		}
	}
	return false
}
