package warehouses

import (
	"strings"

	"github.com/denimstock/denimstock/internal/shared"
)

func (s *Service) validate(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return in, shared.Invalid("name", "warehouse name is required")
	}
	return in, nil
}
