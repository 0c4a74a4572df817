package clients

// CreateClientRequest is also accepted inline when creating an invoice.
type CreateClientRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,max=20"`
	Location string `json:"location" validate:"max=200"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female"`
}

// UpdateClientRequest replaces the editable fields.
type UpdateClientRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,max=20"`
	Location string `json:"location" validate:"max=200"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female"`
}

// ListClientsRequest pages through clients, optionally filtered by name or phone.
type ListClientsRequest struct {
	Search string
	Limit  int
	Offset int
}
