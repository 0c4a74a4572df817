package users

import "time"

// User represents a back-office account.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegisterInput captures a new account request.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=owner hr staff"`
}

// ProfileInput updates the caller's own account. Empty fields are left as is.
type ProfileInput struct {
	Username    string `json:"username" validate:"omitempty,min=3,max=64"`
	NewPassword string `json:"new_password" validate:"omitempty,min=8,max=72"`
}

// NewUser is the persisted form of a registration.
type NewUser struct {
	Username     string
	PasswordHash string
	Role         string
}
