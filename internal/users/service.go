package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/denimstock/denimstock/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	UsernameExists(ctx context.Context, username string, exceptID int64) (bool, error)
	CreateUser(ctx context.Context, in NewUser) (User, error)
	UpdateProfile(ctx context.Context, id int64, username, passwordHash string) (User, error)
	CountUsers(ctx context.Context) (int, error)
}

// Service handles user business logic.
type Service struct {
	repo       RepositoryPort
	logger     *slog.Logger
	bcryptCost int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost, used by tests.
func (s *Service) WithBcryptCost(cost int) *Service {
	s.bcryptCost = cost
	return s
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].IsAdmin = isAdminRole(users[i].Role)
	}
	return users, nil
}

// Register creates an account. Usernames are unique.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return User{}, shared.Invalid("username", "is required")
	}
	exists, err := s.repo.UsernameExists(ctx, in.Username, 0)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, fmt.Errorf("username %q is already taken: %w", in.Username, shared.ErrDuplicate)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.CreateUser(ctx, NewUser{Username: in.Username, PasswordHash: string(hash), Role: in.Role})
	if err != nil {
		return User{}, err
	}
	user.IsAdmin = isAdminRole(user.Role)
	s.logger.Info("user registered", slog.Int64("user_id", user.ID), slog.String("role", user.Role), slog.Int64("actor_id", shared.ActorID(ctx)))
	return user, nil
}

// Profile returns the caller's account.
func (s *Service) Profile(ctx context.Context, id int64) (User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	user.IsAdmin = isAdminRole(user.Role)
	return user, nil
}

// UpdateProfile renames the account or changes its password.
func (s *Service) UpdateProfile(ctx context.Context, id int64, in ProfileInput) (User, error) {
	current, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = current.Username
	}
	if username != current.Username {
		exists, err := s.repo.UsernameExists(ctx, username, id)
		if err != nil {
			return User{}, err
		}
		if exists {
			return User{}, fmt.Errorf("username %q is already taken: %w", username, shared.ErrDuplicate)
		}
	}
	var hash string
	if in.NewPassword != "" {
		raw, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.bcryptCost)
		if err != nil {
			return User{}, err
		}
		hash = string(raw)
	}
	user, err := s.repo.UpdateProfile(ctx, id, username, hash)
	if err != nil {
		return User{}, err
	}
	user.IsAdmin = isAdminRole(user.Role)
	return user, nil
}

// EnsureOwner creates the first owner account when the table is empty. It
// returns false when accounts already exist.
func (s *Service) EnsureOwner(ctx context.Context, username, password string) (bool, error) {
	n, err := s.repo.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if password == "" {
		return false, shared.Invalid("password", "bootstrap admin password is required on an empty database")
	}
	_, err = s.Register(ctx, RegisterInput{Username: username, Password: password, Role: shared.RoleOwner})
	if err != nil {
		return false, err
	}
	return true, nil
}

func isAdminRole(role string) bool {
	return role == shared.RoleOwner || role == shared.RoleHR
}
