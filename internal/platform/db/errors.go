package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/denimstock/denimstock/internal/shared"
)

// Postgres SQLSTATE codes mapped onto the domain taxonomy.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
)

// ErrSerialization is returned when a repeatable-read transaction lost a race.
var ErrSerialization = errors.New("platform/db: concurrent update, retry")

// MapError translates driver errors into shared sentinel errors. Errors that
// already carry a domain meaning pass through untouched.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", shared.ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", shared.ErrDuplicate, pgErr.ConstraintName)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", shared.ErrConstraintViolation, pgErr.ConstraintName)
	case codeCheckViolation:
		if pgErr.ConstraintName == "stock_quantity_non_negative" {
			return fmt.Errorf("%w: %s", shared.ErrInsufficientStock, pgErr.ConstraintName)
		}
		return fmt.Errorf("%w: %s", shared.ErrValidation, pgErr.ConstraintName)
	case codeSerializationFailure:
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return err
}
