package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced product, warehouse, client, invoice or item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock indicates the requested quantity exceeds the stock row.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrConstraintViolation indicates a write rejected by a referential guard.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrDuplicate indicates a unique key collision.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrForbidden indicates the principal lacks the required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized indicates there is no authenticated principal.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field level details and unwraps to ErrValidation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	if len(e.Fields) == 1 {
		return fmt.Sprintf("%s: %s %s", ErrValidation, e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("%s: %d invalid fields", ErrValidation, len(e.Fields))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError for one field.
func Invalid(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// UserSafeMessage returns a message that can be shown to an operator without
// leaking internal failure details.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrConstraintViolation),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrNotFound):
		return err.Error()
	default:
		return "unexpected error, please retry"
	}
}
