package customer

import (
	"context"
	"customer-api/internal/pkg/apperrors"
	"errors"
	"fmt"
)

var (
	ErrNotFound = fmt.Errorf("customer %w", apperrors.ErrNotFound)

	ErrDuplicateEmail = apperrors.NewConflictError("email already taken")

	ErrNoChanges = apperrors.NewValidationError("", "no data changes found")
)

// IsNotFound reports whether err came from a lookup of a missing customer,
// whichever Dao produced it.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, apperrors.ErrNotFound)
}

// IsDuplicateEmail reports whether err is a unique email violation.
func IsDuplicateEmail(err error) bool {
	return errors.Is(err, ErrDuplicateEmail) || errors.Is(err, apperrors.ErrAlreadyExists)
}

// Dao abstracts customer storage. Implementations are thin pass-throughs to
// their backing store and translate storage failures into the errors above.
type Dao interface {
	SelectAllCustomers(ctx context.Context) ([]*Customer, error)

	SelectCustomerByID(ctx context.Context, id int64) (*Customer, error)

	InsertCustomer(ctx context.Context, customer *Customer) error

	ExistsCustomerWithEmail(ctx context.Context, email string) (bool, error)

	ExistsCustomerWithID(ctx context.Context, id int64) (bool, error)

	DeleteCustomerByID(ctx context.Context, id int64) error

	UpdateCustomer(ctx context.Context, customer *Customer) error

	SelectUserByEmail(ctx context.Context, email string) (*Customer, error)

	CountCustomers(ctx context.Context) (int64, error)
}
