package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-api/internal/domain/customer"
	"customer-api/internal/infrastructure/monitoring"
	"customer-api/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const customerColumns = `id, name, email, password, age, gender, created_at, updated_at`

// CustomerRepository is the raw SQL customer.Dao, selected with database.dao=jdbc.
type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.Dao = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) SelectAllCustomers(ctx context.Context) ([]*customer.Customer, error) {
	r.logger.DebugContext(ctx, "Attempting to select all customers")
	startTime := time.Now()

	query := `SELECT ` + customerColumns + ` FROM customer ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		monitoring.RecordDBQuery("SelectAllCustomers", statusError, time.Since(startTime))
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			monitoring.RecordDBQuery("SelectAllCustomers", statusError, time.Since(startTime))
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, cust)
	}

	if err = rows.Err(); err != nil {
		monitoring.RecordDBQuery("SelectAllCustomers", statusError, time.Since(startTime))
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("SelectAllCustomers", statusSuccess, time.Since(startTime))
	r.logger.DebugContext(ctx, "Finished selecting customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (r *CustomerRepository) SelectCustomerByID(ctx context.Context, id int64) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customer WHERE id = $1`
	return r.selectOne(ctx, "SelectCustomerByID", query, id)
}

func (r *CustomerRepository) SelectUserByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customer WHERE email = $1`
	return r.selectOne(ctx, "SelectUserByEmail", query, email)
}

func (r *CustomerRepository) selectOne(ctx context.Context, queryName, query string, arg any) (*customer.Customer, error) {
	logCtx := r.logger.With(slog.String("operation", queryName))
	startTime := time.Now()

	cust, err := scanCustomer(r.db.QueryRow(ctx, query, arg))
	monitoring.RecordDBQuery(queryName, queryStatus(err), time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logCtx.DebugContext(ctx, "Customer not found")
			return nil, customer.ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Failed to query/scan customer", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer: %w", apperrors.ErrDatabase, err)
	}

	return cust, nil
}

func (r *CustomerRepository) InsertCustomer(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("email", cust.Email))
	startTime := time.Now()

	query := `
        INSERT INTO customer (name, email, password, age, gender, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		cust.Name,
		cust.Email,
		cust.Password,
		cust.Age,
		string(cust.Gender),
	).Scan(
		&cust.ID,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	monitoring.RecordDBQuery("InsertCustomer", queryStatus(err), time.Since(startTime))

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation")
			return fmt.Errorf(errMsgFormat, customer.ErrDuplicateEmail, translatedErr)
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) ExistsCustomerWithEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM customer WHERE email = $1)`
	return r.exists(ctx, "ExistsCustomerWithEmail", query, email)
}

func (r *CustomerRepository) ExistsCustomerWithID(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM customer WHERE id = $1)`
	return r.exists(ctx, "ExistsCustomerWithID", query, id)
}

func (r *CustomerRepository) exists(ctx context.Context, queryName, query string, arg any) (bool, error) {
	startTime := time.Now()

	var found bool
	err := r.db.QueryRow(ctx, query, arg).Scan(&found)
	monitoring.RecordDBQuery(queryName, queryStatus(err), time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check customer existence", slog.String("operation", queryName), slog.Any("error", err))
		return false, fmt.Errorf("%w: failed to check customer existence: %w", apperrors.ErrDatabase, err)
	}
	return found, nil
}

func (r *CustomerRepository) UpdateCustomer(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	logCtx := r.logger.With(slog.Int64("customerID", cust.ID))
	logCtx.InfoContext(ctx, "Attempting to update customer")
	startTime := time.Now()

	query := `
        UPDATE customer
        SET name = $1,
            email = $2,
            password = $3,
            age = $4,
            gender = $5,
            updated_at = NOW()
        WHERE id = $6`

	cmdTag, err := r.db.Exec(ctx, query,
		cust.Name,
		cust.Email,
		cust.Password,
		cust.Age,
		string(cust.Gender),
		cust.ID,
	)
	monitoring.RecordDBQuery("UpdateCustomer", queryStatus(err), time.Since(startTime))

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			logCtx.WarnContext(ctx, "Failed to update customer due to unique constraint violation")
			return fmt.Errorf(errMsgFormat, customer.ErrDuplicateEmail, translatedErr)
		}
		logCtx.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		logCtx.WarnContext(ctx, "Update affected zero rows, customer likely not found")
		return customer.ErrNotFound
	}

	logCtx.InfoContext(ctx, "Customer updated successfully")
	return nil
}

func (r *CustomerRepository) DeleteCustomerByID(ctx context.Context, id int64) error {
	logCtx := r.logger.With(slog.Int64("customerID", id))
	logCtx.InfoContext(ctx, "Attempting to delete customer")
	startTime := time.Now()

	query := `DELETE FROM customer WHERE id = $1`

	cmdTag, err := r.db.Exec(ctx, query, id)
	monitoring.RecordDBQuery("DeleteCustomerByID", queryStatus(err), time.Since(startTime))
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to execute delete customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		logCtx.WarnContext(ctx, "Delete affected zero rows, customer likely not found")
		return customer.ErrNotFound
	}

	logCtx.InfoContext(ctx, "Customer deleted successfully")
	return nil
}

func (r *CustomerRepository) CountCustomers(ctx context.Context) (int64, error) {
	startTime := time.Now()

	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customer`).Scan(&count)
	monitoring.RecordDBQuery("CountCustomers", queryStatus(err), time.Since(startTime))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to count customers", slog.Any("error", err))
		return 0, fmt.Errorf("%w: failed to count customers: %w", apperrors.ErrDatabase, err)
	}
	return count, nil
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var cust customer.Customer
	var gender string
	err := row.Scan(
		&cust.ID,
		&cust.Name,
		&cust.Email,
		&cust.Password,
		&cust.Age,
		&gender,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cust.Gender = customer.Gender(gender)
	return &cust, nil
}
