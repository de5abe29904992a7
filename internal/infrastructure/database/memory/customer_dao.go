package memory

import (
	"context"
	"customer-api/internal/domain/customer"
	"customer-api/internal/pkg/apperrors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const seedPassword = "password"

// CustomerListDAO keeps customers in a slice, selected with database.dao=list.
// Stored values are copied on the way in and out.
type CustomerListDAO struct {
	mu        sync.RWMutex
	customers []*customer.Customer
	nextID    int64
	logger    *slog.Logger
}

var _ customer.Dao = (*CustomerListDAO)(nil)

func NewCustomerListDAO(logger *slog.Logger, seed ...*customer.Customer) *CustomerListDAO {
	d := &CustomerListDAO{
		customers: make([]*customer.Customer, 0, len(seed)),
		nextID:    1,
		logger:    logger.With("component", "CustomerListDAO"),
	}
	for _, c := range seed {
		stored := clone(c)
		if stored.ID == 0 {
			stored.ID = d.nextID
		}
		if stored.ID >= d.nextID {
			d.nextID = stored.ID + 1
		}
		d.customers = append(d.customers, stored)
	}
	return d
}

// DefaultSeed returns the two starter customers, Alex and Jamila, with
// "password" encoded by encoder.
func DefaultSeed(encoder customer.PasswordEncoder) ([]*customer.Customer, error) {
	hash, err := encoder.Encode(seedPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to encode seed password: %w", err)
	}
	return []*customer.Customer{
		customer.NewCustomer("Alex", "alex@gmail.com", hash, 21, customer.GenderMale),
		customer.NewCustomer("Jamila", "jamila@gmail.com", hash, 19, customer.GenderFemale),
	}, nil
}

func (d *CustomerListDAO) SelectAllCustomers(_ context.Context) ([]*customer.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*customer.Customer, 0, len(d.customers))
	for _, c := range d.customers {
		out = append(out, clone(c))
	}
	return out, nil
}

func (d *CustomerListDAO) SelectCustomerByID(_ context.Context, id int64) (*customer.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if i := d.indexByID(id); i >= 0 {
		return clone(d.customers[i]), nil
	}
	return nil, customer.ErrNotFound
}

func (d *CustomerListDAO) SelectUserByEmail(_ context.Context, email string) (*customer.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if i := d.indexByEmail(email); i >= 0 {
		return clone(d.customers[i]), nil
	}
	return nil, customer.ErrNotFound
}

func (d *CustomerListDAO) InsertCustomer(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.indexByEmail(cust.Email) >= 0 {
		return customer.ErrDuplicateEmail
	}

	now := time.Now()
	cust.ID = d.nextID
	cust.CreatedAt, cust.UpdatedAt = now, now
	d.nextID++
	d.customers = append(d.customers, clone(cust))

	d.logger.DebugContext(ctx, "Customer inserted", slog.Int64("customerID", cust.ID))
	return nil
}

func (d *CustomerListDAO) ExistsCustomerWithEmail(_ context.Context, email string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.indexByEmail(email) >= 0, nil
}

func (d *CustomerListDAO) ExistsCustomerWithID(_ context.Context, id int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.indexByID(id) >= 0, nil
}

func (d *CustomerListDAO) UpdateCustomer(_ context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexByID(cust.ID)
	if i < 0 {
		return customer.ErrNotFound
	}
	if j := d.indexByEmail(cust.Email); j >= 0 && j != i {
		return customer.ErrDuplicateEmail
	}

	updated := clone(cust)
	updated.CreatedAt = d.customers[i].CreatedAt
	d.customers[i] = updated
	return nil
}

func (d *CustomerListDAO) DeleteCustomerByID(ctx context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexByID(id)
	if i < 0 {
		return customer.ErrNotFound
	}
	d.customers = append(d.customers[:i], d.customers[i+1:]...)

	d.logger.DebugContext(ctx, "Customer deleted", slog.Int64("customerID", id))
	return nil
}

func (d *CustomerListDAO) CountCustomers(_ context.Context) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return int64(len(d.customers)), nil
}

func (d *CustomerListDAO) indexByID(id int64) int {
	for i, c := range d.customers {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (d *CustomerListDAO) indexByEmail(email string) int {
	for i, c := range d.customers {
		if c.Email == email {
			return i
		}
	}
	return -1
}

func clone(c *customer.Customer) *customer.Customer {
	cp := *c
	return &cp
}
