package orm

import (
	"context"
	"customer-api/internal/domain/customer"
	"customer-api/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

type customerModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"not null;uniqueIndex:customer_email_unique"`
	Password  string `gorm:"not null"`
	Age       int    `gorm:"not null"`
	Gender    string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (customerModel) TableName() string {
	return "customer"
}

func fromDomain(c *customer.Customer) *customerModel {
	return &customerModel{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Password:  c.Password,
		Age:       c.Age,
		Gender:    string(c.Gender),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (m *customerModel) toDomain() *customer.Customer {
	return &customer.Customer{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Password:  m.Password,
		Age:       m.Age,
		Gender:    customer.Gender(m.Gender),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// CustomerDAO is the gorm backed customer.Dao, selected with database.dao=jpa.
type CustomerDAO struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ customer.Dao = (*CustomerDAO)(nil)

func NewCustomerDAO(db *gorm.DB, logger *slog.Logger) *CustomerDAO {
	if db == nil {
		panic("gorm DB cannot be nil for CustomerDAO")
	}
	return &CustomerDAO{
		db:     db,
		logger: logger.With("component", "CustomerDAO"),
	}
}

func (d *CustomerDAO) SelectAllCustomers(ctx context.Context) ([]*customer.Customer, error) {
	var models []customerModel
	if err := d.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, d.translate(ctx, "SelectAllCustomers", err)
	}

	customers := make([]*customer.Customer, 0, len(models))
	for i := range models {
		customers = append(customers, models[i].toDomain())
	}
	return customers, nil
}

func (d *CustomerDAO) SelectCustomerByID(ctx context.Context, id int64) (*customer.Customer, error) {
	var m customerModel
	if err := d.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, d.translate(ctx, "SelectCustomerByID", err)
	}
	return m.toDomain(), nil
}

func (d *CustomerDAO) SelectUserByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	var m customerModel
	if err := d.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		return nil, d.translate(ctx, "SelectUserByEmail", err)
	}
	return m.toDomain(), nil
}

func (d *CustomerDAO) InsertCustomer(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	m := fromDomain(cust)
	m.ID = 0
	if err := d.db.WithContext(ctx).Create(m).Error; err != nil {
		return d.translate(ctx, "InsertCustomer", err)
	}

	cust.ID = m.ID
	cust.CreatedAt = m.CreatedAt
	cust.UpdatedAt = m.UpdatedAt
	d.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (d *CustomerDAO) ExistsCustomerWithEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&customerModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, d.translate(ctx, "ExistsCustomerWithEmail", err)
	}
	return count > 0, nil
}

func (d *CustomerDAO) ExistsCustomerWithID(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&customerModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, d.translate(ctx, "ExistsCustomerWithID", err)
	}
	return count > 0, nil
}

func (d *CustomerDAO) UpdateCustomer(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	result := d.db.WithContext(ctx).Model(&customerModel{}).Where("id = ?", cust.ID).Updates(map[string]any{
		"name":       cust.Name,
		"email":      cust.Email,
		"password":   cust.Password,
		"age":        cust.Age,
		"gender":     string(cust.Gender),
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return d.translate(ctx, "UpdateCustomer", result.Error)
	}
	if result.RowsAffected == 0 {
		d.logger.WarnContext(ctx, "Update affected zero rows, customer likely not found", slog.Int64("customerID", cust.ID))
		return customer.ErrNotFound
	}
	return nil
}

func (d *CustomerDAO) DeleteCustomerByID(ctx context.Context, id int64) error {
	result := d.db.WithContext(ctx).Delete(&customerModel{}, id)
	if result.Error != nil {
		return d.translate(ctx, "DeleteCustomerByID", result.Error)
	}
	if result.RowsAffected == 0 {
		d.logger.WarnContext(ctx, "Delete affected zero rows, customer likely not found", slog.Int64("customerID", id))
		return customer.ErrNotFound
	}
	return nil
}

func (d *CustomerDAO) CountCustomers(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&customerModel{}).Count(&count).Error; err != nil {
		return 0, d.translate(ctx, "CountCustomers", err)
	}
	return count, nil
}

func (d *CustomerDAO) translate(ctx context.Context, operation string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		d.logger.DebugContext(ctx, "Customer not found", slog.String("operation", operation))
		return customer.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		d.logger.WarnContext(ctx, "Unique constraint violation", slog.String("operation", operation))
		return fmt.Errorf("%w: %w", customer.ErrDuplicateEmail, err)
	default:
		d.logger.ErrorContext(ctx, "ORM query failed", slog.String("operation", operation), slog.Any("error", err))
		return fmt.Errorf("%w: %s: %w", apperrors.ErrDatabase, operation, err)
	}
}
