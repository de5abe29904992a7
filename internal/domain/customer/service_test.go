package customer_test

import (
	"context"
	"customer-api/internal/domain/customer"
	"customer-api/internal/event"
	"customer-api/internal/pkg/apperrors"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupTest() (*customer.MockDao, *customer.MockEventPublisher, customer.CustomerService) {
	mockDao := new(customer.MockDao)
	mockPub := new(customer.MockEventPublisher)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := customer.NewCustomerService(mockDao, customer.PlainEncoder{}, mockPub, logger)
	return mockDao, mockPub, service
}

func ptr[T any](v T) *T {
	return &v
}

func existingCustomer() *customer.Customer {
	return &customer.Customer{
		ID:       42,
		Name:     "Alex",
		Email:    "alex@gmail.com",
		Password: "encoded:password",
		Age:      21,
		Gender:   customer.GenderMale,
	}
}

func TestCustomerService_GetAllCustomers(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockDao, _, service := setupTest()
		expected := []*customer.Customer{existingCustomer()}
		mockDao.On("SelectAllCustomers", ctx).Return(expected, nil).Once()

		customers, err := service.GetAllCustomers(ctx)

		assert.NoError(t, err)
		assert.Equal(t, expected, customers)
		mockDao.AssertExpectations(t)
	})

	t.Run("Error - Dao Failure", func(t *testing.T) {
		mockDao, _, service := setupTest()
		dbErr := errors.New("connection refused")
		mockDao.On("SelectAllCustomers", ctx).Return(nil, dbErr).Once()

		customers, err := service.GetAllCustomers(ctx)

		assert.Nil(t, customers)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to list customers")
	})
}

func TestCustomerService_GetCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockDao, _, service := setupTest()
		expected := existingCustomer()
		mockDao.On("SelectCustomerByID", ctx, int64(42)).Return(expected, nil).Once()

		cust, err := service.GetCustomer(ctx, 42)

		assert.NoError(t, err)
		assert.Equal(t, expected, cust)
	})

	t.Run("Error - Not Found", func(t *testing.T) {
		mockDao, _, service := setupTest()
		mockDao.On("SelectCustomerByID", ctx, int64(7)).Return(nil, apperrors.ErrNotFound).Once()

		cust, err := service.GetCustomer(ctx, 7)

		assert.Nil(t, cust)
		assert.ErrorIs(t, err, customer.ErrNotFound)
		assert.Contains(t, err.Error(), "customer with id [7] not found")
	})

	t.Run("Error - Dao Failure", func(t *testing.T) {
		mockDao, _, service := setupTest()
		dbErr := errors.New("timeout")
		mockDao.On("SelectCustomerByID", ctx, int64(7)).Return(nil, dbErr).Once()

		_, err := service.GetCustomer(ctx, 7)

		assert.ErrorIs(t, err, dbErr)
		assert.False(t, customer.IsNotFound(err))
	})
}

func TestCustomerService_AddCustomer(t *testing.T) {
	ctx := context.Background()
	req := customer.RegistrationRequest{
		Name:     "  Alex  ",
		Email:    " alex@gmail.com ",
		Password: "password",
		Age:      21,
		Gender:   customer.GenderMale,
	}

	t.Run("Success", func(t *testing.T) {
		mockDao, mockPub, service := setupTest()
		mockDao.On("ExistsCustomerWithEmail", ctx, "alex@gmail.com").Return(false, nil).Once()
		mockDao.On("InsertCustomer", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.Name == "Alex" && c.Email == "alex@gmail.com" && c.Password == "encoded:password" &&
				c.Age == 21 && c.Gender == customer.GenderMale
		})).Return(func(_ context.Context, c *customer.Customer) error {
			c.ID = 1
			return nil
		}).Once()
		mockPub.On("PublishCustomerRegistered", ctx, mock.MatchedBy(func(e event.CustomerRegisteredEvent) bool {
			return e.Payload.CustomerID == 1 && e.Payload.Email == "alex@gmail.com"
		})).Return(nil).Once()

		cust, err := service.AddCustomer(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, int64(1), cust.ID)
		assert.Equal(t, "encoded:password", cust.Password)
		mockDao.AssertExpectations(t)
		mockPub.AssertExpectations(t)
	})

	t.Run("Error - Duplicate Email", func(t *testing.T) {
		mockDao, mockPub, service := setupTest()
		mockDao.On("ExistsCustomerWithEmail", ctx, "alex@gmail.com").Return(true, nil).Once()

		cust, err := service.AddCustomer(ctx, req)

		assert.Nil(t, cust)
		assert.ErrorIs(t, err, customer.ErrDuplicateEmail)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
		mockDao.AssertNotCalled(t, "InsertCustomer", mock.Anything, mock.Anything)
		mockPub.AssertNotCalled(t, "PublishCustomerRegistered", mock.Anything, mock.Anything)
	})

	t.Run("Error - Duplicate Email Raced On Insert", func(t *testing.T) {
		mockDao, _, service := setupTest()
		mockDao.On("ExistsCustomerWithEmail", ctx, "alex@gmail.com").Return(false, nil).Once()
		mockDao.On("InsertCustomer", ctx, mock.Anything).Return(apperrors.ErrAlreadyExists).Once()

		_, err := service.AddCustomer(ctx, req)

		assert.ErrorIs(t, err, customer.ErrDuplicateEmail)
	})

	t.Run("Error - Empty Name", func(t *testing.T) {
		mockDao, _, service := setupTest()

		_, err := service.AddCustomer(ctx, customer.RegistrationRequest{Name: " ", Email: "a@b.c", Password: "p"})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockDao.AssertNotCalled(t, "ExistsCustomerWithEmail", mock.Anything, mock.Anything)
	})

	t.Run("Error - Empty Password", func(t *testing.T) {
		_, _, service := setupTest()

		_, err := service.AddCustomer(ctx, customer.RegistrationRequest{Name: "A", Email: "a@b.c"})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("Error - Encoder Failure", func(t *testing.T) {
		mockDao := new(customer.MockDao)
		encErr := errors.New("cost too high")
		service := customer.NewCustomerService(mockDao, customer.PlainEncoder{Err: encErr}, event.NoopPublisher{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
		mockDao.On("ExistsCustomerWithEmail", ctx, "alex@gmail.com").Return(false, nil).Once()

		_, err := service.AddCustomer(ctx, req)

		assert.ErrorIs(t, err, encErr)
		mockDao.AssertNotCalled(t, "InsertCustomer", mock.Anything, mock.Anything)
	})

	t.Run("Publish failure does not fail registration", func(t *testing.T) {
		mockDao, mockPub, service := setupTest()
		mockDao.On("ExistsCustomerWithEmail", ctx, "alex@gmail.com").Return(false, nil).Once()
		mockDao.On("InsertCustomer", ctx, mock.Anything).Return(nil).Once()
		mockPub.On("PublishCustomerRegistered", ctx, mock.Anything).Return(errors.New("broker down")).Once()

		cust, err := service.AddCustomer(ctx, req)

		assert.NoError(t, err)
		assert.NotNil(t, cust)
	})
}

func TestCustomerService_DeleteCustomerByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockDao, mockPub, service := setupTest()
		mockDao.On("ExistsCustomerWithID", ctx, int64(42)).Return(true, nil).Once()
		mockDao.On("DeleteCustomerByID", ctx, int64(42)).Return(nil).Once()
		mockPub.On("PublishCustomerDeleted", ctx, mock.MatchedBy(func(e event.CustomerDeletedEvent) bool {
			return e.CustomerID == 42
		})).Return(nil).Once()

		err := service.DeleteCustomerByID(ctx, 42)

		assert.NoError(t, err)
		mockDao.AssertExpectations(t)
		mockPub.AssertExpectations(t)
	})

	t.Run("Error - Not Found", func(t *testing.T) {
		mockDao, _, service := setupTest()
		mockDao.On("ExistsCustomerWithID", ctx, int64(42)).Return(false, nil).Once()

		err := service.DeleteCustomerByID(ctx, 42)

		assert.ErrorIs(t, err, customer.ErrNotFound)
		mockDao.AssertNotCalled(t, "DeleteCustomerByID", mock.Anything, mock.Anything)
	})

	t.Run("Error - Dao Failure", func(t *testing.T) {
		mockDao, _, service := setupTest()
		dbErr := errors.New("deadlock")
		mockDao.On("ExistsCustomerWithID", ctx, int64(42)).Return(true, nil).Once()
		mockDao.On("DeleteCustomerByID", ctx, int64(42)).Return(dbErr).Once()

		err := service.DeleteCustomerByID(ctx, 42)

		assert.ErrorIs(t, err, dbErr)
	})
}

func TestCustomerService_UpdateCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Updates only changed fields", func(t *testing.T) {
		mockDao, mockPub, service := setupTest()
		mockDao.On("SelectCustomerByID", ctx, int64(42)).Return(existingCustomer(), nil).Once()
		mockDao.On("UpdateCustomer", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.ID == 42 && c.Name == "Alexander" && c.Age == 21 && c.Email == "alex@gmail.com"
		})).Return(nil).Once()
		mockPub.On("PublishCustomerUpdated", ctx, mock.Anything).Return(nil).Once()

		err := service.UpdateCustomer(ctx, 42, customer.UpdateRequest{Name: ptr("Alexander"), Age: ptr(21)})

		assert.NoError(t, err)
		mockDao.AssertExpectations(t)
		mockDao.AssertNotCalled(t, "ExistsCustomerWithEmail", mock.Anything, mock.Anything)
	})

	t.Run("Updates email when not taken", func(t *testing.T) {
		mockDao, mockPub, service := setupTest()
		mockDao.On("SelectCustomerByID", ctx, int64(42)).Return(existingCustomer(), nil).Once()
		mockDao.On("ExistsCustomerWithEmail", ctx, "new@gmail.com").Return(false, nil).Once()
		mockDao.On("UpdateCustomer", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.Email == "new@gmail.com"
		})).Return(nil).Once()
		mockPub.On("PublishCustomerUpdated", ctx, mock.Anything).Return(nil).Once()

		err := service.UpdateCustomer(ctx, 42, customer.UpdateRequest{Email: ptr("new@gmail.com")})

		assert.NoError(t, err)
		mockDao.AssertExpectations(t)
	})

	t.Run("Error - Email Taken", func(t *testing.T) {
		mockDao, _, service := setupTest()
		mockDao.On("SelectCustomerByID", ctx, int64(42)).Return(existingCustomer(), nil).Once()
		mockDao.On("ExistsCustomerWithEmail", ctx, "jamila@gmail.com").Return(true, nil).Once()

		err := service.UpdateCustomer(ctx, 42, customer.UpdateRequest{Email: ptr("jamila@gmail.com")})

		assert.ErrorIs(t, err, customer.ErrDuplicateEmail)
		mockDao.AssertNotCalled(t, "UpdateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("Error - No Changes", func(t *testing.T) {
		mockDao, _, service := setupTest()
		mockDao.On("SelectCustomerByID", ctx, int64(42)).Return(existingCustomer(), nil).Once()

		err := service.UpdateCustomer(ctx, 42, customer.UpdateRequest{
			Name:  ptr("Alex"),
			Email: ptr("alex@gmail.com"),
			Age:   ptr(21),
		})

		assert.ErrorIs(t, err, customer.ErrNoChanges)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockDao.AssertNotCalled(t, "UpdateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("Error - Blank Name", func(t *testing.T) {
		mockDao, _, service := setupTest()
		mockDao.On("SelectCustomerByID", ctx, int64(42)).Return(existingCustomer(), nil).Once()

		err := service.UpdateCustomer(ctx, 42, customer.UpdateRequest{Name: ptr("   ")})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockDao.AssertNotCalled(t, "UpdateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("Trims name before comparing", func(t *testing.T) {
		mockDao, _, service := setupTest()
		mockDao.On("SelectCustomerByID", ctx, int64(42)).Return(existingCustomer(), nil).Once()

		err := service.UpdateCustomer(ctx, 42, customer.UpdateRequest{Name: ptr("  Alex  ")})

		assert.ErrorIs(t, err, customer.ErrNoChanges)
	})

	t.Run("Error - Empty Request", func(t *testing.T) {
		mockDao, _, service := setupTest()
		mockDao.On("SelectCustomerByID", ctx, int64(42)).Return(existingCustomer(), nil).Once()

		err := service.UpdateCustomer(ctx, 42, customer.UpdateRequest{})

		assert.ErrorIs(t, err, customer.ErrNoChanges)
	})

	t.Run("Error - Not Found", func(t *testing.T) {
		mockDao, _, service := setupTest()
		mockDao.On("SelectCustomerByID", ctx, int64(42)).Return(nil, customer.ErrNotFound).Once()

		err := service.UpdateCustomer(ctx, 42, customer.UpdateRequest{Name: ptr("X")})

		assert.ErrorIs(t, err, customer.ErrNotFound)
	})
}
