package customer

import (
	"context"
	"customer-api/internal/event"
	"customer-api/internal/infrastructure/monitoring"
	"customer-api/internal/pkg/apperrors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	inputValidationPassed = "Input validation passed"
	customerNotFound      = "Customer not found by dao"
)

// PasswordEncoder hashes raw passwords before they are stored.
type PasswordEncoder interface {
	Encode(raw string) (string, error)
	Matches(raw, encoded string) bool
}

type CustomerService interface {
	GetAllCustomers(ctx context.Context) ([]*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	AddCustomer(ctx context.Context, req RegistrationRequest) (*Customer, error)
	DeleteCustomerByID(ctx context.Context, customerID int64) error
	UpdateCustomer(ctx context.Context, customerID int64, req UpdateRequest) error
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	dao     Dao
	encoder PasswordEncoder
	pub     event.EventPublisher
	logger  *slog.Logger
}

func NewCustomerService(dao Dao, encoder PasswordEncoder, eventPublisher event.EventPublisher, logger *slog.Logger) CustomerService {
	if dao == nil {
		panic("customer dao cannot be nil")
	}
	if encoder == nil {
		panic("password encoder cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if eventPublisher == nil {
		logger.Warn("Warning: No event publisher provided to NewCustomerService, events will be dropped")
		eventPublisher = event.NoopPublisher{}
	}

	return &customerService{
		dao:     dao,
		encoder: encoder,
		pub:     eventPublisher,
		logger:  logger.With(slog.String("component", "customerService")),
	}
}

func NewCustomerEventPayload(cust *Customer) event.CustomerEventPayload {
	if cust == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		CustomerID: cust.ID,
		Name:       cust.Name,
		Email:      cust.Email,
		Age:        cust.Age,
		Gender:     string(cust.Gender),
		CreatedAt:  cust.CreatedAt,
		UpdatedAt:  cust.UpdatedAt,
	}
}

func (s *customerService) GetAllCustomers(ctx context.Context) ([]*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to list all customers")

	customers, err := s.dao.SelectAllCustomers(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Dao error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to get customer by ID")

	cust, err := s.dao.SelectCustomerByID(ctx, customerID)
	if err != nil {
		if IsNotFound(err) {
			logCtx.WarnContext(ctx, customerNotFound)
			return nil, notFound(customerID)
		}
		logCtx.ErrorContext(ctx, "Dao error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Successfully retrieved customer")
	return cust, nil
}

func (s *customerService) AddCustomer(ctx context.Context, req RegistrationRequest) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to register new customer")

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" {
		s.logger.WarnContext(ctx, "Validation failed: name is empty")
		return nil, apperrors.NewValidationError("name", "customer name cannot be empty")
	}
	if email == "" {
		s.logger.WarnContext(ctx, "Validation failed: email is empty")
		return nil, apperrors.NewValidationError("email", "customer email cannot be empty")
	}
	if req.Password == "" {
		s.logger.WarnContext(ctx, "Validation failed: password is empty")
		return nil, apperrors.NewValidationError("password", "customer password cannot be empty")
	}
	logCtx := s.logger.With(slog.String("email", email))
	logCtx.InfoContext(ctx, inputValidationPassed)

	exists, err := s.dao.ExistsCustomerWithEmail(ctx, email)
	if err != nil {
		logCtx.ErrorContext(ctx, "Dao error checking email", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		logCtx.WarnContext(ctx, "Business rule failed: email already taken")
		return nil, ErrDuplicateEmail
	}

	encoded, err := s.encoder.Encode(req.Password)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to encode password", slog.Any("error", err))
		return nil, fmt.Errorf("failed to encode password: %w", err)
	}

	cust := NewCustomer(name, email, encoded, req.Age, req.Gender)
	if err := s.dao.InsertCustomer(ctx, cust); err != nil {
		if IsDuplicateEmail(err) {
			logCtx.WarnContext(ctx, "Email taken concurrently during insert")
			return nil, ErrDuplicateEmail
		}
		logCtx.ErrorContext(ctx, "Dao failed to insert new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}
	logCtx = logCtx.With(slog.Int64("customerID", cust.ID))
	monitoring.RecordCustomerRegistered()

	registered := event.CustomerRegisteredEvent{
		Timestamp: time.Now(),
		Payload:   NewCustomerEventPayload(cust),
	}
	if pubErr := s.pub.PublishCustomerRegistered(ctx, registered); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer registered, but FAILED to publish registration event", slog.Any("error", pubErr))
	}

	logCtx.InfoContext(ctx, "Successfully registered new customer")
	return cust, nil
}

func (s *customerService) DeleteCustomerByID(ctx context.Context, customerID int64) error {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to delete customer")

	exists, err := s.dao.ExistsCustomerWithID(ctx, customerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Dao error checking customer existence", slog.Any("error", err))
		return fmt.Errorf("failed to check customer %d: %w", customerID, err)
	}
	if !exists {
		logCtx.WarnContext(ctx, customerNotFound)
		return notFound(customerID)
	}

	if err := s.dao.DeleteCustomerByID(ctx, customerID); err != nil {
		if IsNotFound(err) {
			logCtx.WarnContext(ctx, "Customer disappeared before delete completed")
			return notFound(customerID)
		}
		logCtx.ErrorContext(ctx, "Dao error deleting customer", slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}

	deleted := event.CustomerDeletedEvent{Timestamp: time.Now(), CustomerID: customerID}
	if pubErr := s.pub.PublishCustomerDeleted(ctx, deleted); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer deleted, but FAILED to publish deletion event", slog.Any("error", pubErr))
	}

	logCtx.InfoContext(ctx, "Successfully deleted customer")
	return nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, customerID int64, req UpdateRequest) error {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to update customer")

	cust, err := s.dao.SelectCustomerByID(ctx, customerID)
	if err != nil {
		if IsNotFound(err) {
			logCtx.WarnContext(ctx, customerNotFound)
			return notFound(customerID)
		}
		logCtx.ErrorContext(ctx, "Dao error finding customer for update", slog.Any("error", err))
		return fmt.Errorf("cannot find customer %d to update: %w", customerID, err)
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		logCtx.WarnContext(ctx, "Validation failed: name is blank")
		return apperrors.NewValidationError("name", "customer name cannot be empty")
	}

	changes := false

	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != cust.Name {
			cust.Name = name
			changes = true
		}
	}

	if req.Age != nil && *req.Age != cust.Age {
		cust.Age = *req.Age
		changes = true
	}

	if req.Email != nil && strings.TrimSpace(*req.Email) != cust.Email {
		email := strings.TrimSpace(*req.Email)
		exists, err := s.dao.ExistsCustomerWithEmail(ctx, email)
		if err != nil {
			logCtx.ErrorContext(ctx, "Dao error checking email", slog.Any("error", err))
			return fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			logCtx.WarnContext(ctx, "Business rule failed: email already taken")
			return ErrDuplicateEmail
		}
		cust.Email = email
		changes = true
	}

	if !changes {
		logCtx.WarnContext(ctx, "No data changes found, skipping save")
		return ErrNoChanges
	}

	cust.UpdatedAt = time.Now()
	if err := s.dao.UpdateCustomer(ctx, cust); err != nil {
		if IsNotFound(err) {
			logCtx.ErrorContext(ctx, "Customer disappeared before save completed")
			return notFound(customerID)
		}
		if IsDuplicateEmail(err) {
			return ErrDuplicateEmail
		}
		logCtx.ErrorContext(ctx, "Dao failed to save updated customer", slog.Any("error", err))
		return fmt.Errorf("failed to save customer %d: %w", customerID, err)
	}

	updated := event.CustomerUpdatedEvent{Timestamp: time.Now(), Payload: NewCustomerEventPayload(cust)}
	if pubErr := s.pub.PublishCustomerUpdated(ctx, updated); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer updated, but FAILED to publish update event", slog.Any("error", pubErr))
	}

	logCtx.InfoContext(ctx, "Successfully updated customer")
	return nil
}

func notFound(customerID int64) error {
	return fmt.Errorf("%w: %w", ErrNotFound, apperrors.NewNotFoundError("customer", customerID))
}
