package seed

import (
	"context"
	"customer-api/internal/domain/customer"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

const (
	minAge      = 16
	maxAge      = 98
	emailDomain = "gmail.com"
	maxAttempts = 5
)

// Seeder inserts randomly generated customers. Their passwords are random and unknown.
type Seeder struct {
	dao     customer.Dao
	encoder customer.PasswordEncoder
	faker   *gofakeit.Faker
	logger  *slog.Logger
}

func NewSeeder(dao customer.Dao, encoder customer.PasswordEncoder, faker *gofakeit.Faker, logger *slog.Logger) *Seeder {
	if faker == nil {
		faker = gofakeit.New(0)
	}
	return &Seeder{
		dao:     dao,
		encoder: encoder,
		faker:   faker,
		logger:  logger.With("component", "Seeder"),
	}
}

// Seed inserts up to count customers and returns how many were stored.
// A generated email that is already taken is regenerated a few times before giving up on that slot.
func (s *Seeder) Seed(ctx context.Context, count int) (int, error) {
	inserted := 0
	for i := 0; i < count; i++ {
		ok, err := s.seedOne(ctx)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	s.logger.InfoContext(ctx, "Seeding finished", slog.Int("requested", count), slog.Int("inserted", inserted))
	return inserted, nil
}

func (s *Seeder) seedOne(ctx context.Context) (bool, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		cust := s.fake()

		exists, err := s.dao.ExistsCustomerWithEmail(ctx, cust.Email)
		if err != nil {
			return false, fmt.Errorf("failed to check seed email: %w", err)
		}
		if exists {
			s.logger.DebugContext(ctx, "Generated email already taken", slog.String("email", cust.Email), slog.Int("attempt", attempt))
			continue
		}

		encoded, err := s.encoder.Encode(uuid.NewString())
		if err != nil {
			return false, fmt.Errorf("failed to encode seed password: %w", err)
		}
		cust.Password = encoded

		if err := s.dao.InsertCustomer(ctx, cust); err != nil {
			if customer.IsDuplicateEmail(err) {
				continue
			}
			return false, fmt.Errorf("failed to insert seed customer: %w", err)
		}
		s.logger.InfoContext(ctx, "Seeded customer", slog.Int64("customerID", cust.ID), slog.String("email", cust.Email))
		return true, nil
	}

	s.logger.WarnContext(ctx, "Giving up on seed customer after repeated email collisions", slog.Int("attempts", maxAttempts))
	return false, nil
}

func (s *Seeder) fake() *customer.Customer {
	firstName := s.faker.FirstName()
	lastName := s.faker.LastName()
	age := s.faker.Number(minAge, maxAge)

	gender := customer.GenderFemale
	if age%2 == 0 {
		gender = customer.GenderMale
	}

	return customer.NewCustomer(
		firstName+" "+lastName,
		emailLocalPart(firstName)+"."+emailLocalPart(lastName)+"@"+emailDomain,
		"",
		age,
		gender,
	)
}

func emailLocalPart(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
