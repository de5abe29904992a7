package auth

import (
	"context"
	"customer-api/internal/domain/customer"
	"customer-api/internal/infrastructure/monitoring"
	"customer-api/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var ErrBadCredentials = apperrors.NewUnauthorizedError("bad credentials")

// UserFinder loads the principal behind a username. customer.Dao satisfies it.
type UserFinder interface {
	SelectUserByEmail(ctx context.Context, email string) (*customer.Customer, error)
}

type TokenIssuer interface {
	IssueToken(subject string, scopes ...string) (string, error)
}

type LoginResult struct {
	Token    string
	Customer *customer.Customer
}

type Service struct {
	users   UserFinder
	encoder customer.PasswordEncoder
	tokens  TokenIssuer
	logger  *slog.Logger
}

func NewService(users UserFinder, encoder customer.PasswordEncoder, tokens TokenIssuer, logger *slog.Logger) *Service {
	return &Service{
		users:   users,
		encoder: encoder,
		tokens:  tokens,
		logger:  logger.With("component", "AuthService"),
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		monitoring.RecordLoginAttempt(monitoring.LoginBadCredentials)
		return nil, ErrBadCredentials
	}
	logCtx := s.logger.With(slog.String("email", email))

	user, err := s.users.SelectUserByEmail(ctx, email)
	if err != nil {
		if customer.IsNotFound(err) {
			logCtx.WarnContext(ctx, "Login failed: unknown user")
			monitoring.RecordLoginAttempt(monitoring.LoginBadCredentials)
			return nil, ErrBadCredentials
		}
		logCtx.ErrorContext(ctx, "Dao error loading user", slog.Any("error", err))
		monitoring.RecordLoginAttempt(monitoring.LoginError)
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !s.encoder.Matches(password, user.Password) {
		logCtx.WarnContext(ctx, "Login failed: password mismatch")
		monitoring.RecordLoginAttempt(monitoring.LoginBadCredentials)
		return nil, ErrBadCredentials
	}

	token, err := s.tokens.IssueToken(user.Username(), user.Roles()...)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to issue token", slog.Any("error", err))
		monitoring.RecordLoginAttempt(monitoring.LoginError)
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	monitoring.RecordLoginAttempt(monitoring.LoginSuccess)
	logCtx.InfoContext(ctx, "Login succeeded", slog.Int64("customerID", user.ID))
	return &LoginResult{Token: token, Customer: user}, nil
}

func IsBadCredentials(err error) bool {
	return errors.Is(err, ErrBadCredentials)
}
