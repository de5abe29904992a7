package middleware

import (
	"context"
	"customer-api/internal/config"
	"customer-api/internal/domain/customer"
	"log/slog"
	"net/http"
	"strings"
)

type principalKey struct{}

// Principal is the authenticated customer attached to a request.
type Principal struct {
	CustomerID int64
	Username   string
	Roles      []string
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

type TokenVerifier interface {
	Subject(token string) (string, error)
	IsTokenValid(token, username string) bool
}

// PrincipalLoader resolves a token subject to a stored user. customer.Dao satisfies it.
type PrincipalLoader interface {
	SelectUserByEmail(ctx context.Context, email string) (*customer.Customer, error)
}

func AuthMiddleware(cfg config.AuthConfig, tokens TokenVerifier, users PrincipalLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	logger = logger.With("component", "AuthMiddleware")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := authenticate(r, tokens, users, logger)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":{"message":"Unauthorized"}}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func authenticate(r *http.Request, tokens TokenVerifier, users PrincipalLoader, logger *slog.Logger) (Principal, bool) {
	ctx := r.Context()
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		logger.WarnContext(ctx, "Missing Authorization header")
		return Principal{}, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		logger.WarnContext(ctx, "Invalid Authorization header format")
		return Principal{}, false
	}
	tokenString := strings.TrimSpace(parts[1])

	subject, err := tokens.Subject(tokenString)
	if err != nil || subject == "" {
		logger.WarnContext(ctx, "Invalid token", slog.Any("error", err))
		return Principal{}, false
	}

	user, err := users.SelectUserByEmail(ctx, subject)
	if err != nil {
		if customer.IsNotFound(err) {
			logger.WarnContext(ctx, "Token subject does not match a customer", slog.String("subject", subject))
		} else {
			logger.ErrorContext(ctx, "Failed to load principal", slog.Any("error", err))
		}
		return Principal{}, false
	}

	if !tokens.IsTokenValid(tokenString, user.Username()) {
		logger.WarnContext(ctx, "Token rejected for principal", slog.String("subject", subject))
		return Principal{}, false
	}

	logger.DebugContext(ctx, "Authenticated request", slog.String("subject", subject))
	return Principal{
		CustomerID: user.ID,
		Username:   user.Username(),
		Roles:      user.Roles(),
	}, true
}
