package handler

import (
	"context"
	"customer-api/internal/api/handler/dto"
	"customer-api/internal/domain/auth"
	"customer-api/internal/pkg/apperrors"
	"fmt"
	"log/slog"
	"net/http"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

type AuthHandler struct {
	auth   Authenticator
	logger *slog.Logger
}

func NewAuthHandler(a Authenticator, l *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   a,
		logger: l.With("component", "AuthHandler"),
	}
}

// Login exchanges credentials for a JWT bearer token.
//
// @Summary Log in
// @Description Verifies the username (email) and password and returns a token valid for 15 days.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.AuthenticationRequest true "Credentials"
// @Success 200 {object} dto.AuthenticationResponse "Authenticated"
// @Header 200 {string} Authorization "JWT access token"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 401 {object} dto.ErrorResponse "Bad credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.AuthenticationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Authorization", result.Token)
	respondJSON(w, http.StatusOK, dto.AuthenticationResponse{
		Token:       result.Token,
		CustomerDTO: dto.NewCustomerDTO(result.Customer),
	})
}
