package dto

import (
	"customer-api/internal/domain/customer"
	"customer-api/internal/pkg/apperrors"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() CustomerRegistrationRequest {
	return CustomerRegistrationRequest{
		Name:     "Alex",
		Email:    "alex@gmail.com",
		Password: "password",
		Age:      21,
		Gender:   "male",
	}
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var vErr *apperrors.ValidationError
	require.True(t, errors.As(err, &vErr), "expected a validation error, got %v", err)
	return vErr.Field
}

func TestCustomerRegistrationRequestValidate(t *testing.T) {
	t.Run("accepts a complete request", func(t *testing.T) {
		req := validRegistration()
		assert.NoError(t, req.Validate())
	})

	tests := []struct {
		name   string
		mutate func(r *CustomerRegistrationRequest)
		field  string
	}{
		{"missing name", func(r *CustomerRegistrationRequest) { r.Name = "" }, "name"},
		{"missing email", func(r *CustomerRegistrationRequest) { r.Email = "" }, "email"},
		{"malformed email", func(r *CustomerRegistrationRequest) { r.Email = "alex" }, "email"},
		{"blank name", func(r *CustomerRegistrationRequest) { r.Name = "   " }, "name"},
		{"missing password", func(r *CustomerRegistrationRequest) { r.Password = "" }, "password"},
		{"password over 72 bytes", func(r *CustomerRegistrationRequest) { r.Password = strings.Repeat("é", 40) }, "password"},
		{"negative age", func(r *CustomerRegistrationRequest) { r.Age = -1 }, "age"},
		{"unknown gender", func(r *CustomerRegistrationRequest) { r.Gender = "other" }, "gender"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRegistration()
			tc.mutate(&req)

			err := req.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, tc.field, fieldOf(t, err))
		})
	}
}

func TestCustomerRegistrationRequestToDomain(t *testing.T) {
	req := validRegistration()
	req.Name = "  Alex  "
	require.NoError(t, req.Validate())

	got := req.ToDomain()
	assert.Equal(t, "Alex", got.Name)
	assert.Equal(t, customer.GenderMale, got.Gender)
	assert.Equal(t, "password", got.Password)
}

func TestCustomerUpdateRequest(t *testing.T) {
	t.Run("decodes only supplied fields", func(t *testing.T) {
		var req CustomerUpdateRequest
		require.NoError(t, json.Unmarshal([]byte(`{"age":30}`), &req))
		require.NoError(t, req.Validate())

		upd := req.ToDomain()
		assert.Nil(t, upd.Name)
		assert.Nil(t, upd.Email)
		require.NotNil(t, upd.Age)
		assert.Equal(t, 30, *upd.Age)
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		var req CustomerUpdateRequest
		require.NoError(t, json.Unmarshal([]byte(`{"email":"nope"}`), &req))
		assert.Equal(t, "email", fieldOf(t, req.Validate()))
	})

	t.Run("rejects a blank name", func(t *testing.T) {
		var req CustomerUpdateRequest
		require.NoError(t, json.Unmarshal([]byte(`{"name":"   "}`), &req))
		assert.Equal(t, "name", fieldOf(t, req.Validate()))
	})

	t.Run("trims supplied strings", func(t *testing.T) {
		var req CustomerUpdateRequest
		require.NoError(t, json.Unmarshal([]byte(`{"name":" Alexander ","email":"alex@gmail.com"}`), &req))
		require.NoError(t, req.Validate())

		upd := req.ToDomain()
		assert.Equal(t, "Alexander", *upd.Name)
		assert.Equal(t, "alex@gmail.com", *upd.Email)
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		var req CustomerUpdateRequest
		require.NoError(t, json.Unmarshal([]byte(`{"name":""}`), &req))
		assert.Equal(t, "name", fieldOf(t, req.Validate()))
	})
}

func TestNewCustomerDTO(t *testing.T) {
	c := &customer.Customer{ID: 3, Name: "Jamila", Email: "jamila@gmail.com", Password: "secret-hash", Age: 19, Gender: customer.GenderFemale}

	got := NewCustomerDTO(c)
	assert.Equal(t, CustomerDTO{
		ID:       3,
		Name:     "Jamila",
		Email:    "jamila@gmail.com",
		Gender:   "FEMALE",
		Age:      19,
		Roles:    []string{"ROLE_USER"},
		Username: "jamila@gmail.com",
	}, got)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-hash")

	assert.Equal(t, CustomerDTO{}, NewCustomerDTO(nil))
	assert.Len(t, NewCustomerDTOs([]*customer.Customer{c, c}), 2)
}

func TestAuthenticationRequestValidate(t *testing.T) {
	req := AuthenticationRequest{Username: "alex@gmail.com"}
	assert.Equal(t, "password", fieldOf(t, req.Validate()))

	req.Password = "password"
	assert.NoError(t, req.Validate())
}
