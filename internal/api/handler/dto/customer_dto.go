package dto

import (
	"customer-api/internal/domain/customer"
	"fmt"
	"strings"
)

// bcrypt only hashes the first 72 bytes of a password.
const maxPasswordBytes = 72

type CustomerRegistrationRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=1,max=72"`
	Age      int    `json:"age" validate:"gte=0,lte=150"`
	Gender   string `json:"gender" validate:"required"`
}

func (r *CustomerRegistrationRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if strings.TrimSpace(r.Name) == "" {
		return fieldError("name", "must not be blank")
	}
	if len(r.Password) > maxPasswordBytes {
		return fieldError("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	if _, err := customer.ParseGender(r.Gender); err != nil {
		return fieldError("gender", "must be one of MALE, FEMALE")
	}
	return nil
}

// ToDomain must only be called after Validate succeeded.
func (r *CustomerRegistrationRequest) ToDomain() customer.RegistrationRequest {
	gender, _ := customer.ParseGender(r.Gender)
	return customer.RegistrationRequest{
		Name:     strings.TrimSpace(r.Name),
		Email:    strings.TrimSpace(r.Email),
		Password: r.Password,
		Age:      r.Age,
		Gender:   gender,
	}
}

// CustomerUpdateRequest fields are optional; absent fields are left untouched.
type CustomerUpdateRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitnil,min=1,max=255"`
	Email *string `json:"email,omitempty" validate:"omitnil,email,max=255"`
	Age   *int    `json:"age,omitempty" validate:"omitnil,gte=0,lte=150"`
}

func (r *CustomerUpdateRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return fieldError("name", "must not be blank")
	}
	return nil
}

func (r *CustomerUpdateRequest) ToDomain() customer.UpdateRequest {
	return customer.UpdateRequest{
		Name:  trimmed(r.Name),
		Email: trimmed(r.Email),
		Age:   r.Age,
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// CustomerDTO is the public view of a customer. The password hash is never exposed.
type CustomerDTO struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Gender   string   `json:"gender"`
	Age      int      `json:"age"`
	Roles    []string `json:"roles"`
	Username string   `json:"username"`
}

func NewCustomerDTO(cust *customer.Customer) CustomerDTO {
	if cust == nil {
		return CustomerDTO{}
	}
	return CustomerDTO{
		ID:       cust.ID,
		Name:     cust.Name,
		Email:    cust.Email,
		Gender:   string(cust.Gender),
		Age:      cust.Age,
		Roles:    cust.Roles(),
		Username: cust.Username(),
	}
}

func NewCustomerDTOs(customers []*customer.Customer) []CustomerDTO {
	out := make([]CustomerDTO, 0, len(customers))
	for _, c := range customers {
		out = append(out, NewCustomerDTO(c))
	}
	return out
}
