package customer

import (
	"fmt"
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

const RoleUser = "ROLE_USER"

func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToUpper(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	default:
		return "", fmt.Errorf("unknown gender %q", s)
	}
}

// Customer is the registered account. Password always holds the encoded
// hash, never the raw value.
type Customer struct {
	ID        int64
	Name      string
	Email     string
	Password  string
	Age       int
	Gender    Gender
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewCustomer(name, email, encodedPassword string, age int, gender Gender) *Customer {
	now := time.Now()
	return &Customer{
		Name:      name,
		Email:     email,
		Password:  encodedPassword,
		Age:       age,
		Gender:    gender,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Username is the login name, which is the email address.
func (c *Customer) Username() string {
	return c.Email
}

func (c *Customer) Roles() []string {
	return []string{RoleUser}
}

type RegistrationRequest struct {
	Name     string
	Email    string
	Password string
	Age      int
	Gender   Gender
}

// UpdateRequest holds the optional fields of a partial update; nil means
// the field was not supplied.
type UpdateRequest struct {
	Name  *string
	Email *string
	Age   *int
}
