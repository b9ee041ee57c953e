package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// SignupInput carries registration credentials.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks email grammar and password length before any store access.
func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 100)),
	)
}

// SigninInput carries login credentials.
type SigninInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate mirrors the signup rules so malformed input fails before lookup.
func (in SigninInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 100)),
	)
}
