package auth

import (
	chisperrors "chispa/errors"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RegisterInput is the payload of an account creation request.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ValidateRegister checks shape through the struct tags, then applies the
// complexity rule the tags cannot express.
func ValidateRegister(input RegisterInput) error {
	if err := validate.Struct(input); err != nil {
		return err
	}
	if !isComplexEnough(input.Password) {
		return chisperrors.ErrInvalidPassword
	}
	return nil
}

// isComplexEnough requires at least one lowercase, one uppercase and one
// digit. Length is already bounded by the struct tags.
func isComplexEnough(password string) bool {
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}
