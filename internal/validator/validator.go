// Package validator provides struct validation for engine inputs, including
// the password acceptance policy applied at registration and password change.
package validator

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

var (
	lowerRegex = regexp.MustCompile(`[a-z]`)
	upperRegex = regexp.MustCompile(`[A-Z]`)
	digitRegex = regexp.MustCompile(`[0-9]`)
)

// Get returns the shared validator with all custom rules registered.
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("password_policy", validatePasswordPolicy)
	})
	return validate
}

// Struct validates the given struct against its `validate` tags.
func Struct(s interface{}) error {
	return Get().Struct(s)
}

// validatePasswordPolicy enforces the registration password rules:
// 8-20 characters with at least one lowercase letter, one uppercase
// letter and one digit.
func validatePasswordPolicy(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 || len(password) > 20 {
		return false
	}
	return lowerRegex.MatchString(password) &&
		upperRegex.MatchString(password) &&
		digitRegex.MatchString(password)
}
