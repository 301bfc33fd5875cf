package content

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

const maxUsernameLength = 64

var (
	policy        = bluemonday.StrictPolicy()
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	validate      = newValidator()
)

// Sanitize strips all markup from message content before it is stored.
// Clients print content verbatim.
func Sanitize(input string) string {
	return strings.TrimSpace(policy.Sanitize(input))
}

// ValidateUsername checks if the handle contains only allowed characters
// (alphanumeric, dot, dash, underscore) and is not empty.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username cannot be empty")
	}
	if len(username) > maxUsernameLength {
		return errors.New("username is too long")
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username contains invalid characters (allowed: alphanumeric, dot, dash, underscore)")
	}
	return nil
}

// Validate checks request structs against their `validate` tags.
// The custom "handle" rule applies ValidateUsername.
func Validate(v any) error {
	return validate.Struct(v)
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return ValidateUsername(fl.Field().String()) == nil
	})
	return v
}
