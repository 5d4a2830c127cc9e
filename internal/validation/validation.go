package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxNameLength = 100

	// bcrypt hashes at most 72 bytes and rejects longer input
	maxPasswordBytes = 72
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks that a password was given and fits bcrypt.
// Strength rules are left to the client.
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) > maxPasswordBytes {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes)}
	}
	return nil
}

// ValidateName checks an optional first or last name
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: field, Message: "name must not be blank"}
	}
	if len(name) > maxNameLength {
		return ValidationError{Field: field, Message: fmt.Sprintf("name must be at most %d characters", maxNameLength)}
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return ValidationError{Field: field, Message: "name contains control characters"}
	}
	return nil
}
