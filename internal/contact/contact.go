// Package contact defines the contact record and its field validation rules.
package contact

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Contact is a single persisted contact record.
type Contact struct {
	ID    int64
	Name  string
	Email string
	Phone string
}

// ValidationError reports a field that failed its format rule.
type ValidationError struct {
	Field  string
	Reason string
}

// Error returns the field and reason in one line.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var (
	// ErrNoFields indicates an update supplied neither email nor phone.
	ErrNoFields = errors.New("contact: no fields to update")
	// ErrNoCriteria indicates a search supplied no criteria.
	ErrNoCriteria = errors.New("contact: no search criteria")
)

// emailPattern accepts local@domain.tld: a non-empty local part without
// whitespace or '@', one or more domain labels, and a final label of at
// least two letters.
var emailPattern = regexp.MustCompile(`^[^\s@]+@(?:[A-Za-z0-9-]+\.)+[A-Za-z]{2,}$`)

// phonePattern accepts an optional leading '+' followed by digits and
// the separators space, hyphen, dot, and parentheses.
var phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]+$`)

// phoneMinDigits is the minimum number of digit characters a phone
// number must contain. Separators do not count.
const phoneMinDigits = 7

// ValidateEmail reports whether value is a well-formed email address.
// It never rejects by raising; malformed input simply returns false.
func ValidateEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// ValidatePhone reports whether value is a well-formed phone number:
// an optional leading '+', digits, and common separators (spaces,
// hyphens, dots, parentheses), with at least 7 digits total.
func ValidatePhone(value string) bool {
	if !phonePattern.MatchString(value) {
		return false
	}
	digits := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= phoneMinDigits
}

// ValidateNew checks all fields required to admit a new contact.
// It returns the first failing field as a *ValidationError, or nil.
func ValidateNew(name, email, phone string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !ValidateEmail(email) {
		return &ValidationError{Field: "email", Reason: "must look like local@domain.tld"}
	}
	if !ValidatePhone(phone) {
		return &ValidationError{Field: "phone", Reason: "must contain at least 7 digits with only +, spaces, hyphens, dots, or parentheses"}
	}
	return nil
}
