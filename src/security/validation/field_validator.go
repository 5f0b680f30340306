// backend/src/security/validation/field_validator.go
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var ErrValidationFailed = errors.New("validation failed")

const (
	DefaultMaxStringLength = 255
	MinPasswordLength      = 8
	MaxPasswordLength      = 72 // bcrypt ignores anything longer
	MaxCustomerIDLength    = 128
)

var (
	currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	countryCodeRegex  = regexp.MustCompile(`^[A-Z]{2}$`)
	identifierRegex   = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)
)

// FieldErrors collects one message per invalid field. Its Error wraps
// ErrValidationFailed so callers can test with errors.Is.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

func (fe FieldErrors) Unwrap() error { return ErrValidationFailed }

// Add records err under field when err is not nil.
func (fe FieldErrors) Add(field string, err error) {
	if err == nil {
		return
	}
	msg := strings.TrimPrefix(err.Error(), ErrValidationFailed.Error()+": ")
	fe[field] = msg
}

// Err returns nil when no field failed.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateRequiredText combines the not-empty and max-length checks.
func ValidateRequiredText(s string, maxLength int, fieldName string) error {
	if err := ValidateStringNotEmpty(s, fieldName); err != nil {
		return err
	}
	return ValidateStringMaxLength(s, maxLength, fieldName)
}

func ValidateEmail(s string) error {
	trimmed := strings.TrimSpace(s)
	if err := ValidateRequiredText(trimmed, DefaultMaxStringLength, "email"); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return fmt.Errorf("%w: email ('%s') is not a valid address", ErrValidationFailed, s)
	}
	return nil
}

func ValidatePassword(s string) error {
	n := utf8.RuneCountInString(s)
	if n < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidationFailed, MinPasswordLength)
	}
	if len(s) > MaxPasswordLength {
		return fmt.Errorf("%w: password exceeds maximum length of %d bytes", ErrValidationFailed, MaxPasswordLength)
	}
	return nil
}

// ValidateCurrencyCode checks for an ISO 4217 style code of 3 uppercase letters.
func ValidateCurrencyCode(s string) error {
	if !currencyCodeRegex.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("%w: currency ('%s') is not in the expected format (3 uppercase letters)", ErrValidationFailed, s)
	}
	return nil
}

// ValidateCountryCode checks for an ISO 3166 alpha-2 style code.
func ValidateCountryCode(s string) error {
	if !countryCodeRegex.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("%w: country ('%s') is not in the expected format (2 uppercase letters)", ErrValidationFailed, s)
	}
	return nil
}

// ValidateIntRange checks that v lies in [minVal, maxVal].
func ValidateIntRange(v, minVal, maxVal int, fieldName string) error {
	if v < minVal || v > maxVal {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrValidationFailed, fieldName, minVal, maxVal, v)
	}
	return nil
}

// ValidateIdentifier checks opaque external ids such as aggregator customer or bank ids.
func ValidateIdentifier(s string, maxLength int, fieldName string) error {
	trimmed := strings.TrimSpace(s)
	if err := ValidateRequiredText(trimmed, maxLength, fieldName); err != nil {
		return err
	}
	if !identifierRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: %s ('%s') may only contain letters, digits and _ . : -", ErrValidationFailed, fieldName, s)
	}
	return nil
}
