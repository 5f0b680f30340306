package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"email ok", ValidateEmail("owner@acme.io"), false},
		{"email with name", ValidateEmail("Owner <owner@acme.io>"), true},
		{"email empty", ValidateEmail("  "), true},
		{"password short", ValidatePassword("1234567"), true},
		{"password ok", ValidatePassword("12345678"), false},
		{"password too long", ValidatePassword(strings.Repeat("a", 73)), true},
		{"currency ok", ValidateCurrencyCode("GBP"), false},
		{"currency lower", ValidateCurrencyCode("gbp"), true},
		{"country ok", ValidateCountryCode("PT"), false},
		{"country long", ValidateCountryCode("PRT"), true},
		{"month low", ValidateIntRange(0, 1, 12, "fiscal_year_start_month"), true},
		{"month ok", ValidateIntRange(12, 1, 12, "fiscal_year_start_month"), false},
		{"identifier ok", ValidateIdentifier("cust_01:abc-9", MaxCustomerIDLength, "customer_id"), false},
		{"identifier slash", ValidateIdentifier("../etc", MaxCustomerIDLength, "customer_id"), true},
		{"text too long", ValidateRequiredText(strings.Repeat("é", 11), 10, "name"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr {
				assert.ErrorIs(t, tt.err, ErrValidationFailed)
			} else {
				assert.NoError(t, tt.err)
			}
		})
	}
}

func TestFieldErrors(t *testing.T) {
	fe := FieldErrors{}
	fe.Add("currency", nil)
	assert.NoError(t, fe.Err())

	fe.Add("currency", ValidateCurrencyCode("x"))
	fe.Add("country", ValidateCountryCode(""))
	err := fe.Err()
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Contains(t, err.Error(), "country: ")
	assert.NotContains(t, fe["currency"], ErrValidationFailed.Error())
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Acme Ltd", SanitizeText("  <b>Acme</b> Ltd\x00 "))
	assert.Equal(t, "", SanitizeText("<script>alert(1)</script>"))
	assert.Equal(t, "line1\nline2", StripUnprintable("line1\nline2\x07"))
}
