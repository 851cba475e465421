package waitlist

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestValidator_AcceptsWellFormedAddresses(t *testing.T) {
	v := NewValidator()

	valid := []string{
		"test@example.com",
		"a@b.co",
		"first.last+tag@sub.example.org",
		"  padded@example.com  ",
		strings.Repeat("a", 64) + "@" + strings.Repeat("b", 60) + ".com",
	}
	for _, email := range valid {
		t.Run(email, func(t *testing.T) {
			assert.NoError(t, v.ValidateEmail(email))
		})
	}
}

func TestValidator_Rejections(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		in      Input
		want    error
		message string
	}{
		{"missing", Input{}, ErrMissingEmail, "Email is required"},
		{"empty", Input{Email: ptr("")}, ErrEmptyEmail, "Please enter your email address"},
		{"blank", Input{Email: ptr("   ")}, ErrEmptyEmail, "Please enter your email address"},
		{"no at sign", Input{Email: ptr("invalid-email")}, ErrInvalidEmail, "Please enter a valid email address"},
		{"domain without dot", Input{Email: ptr("a@b")}, ErrInvalidEmail, "Please enter a valid email address"},
		{"empty local part", Input{Email: ptr("@example.com")}, ErrInvalidEmail, "Please enter a valid email address"},
		{"too long", Input{Email: ptr(strings.Repeat("a", 250) + "@example.com")}, ErrEmailLength, "Email must be between 3 and 254 characters"},
		{"too short", Input{Email: ptr("a@")}, ErrEmailLength, "Email must be between 3 and 254 characters"},
		{"numeric top-level domain", Input{Email: ptr("user@host.123")}, ErrInvalidEmail, "Please enter a valid email address"},
		{"underscore in domain", Input{Email: ptr("user@sub_domain.example.com")}, ErrInvalidEmail, "Please enter a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := v.Validate(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "expected %v, got %v", tt.want, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, "email", verr.Fields[0].Field)
			assert.Equal(t, tt.message, verr.Fields[0].Message)
		})
	}
}

func TestValidator_NormalizesDomainCase(t *testing.T) {
	v := NewValidator()

	email, name, err := v.Validate(Input{Email: ptr(" Someone@Example.COM "), Name: "  Ada  "})
	require.NoError(t, err)
	assert.Equal(t, "Someone@example.com", email)
	assert.Equal(t, "Ada", name)
}

func TestValidator_RejectsLongName(t *testing.T) {
	v := NewValidator()

	_, _, err := v.Validate(Input{Email: ptr("test@example.com"), Name: strings.Repeat("n", 101)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNameLength)
}

func TestValidator_ReportsEveryField(t *testing.T) {
	v := NewValidator()

	_, _, err := v.Validate(Input{Email: ptr("nope"), Name: strings.Repeat("n", 101)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.ErrorIs(t, err, ErrNameLength)
}
