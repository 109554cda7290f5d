package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"domestic mobile with spaces", "347 123 4567", "+393471234567"},
		{"domestic mobile with dashes", "347-000-1111", "+393470001111"},
		{"double zero prefix", "0039347 1234567", "+393471234567"},
		{"international plus", "+1 555 0100", "+15550100"},
		{"already canonical", "+393471234567", "+393471234567"},
		{"country code without plus", "393471234567", "+393471234567"},
		{"stray plus in the middle", "+39+3471234567", "+393471234567"},
		{"landline without prefix", "0712345", ""},
		{"ten digit landline", "0651234567", ""},
		{"plus with no digits", "+", ""},
		{"plus with leading zero", "+0 123", ""},
		{"plus too short", "+39 12", ""},
		{"double zero with no digits", "00", ""},
		{"double zero with leading zero", "000 123 4567", ""},
		{"letters only", "call me", ""},
		{"empty", "", ""},
		{"short mobile fragment", "347", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"347 123 4567",
		"0039347 1234567",
		"+1 555 0100",
		"393471234567",
		"+41 44 668 1800",
	}
	for _, raw := range inputs {
		first := Normalize(raw)
		if first == "" {
			continue
		}
		assert.Equal(t, first, Normalize(first), "normalize(normalize(%q))", raw)
	}
}

func TestNormalizeCustomCountryCode(t *testing.T) {
	n := Normalizer{CountryCode: "34"}

	// Mobile prefix rule still applies; the configured code is prepended.
	assert.Equal(t, "+343471234567", n.Normalize("3471234567"))
	// Bare country-code rule keys off the configured code.
	assert.Equal(t, "+34612345678", n.Normalize("34612345678"))
	assert.Equal(t, "", n.Normalize("39612345678"))
}

func TestIsNormalized(t *testing.T) {
	assert.True(t, IsNormalized("+393471234567"))
	assert.True(t, IsNormalized("+15550100"))
	assert.False(t, IsNormalized("393471234567"))
	assert.False(t, IsNormalized("+0393471234567"))
	assert.False(t, IsNormalized("+39"))
	assert.False(t, IsNormalized(""))
}
