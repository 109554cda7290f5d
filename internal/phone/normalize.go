// Package phone canonicalizes raw contact numbers into E.164 dialable form.
//
// The rules are deliberately conservative: a bare domestic number without a
// recognizable mobile prefix is rejected rather than guessed, because a wrong
// guess dials a stranger.
package phone

import (
	"regexp"
	"strings"
)

// e164Pattern matches a canonical dialable number: leading +, country code,
// 7 to 15 digits total.
var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// Normalizer applies country-specific normalization rules.
type Normalizer struct {
	// CountryCode is the default country calling code without the +,
	// applied to bare domestic mobile numbers.
	CountryCode string
}

// DefaultNormalizer handles Italian numbers (+39, mobile prefix 3).
var DefaultNormalizer = Normalizer{CountryCode: "39"}

// Normalize canonicalizes raw using the default country code.
// It returns the empty string when the input is not a dialable number.
func Normalize(raw string) string {
	return DefaultNormalizer.Normalize(raw)
}

// IsNormalized reports whether value is already in canonical E.164 form.
func IsNormalized(value string) bool {
	return e164Pattern.MatchString(value)
}

// Normalize canonicalizes a raw contact-number string. First match wins:
//
//  1. already international ("+...")  -> keep as-is minus separators
//  2. international with 00 prefix    -> swap 00 for +
//  3. bare domestic mobile            -> prefix the default country code
//  4. country code without the +      -> prefix +
//
// Anything else returns "". Every candidate result is gated against the
// canonical shape, so a malformed international input ("+0 123") rejects
// instead of passing through. Normalize is idempotent over its own output.
func (n Normalizer) Normalize(raw string) string {
	cleaned := keepDigitsAndPlus(raw)
	if cleaned == "" {
		return ""
	}

	if strings.HasPrefix(cleaned, "+") {
		return canonical("+" + digitsOnly(cleaned))
	}

	if strings.HasPrefix(cleaned, "00") {
		return canonical("+" + digitsOnly(cleaned[2:]))
	}

	just := digitsOnly(cleaned)
	cc := n.CountryCode
	if cc == "" {
		cc = DefaultNormalizer.CountryCode
	}

	// Domestic mobile numbers start with 3 and run 9-10 digits.
	if strings.HasPrefix(just, "3") && len(just) >= 9 && len(just) <= 10 {
		return canonical("+" + cc + just)
	}

	// Country code typed without the leading +.
	if strings.HasPrefix(just, cc) && len(just) >= 10 && len(just) <= 12 {
		return canonical("+" + just)
	}

	return ""
}

// canonical returns value only when it already has the dialable E.164 shape.
func canonical(value string) string {
	if e164Pattern.MatchString(value) {
		return value
	}
	return ""
}

func keepDigitsAndPlus(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func digitsOnly(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
