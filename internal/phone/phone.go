// Package phone canonicalises user-entered phone numbers into the
// country-prefixed digit strings used as identity keys.
package phone

import (
	"errors"
	"strings"
)

// MinDigits is the shortest canonical number accepted.
const MinDigits = 10

// ErrInvalidPhone is returned when a number cannot be canonicalised.
var ErrInvalidPhone = errors.New("invalid phone number")

// Normalize strips every non-digit from raw and applies the national rules:
// a 10 digit number with a single leading zero has the zero replaced by
// prefix (a double zero is an international dialling prefix and is kept), a
// 9 digit number gets prefix prepended, anything else passes through.
func Normalize(raw, prefix string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw) + len(prefix))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10 && digits[0] == '0' && digits[1] != '0':
		digits = prefix + digits[1:]
	case len(digits) == 9:
		digits = prefix + digits
	}

	if len(digits) < MinDigits {
		return "", ErrInvalidPhone
	}
	return digits, nil
}
