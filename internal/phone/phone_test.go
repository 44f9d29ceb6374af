package phone

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"0503088600", "233503088600"},
		{"503088600", "233503088600"},
		{"233503088600", "233503088600"},
		{"+233 50 308 8600", "233503088600"},
		{"050-308-8600", "233503088600"},
		{"(020) 123 4567", "233201234567"},
		{"12345678901", "12345678901"},
		// a double leading zero is an international dialling prefix, not a national number
		{"0050308860", "0050308860"},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.raw, "233")
		if err != nil {
			t.Fatalf("normalize %q: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("normalize %q: expected %s, got %s", tc.raw, tc.want, got)
		}
	}
}

func TestNormalizeLeadingZeroAlwaysGetsPrefix(t *testing.T) {
	for _, raw := range []string{"0241111111", "0209999999", "0551234567"} {
		got, err := Normalize(raw, "233")
		if err != nil {
			t.Fatalf("normalize %q: %v", raw, err)
		}
		if got != "233"+raw[1:] {
			t.Fatalf("normalize %q: got %s", raw, got)
		}
	}
}

func TestNormalizeRejectsShortNumbers(t *testing.T) {
	for _, raw := range []string{"", "12345", "abc", "0123 45"} {
		if _, err := Normalize(raw, "233"); !errors.Is(err, ErrInvalidPhone) {
			t.Fatalf("normalize %q: expected ErrInvalidPhone, got %v", raw, err)
		}
	}
}
