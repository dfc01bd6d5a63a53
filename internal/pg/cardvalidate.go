package pg

import (
	"strings"

	"github.com/ecomcore/purchasing-core/internal/apperr"
)

// NormalizeCardNo strips whitespace and hyphens from a raw card number.
func NormalizeCardNo(raw string) string {
	r := strings.NewReplacer(" ", "", "-", "")
	return r.Replace(raw)
}

// ValidateCardNo normalizes cardNo and checks it is 13-19 digits with a
// valid Luhn checksum. Run before any outbound PG call so a malformed card
// never reaches the network.
func ValidateCardNo(raw string) (string, error) {
	digits := NormalizeCardNo(raw)
	if len(digits) < 13 || len(digits) > 19 {
		return "", apperr.BadRequestf("card number must be 13-19 digits, got %d", len(digits))
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return "", apperr.BadRequestf("card number must contain only digits")
		}
	}
	if !luhnValid(digits) {
		return "", apperr.BadRequestf("card number fails checksum")
	}
	return digits, nil
}

// luhnValid reports whether digits satisfies the Luhn checksum (mod 10 == 0).
func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
