package pg

import (
	"fmt"
	"strconv"
)

// minOrderIDDigits is the downstream simulator's wire-format constraint:
// order IDs are sent left-zero-padded to at least this many digits.
const minOrderIDDigits = 6

// PadOrderID left-zero-pads id to at least minOrderIDDigits digits.
func PadOrderID(id int64) string {
	s := strconv.FormatInt(id, 10)
	if len(s) >= minOrderIDDigits {
		return s
	}
	return fmt.Sprintf("%0*d", minOrderIDDigits, id)
}
