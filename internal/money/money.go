// Package money converts between the API's decimal amounts and the
// int64 cent values stored everywhere else.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrInvalidAmount = errors.New("invalid money amount")

// maxCents keeps cent math far away from int64 overflow.
const maxCents = int64(1) << 50

// ParseCents parses a decimal string like "12.34" into cents.
// More than two fractional digits is rejected rather than rounded.
func ParseCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if d.Exponent() < -2 {
		return 0, fmt.Errorf("%w: %q has sub-cent precision", ErrInvalidAmount, s)
	}

	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	v := cents.IntPart()
	if v > maxCents || v < -maxCents {
		return 0, fmt.Errorf("%w: %q is too large", ErrInvalidAmount, s)
	}

	return v, nil
}

// CentsString renders cents as a plain decimal string, e.g. -1250 -> "-12.50".
func CentsString(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

var printer = message.NewPrinter(language.English)

// Format renders cents for human-facing messages with digit grouping,
// e.g. 123456789 -> "1,234,567.89".
func Format(cents int64) string {
	whole := cents / 100
	frac := cents % 100

	if frac < 0 {
		frac = -frac
	}

	if cents < 0 && whole == 0 {
		return printer.Sprintf("-%d.%02d", whole, frac)
	}

	return printer.Sprintf("%d.%02d", whole, frac)
}
