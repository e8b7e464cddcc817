package payment

import (
	"fmt"
	"math"

	"golang.org/x/text/currency"
)

// ToMinorUnits converts a major-unit decimal amount into the integer
// minor-unit representation the payment provider expects. Zero-decimal
// currencies keep their major-unit value; everything else is multiplied by
// 100 and rounded half-up.
func ToMinorUnits(amount float64, code string) (int64, error) {
	zeroDecimal, err := isZeroDecimalCurrency(code)
	if err != nil {
		return 0, err
	}
	if zeroDecimal {
		return int64(math.Round(amount)), nil
	}
	return int64(math.Round(amount * 100)), nil
}

// FromMinorUnits converts a provider minor-unit amount back into a
// major-unit decimal. Inverse of ToMinorUnits within rounding tolerance.
func FromMinorUnits(amount int64, code string) (float64, error) {
	zeroDecimal, err := isZeroDecimalCurrency(code)
	if err != nil {
		return 0, err
	}
	if zeroDecimal {
		return float64(amount), nil
	}
	return float64(amount) / 100, nil
}

// isZeroDecimalCurrency reports whether the currency never renders a
// fractional part, based on the currency's standard rounding scale.
func isZeroDecimalCurrency(code string) (bool, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return false, fmt.Errorf("invalid currency code %q: %w", code, err)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale == 0, nil
}
