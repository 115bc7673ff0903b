// Package money converts integer minor-unit amounts for display.
package money

import "github.com/shopspring/decimal"

// ToMajor converts an amount in minor units (paise, cents) to major units.
func ToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// Format renders minor units as "<currency> 1234.50".
func Format(minor int64, currency string) string {
	amount := ToMajor(minor).StringFixed(2)
	if currency == "" {
		return amount
	}
	return currency + " " + amount
}

// FromMajor converts a major-unit decimal string such as "1499.99" to minor
// units, rounding half away from zero.
func FromMajor(major string) (int64, error) {
	d, err := decimal.NewFromString(major)
	if err != nil {
		return 0, err
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
