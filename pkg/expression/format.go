package expression

import (
	"math"
	"strconv"
)

// Display formats understood by Format.
const (
	FormatNumber     = "number"
	FormatCurrency   = "currency"
	FormatPercentage = "percentage"
)

// Format renders value with a fixed number of decimal places. Currency values
// get a "$" prefix and percentages a "%" suffix. Non-finite values render as
// zero.
func Format(value float64, format string, decimalPlaces int) string {
	if decimalPlaces < 0 {
		decimalPlaces = 2
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	fixed := strconv.FormatFloat(value, 'f', decimalPlaces, 64)
	switch format {
	case FormatCurrency:
		return "$" + fixed
	case FormatPercentage:
		return fixed + "%"
	default:
		return fixed
	}
}
