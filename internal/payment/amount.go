package payment

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var amountPattern = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)?`)

// FormatAmount renders a minor-unit amount as a currency string.
// EUR gets its symbol; any other currency code is used as the symbol.
func FormatAmount(amount int64, currency string) string {
	symbol := currency
	if currency == "EUR" {
		symbol = "€"
	}
	return fmt.Sprintf("%s%d.%02d", symbol, amount/100, amount%100)
}

// ParseAmount converts a formatted amount back to minor units, stripping
// any currency symbol and rounding to the nearest cent. It fails when
// the input carries no numeric substring.
func ParseAmount(formatted string) (int64, error) {
	match := amountPattern.FindString(formatted)
	if match == "" {
		return 0, fmt.Errorf("no numeric amount in %q", formatted)
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse amount %q: %w", match, err)
	}
	return int64(math.Round(value * 100)), nil
}
