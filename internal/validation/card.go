package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type CardType string

const (
	CardVisa       CardType = "visa"
	CardMastercard CardType = "mastercard"
	CardAmex       CardType = "amex"
	CardDiscover   CardType = "discover"
	CardUnknown    CardType = "unknown"
)

// CardValidationResult aggregates the outcome of the card checks.
type CardValidationResult struct {
	Valid    bool
	CardType CardType
	Errors   []string
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateCardNumber checks the Luhn checksum of a card number. All
// non-digit characters are ignored; the remaining digit count must be
// between 13 and 19.
func ValidateCardNumber(number string) bool {
	digits := stripNonDigits(number)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

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

// DetectCardType classifies a card number by its IIN prefix. The
// classification is independent of Luhn validity.
func DetectCardType(number string) CardType {
	digits := stripNonDigits(number)
	if digits == "" {
		return CardUnknown
	}

	switch {
	case strings.HasPrefix(digits, "4"):
		return CardVisa
	case strings.HasPrefix(digits, "34") || strings.HasPrefix(digits, "37"):
		return CardAmex
	case strings.HasPrefix(digits, "6011") || strings.HasPrefix(digits, "622") || strings.HasPrefix(digits, "65"):
		return CardDiscover
	}

	if len(digits) >= 2 {
		if p, err := strconv.Atoi(digits[:2]); err == nil && p >= 51 && p <= 55 {
			return CardMastercard
		}
	}
	if len(digits) >= 4 {
		if p, err := strconv.Atoi(digits[:4]); err == nil && p >= 2221 && p <= 2720 {
			return CardMastercard
		}
	}
	if len(digits) >= 3 {
		if p, err := strconv.Atoi(digits[:3]); err == nil && p >= 644 && p <= 648 {
			return CardDiscover
		}
	}
	return CardUnknown
}

// ValidateExpiry checks an "MM/YY" or "MM/YYYY" expiry against the
// current date at month granularity.
func ValidateExpiry(expiry string) bool {
	return ValidateExpiryAt(expiry, time.Now())
}

// ValidateExpiryAt is ValidateExpiry with an explicit evaluation date.
func ValidateExpiryAt(expiry string, now time.Time) bool {
	parts := strings.Split(strings.TrimSpace(expiry), "/")
	if len(parts) != 2 {
		return false
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return false
	}

	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	if len(parts[1]) == 2 {
		year += 2000
	}

	if year < now.Year() {
		return false
	}
	if year == now.Year() && month < int(now.Month()) {
		return false
	}
	return true
}

// ValidateCVC checks the security code length: 4 digits for amex,
// 3 for every other network including unknown.
func ValidateCVC(cvc string, cardType CardType) bool {
	if cvc != stripNonDigits(cvc) {
		return false
	}
	if cardType == CardAmex {
		return len(cvc) == 4
	}
	return len(cvc) == 3
}

// ValidateCard runs the Luhn, expiry and CVC checks together. The CVC
// rule depends on the network detected from the number. All failing
// checks are reported; overall validity requires all three to pass.
func ValidateCard(number, expiry, cvc string) CardValidationResult {
	return validateCardAt(number, expiry, cvc, time.Now())
}

func validateCardAt(number, expiry, cvc string, now time.Time) CardValidationResult {
	result := CardValidationResult{CardType: DetectCardType(number)}

	if !ValidateCardNumber(number) {
		result.Errors = append(result.Errors, "Invalid card number")
	}
	if !ValidateExpiryAt(expiry, now) {
		result.Errors = append(result.Errors, "Card is expired or the expiry date is invalid")
	}
	if !ValidateCVC(cvc, result.CardType) {
		expected := 3
		if result.CardType == CardAmex {
			expected = 4
		}
		result.Errors = append(result.Errors, fmt.Sprintf("Security code must be %d digits", expected))
	}

	result.Valid = len(result.Errors) == 0
	return result
}
