package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var ibanPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]+$`)

// ibanLengths maps ISO country codes to the expected total IBAN length.
var ibanLengths = map[string]int{
	"AD": 24, "AE": 23, "AL": 28, "AT": 20, "AZ": 28,
	"BA": 20, "BE": 16, "BG": 22, "BH": 22, "BR": 29,
	"CH": 21, "CR": 22, "CY": 28, "CZ": 24, "DE": 22,
	"DK": 18, "DO": 28, "EE": 20, "ES": 24, "FI": 18,
	"FO": 18, "FR": 27, "GB": 22, "GE": 22, "GI": 23,
	"GL": 18, "GR": 27, "GT": 28, "HR": 21, "HU": 28,
	"IE": 22, "IL": 23, "IS": 26, "IT": 27, "JO": 30,
	"KW": 30, "KZ": 20, "LB": 28, "LI": 21, "LT": 20,
	"LU": 20, "LV": 21, "MC": 27, "MD": 24, "ME": 22,
	"MK": 19, "MR": 27, "MT": 31, "MU": 30, "NL": 18,
	"NO": 15, "PK": 24, "PL": 28, "PS": 29, "PT": 25,
	"QA": 29, "RO": 24, "RS": 22, "SA": 24, "SE": 24,
	"SI": 19, "SK": 24, "SM": 27, "TN": 24, "TR": 26,
	"VG": 24,
}

// sepaCountries is the set of SEPA-zone country codes.
var sepaCountries = map[string]bool{
	"AT": true, "BE": true, "BG": true, "CH": true, "CY": true,
	"CZ": true, "DE": true, "DK": true, "EE": true, "ES": true,
	"FI": true, "FR": true, "GB": true, "GR": true, "HR": true,
	"HU": true, "IE": true, "IS": true, "IT": true, "LI": true,
	"LT": true, "LU": true, "LV": true, "MC": true, "MT": true,
	"NL": true, "NO": true, "PL": true, "PT": true, "RO": true,
	"SE": true, "SI": true, "SK": true, "SM": true,
}

// IBANValidationResult aggregates the IBAN checks. Errors accumulate:
// a wrong length and a failed checksum are reported together.
type IBANValidationResult struct {
	Valid         bool
	CountryCode   string
	IsSEPACountry bool
	Errors        []string
}

// SEPAValidationResult is the combined IBAN + account holder outcome.
type SEPAValidationResult struct {
	Valid         bool
	CountryCode   string
	IsSEPACountry bool
	Errors        []string
}

func normalizeIBAN(iban string) string {
	cleaned := strings.ToUpper(iban)
	return strings.Join(strings.Fields(cleaned), "")
}

// ValidateIBAN checks the shape, per-country length and mod-97 checksum
// of an IBAN. Whitespace is stripped and letters uppercased first.
func ValidateIBAN(iban string) IBANValidationResult {
	cleaned := normalizeIBAN(iban)
	result := IBANValidationResult{}

	if !ibanPattern.MatchString(cleaned) {
		result.Errors = append(result.Errors, "IBAN format is invalid")
		return result
	}

	result.CountryCode = cleaned[:2]
	result.IsSEPACountry = sepaCountries[result.CountryCode]

	if expected, known := ibanLengths[result.CountryCode]; known && len(cleaned) != expected {
		result.Errors = append(result.Errors,
			fmt.Sprintf("IBAN for %s must be %d characters, got %d", result.CountryCode, expected, len(cleaned)))
	}

	if !validIBANChecksum(cleaned) {
		result.Errors = append(result.Errors, "IBAN checksum is invalid")
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// validIBANChecksum implements ISO 7064 MOD 97-10. The rearranged IBAN
// expands into a numeral longer than any native integer, so the
// remainder is reduced blockwise over chunks of up to 9 digits.
func validIBANChecksum(cleaned string) bool {
	rearranged := cleaned[4:] + cleaned[:4]

	var numeric strings.Builder
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			numeric.WriteString(strconv.Itoa(int(r) - 55))
		} else {
			numeric.WriteRune(r)
		}
	}

	digits := numeric.String()
	remainder := 0
	for len(digits) > 0 {
		chunkLen := 9 - numDigits(remainder)
		if chunkLen > len(digits) {
			chunkLen = len(digits)
		}
		chunk := strconv.Itoa(remainder) + digits[:chunkLen]
		n, err := strconv.Atoi(chunk)
		if err != nil {
			return false
		}
		remainder = n % 97
		digits = digits[chunkLen:]
	}
	return remainder == 1
}

func numDigits(n int) int {
	return len(strconv.Itoa(n))
}

// ValidateAccountHolderName checks the SEPA account holder name:
// 1 to 70 characters after trimming, restricted to letters, digits,
// whitespace and - ' . & ( ).
func ValidateAccountHolderName(name string) bool {
	trimmed := strings.TrimSpace(name)
	length := len([]rune(trimmed))
	if length < 1 || length > 70 {
		return false
	}
	for _, r := range trimmed {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
		case r == '-' || r == '\'' || r == '.' || r == '&' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return true
}

// ValidateSEPA runs the IBAN and account holder checks independently
// and aggregates both error lists.
func ValidateSEPA(iban, accountHolder string) SEPAValidationResult {
	ibanResult := ValidateIBAN(iban)

	result := SEPAValidationResult{
		CountryCode:   ibanResult.CountryCode,
		IsSEPACountry: ibanResult.IsSEPACountry,
		Errors:        append([]string{}, ibanResult.Errors...),
	}
	if !ValidateAccountHolderName(accountHolder) {
		result.Errors = append(result.Errors, "Account holder name is invalid")
	}

	result.Valid = len(result.Errors) == 0
	return result
}
