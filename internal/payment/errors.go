package payment

import "fmt"

// ErrorKind is the closed taxonomy of payment failures surfaced to the UI.
type ErrorKind string

const (
	KindNetworkError      ErrorKind = "network_error"
	KindInvalidCard       ErrorKind = "invalid_card"
	KindCardDeclined      ErrorKind = "card_declined"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindExpiredCard       ErrorKind = "expired_card"
	KindInvalidSEPA       ErrorKind = "invalid_sepa"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindUnknown           ErrorKind = "unknown"
)

// PaymentError is the typed error surfaced for every failed attempt.
// Constructed once per failure and never mutated after construction.
type PaymentError struct {
	Kind    ErrorKind
	Message string
	Code    string
	Details map[string]interface{}
}

func (e *PaymentError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, message string) *PaymentError {
	return &PaymentError{Kind: kind, Message: message}
}

// User-facing messages are static; only unmapped backend codes fall back
// to the backend-supplied text.
const (
	msgNetwork           = "Network error. Please check your connection and try again."
	msgTimeout           = "The payment request timed out. Please try again."
	msgUnauthorized      = "Your session has expired. Please log in again."
	msgCardDeclined      = "Your card was declined."
	msgExpiredCard       = "Your card has expired."
	msgIncorrectCVC      = "Your card's security code is incorrect."
	msgInsufficientFunds = "Insufficient funds."
	msgInvalidCard       = "Your card details could not be verified."
	msgInvalidIBAN       = "The IBAN you entered is invalid."
	msgSEPANotSupported  = "SEPA payments are not supported for this account."
	msgInvalidSEPA       = "The bank transfer could not be processed."
	msgUnknown           = "Something went wrong. Please try again."
)
