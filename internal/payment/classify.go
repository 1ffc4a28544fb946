package payment

import (
	"context"
	"errors"
	"net"
	"net/url"

	"gymgo/internal/api"
	dto "gymgo/internal/entity"
)

// ErrTimeout marks a payment attempt whose network call lost the race
// against the configured timeout.
var ErrTimeout = errors.New("payment request timed out")

// Classify maps a raw failure to the closed taxonomy. The order is
// significant: connectivity and timeout short-circuit everything,
// unauthorized passes through before any method-specific mapping.
func Classify(method dto.PaymentMethod, err error) *PaymentError {
	if err == nil {
		return newError(KindUnknown, msgUnknown)
	}

	var urlErr *url.Error
	var opErr *net.OpError
	if errors.As(err, &urlErr) || errors.As(err, &opErr) {
		return newError(KindNetworkError, msgNetwork)
	}

	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindNetworkError, msgTimeout)
	}

	// Already-typed errors from a lower layer pass through unchanged,
	// unauthorized ones in particular.
	var perr *PaymentError
	if errors.As(err, &perr) {
		return perr
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		e := newError(KindUnauthorized, msgUnauthorized)
		e.Code = apiErr.Code
		return e
	}

	if errors.As(err, &apiErr) {
		if method.IsCardLike() {
			return classifyCardCode(apiErr)
		}
		if method == dto.MethodSEPA {
			return classifySEPACode(apiErr)
		}
	}

	if msg := err.Error(); msg != "" {
		return newError(KindUnknown, msg)
	}
	return newError(KindUnknown, msgUnknown)
}

func classifyCardCode(apiErr *api.Error) *PaymentError {
	var e *PaymentError
	switch apiErr.Code {
	case "card_declined":
		e = newError(KindCardDeclined, msgCardDeclined)
	case "expired_card":
		e = newError(KindExpiredCard, msgExpiredCard)
	case "incorrect_cvc", "invalid_cvc":
		e = newError(KindInvalidCard, msgIncorrectCVC)
	case "insufficient_funds":
		e = newError(KindInsufficientFunds, msgInsufficientFunds)
	default:
		message := apiErr.BackendMessage
		if message == "" {
			message = msgInvalidCard
		}
		e = newError(KindInvalidCard, message)
	}
	e.Code = apiErr.Code
	return e
}

func classifySEPACode(apiErr *api.Error) *PaymentError {
	var e *PaymentError
	switch apiErr.Code {
	case "invalid_iban":
		e = newError(KindInvalidSEPA, msgInvalidIBAN)
	case "sepa_not_supported":
		e = newError(KindInvalidSEPA, msgSEPANotSupported)
	default:
		message := apiErr.BackendMessage
		if message == "" {
			message = msgInvalidSEPA
		}
		e = newError(KindInvalidSEPA, message)
	}
	e.Code = apiErr.Code
	return e
}
