package dto

type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusProcessing PaymentStatus = "processing"
	StatusSuccess    PaymentStatus = "success"
	StatusFailed     PaymentStatus = "failed"
	StatusCancelled  PaymentStatus = "cancelled"
)

type PaymentMethod string

const (
	// MethodStripe pays with a previously tokenized card.
	MethodStripe PaymentMethod = "stripe"
	// MethodCard pays with raw card credentials.
	MethodCard PaymentMethod = "card"
	// MethodSEPA pays by SEPA bank transfer.
	MethodSEPA PaymentMethod = "sepa"
)

// IsCardLike reports whether the method routes through the card flow.
func (m PaymentMethod) IsCardLike() bool {
	return m == MethodStripe || m == MethodCard
}

// PaymentRequest is the input to a single payment attempt. Amount is in
// minor currency units (cents). Exactly one credential set (card or SEPA)
// is expected to be populated, matching Method.
type PaymentRequest struct {
	Amount      int64
	Currency    string
	Description string
	Method      PaymentMethod

	BusinessID string
	SessionID  string
	ClassID    string
	BookingID  string

	StripeToken string
	CardNumber  string
	CardExpiry  string
	CardCVC     string

	SEPAIBAN          string
	SEPAAccountHolder string

	Metadata map[string]string
}

// PaymentResponse is the outcome of a successful payment attempt.
type PaymentResponse struct {
	Status        string
	TransactionID string
	Raw           map[string]interface{}
}
