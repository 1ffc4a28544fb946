package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gymgo/internal/api"
	dto "gymgo/internal/entity"
	"gymgo/internal/token"
	"gymgo/internal/validation"
	"gymgo/pkg/metrics"

	"go.uber.org/zap"
)

const (
	cardEndpoint = "/api/v1/payments/stripe"
	sepaEndpoint = "/api/v1/payments/sepa"

	// DefaultTimeout bounds a single payment attempt.
	DefaultTimeout = 30 * time.Second
)

// ProcessOptions carries the per-attempt lifecycle callbacks and the
// optional timeout override. All fields are optional.
type ProcessOptions struct {
	Timeout        time.Duration
	OnSuccess      func(*dto.PaymentResponse)
	OnError        func(*PaymentError)
	OnStatusChange func(dto.PaymentStatus)
}

// Client orchestrates a single payment attempt against the backend.
type Client struct {
	api     *api.Client
	tokens  token.Store
	logger  *zap.Logger
	timeout time.Duration
}

func New(apiClient *api.Client, tokens token.Store, logger *zap.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		api:     apiClient,
		tokens:  tokens,
		logger:  logger.With(zap.String("component", "payment_client")),
		timeout: timeout,
	}
}

// paymentBody is the backend's snake_case wire contract.
type paymentBody struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description,omitempty"`
	BusinessID  string            `json:"business_id"`
	SessionID   string            `json:"session_id,omitempty"`
	ClassID     string            `json:"class_id,omitempty"`
	BookingID   string            `json:"booking_id,omitempty"`
	StripeToken string            `json:"stripe_token,omitempty"`
	CardNumber  string            `json:"card_number,omitempty"`
	CardExpiry  string            `json:"card_expiry,omitempty"`
	CardCVC     string            `json:"card_cvc,omitempty"`
	SEPAIBAN    string            `json:"sepa_iban,omitempty"`
	SEPAHolder  string            `json:"sepa_account_holder,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// paymentAPIResponse is the decoded backend response. The backend's
// primary field is transaction_id; older deployments still answer with
// a bare id.
type paymentAPIResponse struct {
	Status        string
	TransactionID string
	ID            string
	Raw           map[string]interface{}
}

// Process runs one payment attempt: precondition checks, a single
// network call raced against the timeout, failure classification and
// lifecycle callbacks. Precondition failures are raised before any
// network traffic and before the processing status transition.
func (c *Client) Process(ctx context.Context, req *dto.PaymentRequest, opts *ProcessOptions) (*dto.PaymentResponse, error) {
	if opts == nil {
		opts = &ProcessOptions{}
	}
	started := time.Now()

	endpoint, perr := c.checkPreconditions(req)
	if perr != nil {
		return nil, c.fail(req, opts, perr, started)
	}

	c.emitStatus(opts, dto.StatusProcessing)
	c.logger.Info("processing payment",
		zap.String("method", string(req.Method)),
		zap.Int64("amount", req.Amount),
		zap.String("currency", req.Currency))

	resp, err := c.send(ctx, endpoint, req, opts)
	if err != nil {
		classified := Classify(req.Method, err)
		return nil, c.fail(req, opts, classified, started)
	}

	c.emitStatus(opts, dto.StatusSuccess)
	if opts.OnSuccess != nil {
		opts.OnSuccess(resp)
	}
	metrics.ObserveAttempt(string(req.Method), "success", time.Since(started).Seconds())
	c.logger.Info("payment succeeded", zap.String("transaction_id", resp.TransactionID))
	return resp, nil
}

func (c *Client) checkPreconditions(req *dto.PaymentRequest) (string, *PaymentError) {
	switch {
	case req.Method.IsCardLike():
		if req.StripeToken == "" && req.CardNumber == "" {
			return "", newError(KindInvalidCard, "A card token or card number is required")
		}
		return cardEndpoint, nil

	case req.Method == dto.MethodSEPA:
		if strings.TrimSpace(req.SEPAIBAN) == "" {
			return "", newError(KindInvalidSEPA, "An IBAN is required")
		}
		if strings.TrimSpace(req.SEPAAccountHolder) == "" {
			return "", newError(KindInvalidSEPA, "An account holder name is required")
		}
		if result := validation.ValidateIBAN(req.SEPAIBAN); !result.Valid {
			e := newError(KindInvalidSEPA, msgInvalidIBAN)
			e.Details = map[string]interface{}{"errors": result.Errors}
			return "", e
		}
		return sepaEndpoint, nil

	default:
		return "", newError(KindUnknown, fmt.Sprintf("Unsupported payment method: %s", req.Method))
	}
}

type outcome struct {
	resp *paymentAPIResponse
	err  error
}

// send issues the single network call and races it against the timeout.
// The channel is buffered so the loser's eventual settlement is inert.
func (c *Client) send(ctx context.Context, endpoint string, req *dto.PaymentRequest, opts *ProcessOptions) (*dto.PaymentResponse, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	results := make(chan outcome, 1)
	go func() {
		raw := map[string]interface{}{}
		err := c.api.Post(ctx, endpoint, buildBody(req), &raw)
		if err != nil {
			results <- outcome{err: err}
			return
		}
		results <- outcome{resp: decodeResponse(raw)}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-results:
		if result.err != nil {
			return nil, c.interceptUnauthorized(ctx, result.err)
		}
		return c.finishResponse(result.resp)
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// interceptUnauthorized clears the stored token on 401/403. This is
// deliberate asymmetry with the generic API layer, which leaves the
// token alone on denied calls.
func (c *Client) interceptUnauthorized(ctx context.Context, err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		if clearErr := c.tokens.ClearToken(ctx); clearErr != nil {
			c.logger.Warn("failed to clear token after denied payment", zap.Error(clearErr))
		} else {
			c.logger.Info("cleared stored token after denied payment", zap.Int("status", apiErr.StatusCode))
		}
	}
	return err
}

func (c *Client) finishResponse(decoded *paymentAPIResponse) (*dto.PaymentResponse, error) {
	transactionID := decoded.TransactionID
	if transactionID == "" {
		transactionID = decoded.ID
	}
	if transactionID == "" {
		return nil, newError(KindUnknown, "Payment response is missing a transaction id")
	}
	return &dto.PaymentResponse{
		Status:        "success",
		TransactionID: transactionID,
		Raw:           decoded.Raw,
	}, nil
}

func buildBody(req *dto.PaymentRequest) *paymentBody {
	body := &paymentBody{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		BusinessID:  req.BusinessID,
		SessionID:   req.SessionID,
		ClassID:     req.ClassID,
		BookingID:   req.BookingID,
		Metadata:    req.Metadata,
	}
	if req.Method.IsCardLike() {
		body.StripeToken = req.StripeToken
		body.CardNumber = req.CardNumber
		body.CardExpiry = req.CardExpiry
		body.CardCVC = req.CardCVC
	} else {
		body.SEPAIBAN = req.SEPAIBAN
		body.SEPAHolder = req.SEPAAccountHolder
	}
	return body
}

func decodeResponse(raw map[string]interface{}) *paymentAPIResponse {
	decoded := &paymentAPIResponse{Raw: raw}
	if s, ok := raw["status"].(string); ok {
		decoded.Status = s
	}
	if s, ok := raw["transaction_id"].(string); ok {
		decoded.TransactionID = s
	}
	if s, ok := raw["id"].(string); ok {
		decoded.ID = s
	}
	return decoded
}

func (c *Client) fail(req *dto.PaymentRequest, opts *ProcessOptions, perr *PaymentError, started time.Time) *PaymentError {
	c.emitStatus(opts, dto.StatusFailed)
	if opts.OnError != nil {
		opts.OnError(perr)
	}
	metrics.ObserveAttempt(string(req.Method), string(perr.Kind), time.Since(started).Seconds())
	c.logger.Warn("payment failed",
		zap.String("method", string(req.Method)),
		zap.String("kind", string(perr.Kind)),
		zap.String("code", perr.Code))
	return perr
}

func (c *Client) emitStatus(opts *ProcessOptions, status dto.PaymentStatus) {
	if opts.OnStatusChange != nil {
		opts.OnStatusChange(status)
	}
}

// Shared instance, lazily constructed by the first caller. Prefer
// injecting a Client directly; this exists for callers composed before
// dependency wiring happens.
var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the process-wide client, constructing it on first use.
func Default(apiClient *api.Client, tokens token.Store, logger *zap.Logger, timeout time.Duration) *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(apiClient, tokens, logger, timeout)
	}
	return defaultClient
}

// ResetDefault discards the shared client so the next Default call
// rebuilds it. Intended for test isolation.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultClient = nil
}
