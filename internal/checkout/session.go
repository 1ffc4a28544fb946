package checkout

import (
	"context"
	"sync"

	dto "gymgo/internal/entity"
	"gymgo/internal/payment"
)

// Update is one observable state change of a checkout session.
type Update struct {
	Status        dto.PaymentStatus
	Err           *payment.PaymentError
	TransactionID string
}

// Session wraps a payment client in observable checkout state for a UI
// consumer. One payment attempt is expected in flight at a time;
// overlapping Process calls race last-writer-wins on the state fields.
type Session struct {
	client *payment.Client

	mu            sync.Mutex
	processing    bool
	status        dto.PaymentStatus
	err           *payment.PaymentError
	transactionID string

	updates chan Update
}

func NewSession(client *payment.Client) *Session {
	return &Session{
		client:  client,
		updates: make(chan Update, 16),
	}
}

// Updates streams state changes for progressive UI rendering. Sends
// never block; a slow consumer misses intermediate transitions but
// always observes the latest state via the accessors.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

func (s *Session) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// Status returns the current payment status, empty when no attempt has
// been made since the last Reset.
func (s *Session) Status() dto.PaymentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Err() *payment.PaymentError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) TransactionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactionID
}

// Process runs a payment attempt, mirroring the client's lifecycle into
// session state: stale error cleared, status pending, processing true,
// then the client's own transitions.
func (s *Session) Process(ctx context.Context, req *dto.PaymentRequest, opts *payment.ProcessOptions) (*dto.PaymentResponse, error) {
	s.mu.Lock()
	s.err = nil
	s.transactionID = ""
	s.status = dto.StatusPending
	s.processing = true
	s.mu.Unlock()
	s.notify()

	if opts == nil {
		opts = &payment.ProcessOptions{}
	}
	wrapped := &payment.ProcessOptions{
		Timeout: opts.Timeout,
		OnStatusChange: func(status dto.PaymentStatus) {
			s.mu.Lock()
			s.status = status
			s.mu.Unlock()
			s.notify()
			if opts.OnStatusChange != nil {
				opts.OnStatusChange(status)
			}
		},
		OnSuccess: func(resp *dto.PaymentResponse) {
			s.mu.Lock()
			s.status = dto.StatusSuccess
			s.transactionID = resp.TransactionID
			s.processing = false
			s.mu.Unlock()
			s.notify()
			if opts.OnSuccess != nil {
				opts.OnSuccess(resp)
			}
		},
		OnError: func(perr *payment.PaymentError) {
			s.mu.Lock()
			s.err = perr
			s.status = dto.StatusFailed
			s.processing = false
			s.mu.Unlock()
			s.notify()
			if opts.OnError != nil {
				opts.OnError(perr)
			}
		},
	}

	resp, err := s.client.Process(ctx, req, wrapped)
	if err != nil {
		// The client invokes OnError before returning; this guards the
		// case where it rejected without doing so.
		s.mu.Lock()
		if s.processing {
			s.processing = false
		}
		s.mu.Unlock()
		return nil, err
	}
	return resp, nil
}

// ClearError drops the error field only; status and processing keep
// their values.
func (s *Session) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
	s.notify()
}

// Reset returns the session to its initial state.
func (s *Session) Reset() {
	s.mu.Lock()
	s.processing = false
	s.status = ""
	s.err = nil
	s.transactionID = ""
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	s.mu.Lock()
	update := Update{
		Status:        s.status,
		Err:           s.err,
		TransactionID: s.transactionID,
	}
	s.mu.Unlock()

	select {
	case s.updates <- update:
	default:
	}
}
