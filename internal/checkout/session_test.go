package checkout

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"gymgo/internal/api"
	dto "gymgo/internal/entity"
	"gymgo/internal/payment"
	"gymgo/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubTransport struct {
	statusCode int
	body       string
	release    chan struct{}
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if s.release != nil {
		<-s.release
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: s.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(s.body)),
		Header:     header,
	}, nil
}

func newTestSession(transport http.RoundTripper) *Session {
	tokens := token.NewMemoryStore()
	apiClient := api.NewWithClient("https://api.gym.test", &http.Client{Transport: transport}, tokens, zap.NewNop())
	return NewSession(payment.New(apiClient, tokens, zap.NewNop(), payment.DefaultTimeout))
}

func cardRequest() *dto.PaymentRequest {
	return &dto.PaymentRequest{
		Amount:     2000,
		Currency:   "EUR",
		Method:     dto.MethodCard,
		BusinessID: "biz_1",
		CardNumber: "4242424242424242",
		CardExpiry: "12/30",
		CardCVC:    "123",
	}
}

// drainStatuses collects the status transitions seen so far, collapsing
// consecutive duplicates (a transition and its success/error detail
// arrive as separate updates).
func drainStatuses(s *Session) []dto.PaymentStatus {
	var statuses []dto.PaymentStatus
	for {
		select {
		case update := <-s.Updates():
			if len(statuses) == 0 || statuses[len(statuses)-1] != update.Status {
				statuses = append(statuses, update.Status)
			}
		default:
			return statuses
		}
	}
}

func TestSession_SuccessTransitions(t *testing.T) {
	session := newTestSession(&stubTransport{statusCode: 200, body: `{"transaction_id":"tx_42"}`})

	resp, err := session.Process(context.Background(), cardRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "tx_42", resp.TransactionID)

	assert.False(t, session.Processing())
	assert.Equal(t, dto.StatusSuccess, session.Status())
	assert.Equal(t, "tx_42", session.TransactionID())
	assert.Nil(t, session.Err())

	assert.Equal(t,
		[]dto.PaymentStatus{dto.StatusPending, dto.StatusProcessing, dto.StatusSuccess},
		drainStatuses(session))
}

func TestSession_ErrorTransitions(t *testing.T) {
	session := newTestSession(&stubTransport{statusCode: 402, body: `{"code":"card_declined"}`})

	_, err := session.Process(context.Background(), cardRequest(), nil)
	require.Error(t, err)

	assert.False(t, session.Processing())
	assert.Equal(t, dto.StatusFailed, session.Status())
	assert.Empty(t, session.TransactionID())
	require.NotNil(t, session.Err())
	assert.Equal(t, payment.KindCardDeclined, session.Err().Kind)
}

func TestSession_NewAttemptClearsStaleError(t *testing.T) {
	failing := &stubTransport{statusCode: 402, body: `{"code":"card_declined"}`}
	session := newTestSession(failing)

	_, err := session.Process(context.Background(), cardRequest(), nil)
	require.Error(t, err)
	require.NotNil(t, session.Err())

	failing.statusCode = 200
	failing.body = `{"transaction_id":"tx_2"}`

	resp, err := session.Process(context.Background(), cardRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "tx_2", resp.TransactionID)
	assert.Nil(t, session.Err())
	assert.Equal(t, dto.StatusSuccess, session.Status())
}

func TestSession_ClearErrorLeavesStatus(t *testing.T) {
	session := newTestSession(&stubTransport{statusCode: 402, body: `{"code":"card_declined"}`})

	_, _ = session.Process(context.Background(), cardRequest(), nil)
	require.NotNil(t, session.Err())

	session.ClearError()
	assert.Nil(t, session.Err())
	assert.Equal(t, dto.StatusFailed, session.Status(), "ClearError only drops the error")
}

func TestSession_Reset(t *testing.T) {
	session := newTestSession(&stubTransport{statusCode: 200, body: `{"transaction_id":"tx_42"}`})

	_, err := session.Process(context.Background(), cardRequest(), nil)
	require.NoError(t, err)

	session.Reset()
	assert.False(t, session.Processing())
	assert.Equal(t, dto.PaymentStatus(""), session.Status())
	assert.Nil(t, session.Err())
	assert.Empty(t, session.TransactionID())
}

func TestSession_LateResolutionAfterTimeoutIsInert(t *testing.T) {
	transport := &stubTransport{
		statusCode: 200,
		body:       `{"transaction_id":"late"}`,
		release:    make(chan struct{}),
	}
	session := newTestSession(transport)

	_, err := session.Process(context.Background(), cardRequest(), &payment.ProcessOptions{
		Timeout: 50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Equal(t, dto.StatusFailed, session.Status())
	assert.Equal(t, payment.KindNetworkError, session.Err().Kind)

	// The abandoned call settles later; already-delivered state must not move.
	close(transport.release)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, dto.StatusFailed, session.Status())
	assert.Empty(t, session.TransactionID())
	assert.False(t, session.Processing())
}
