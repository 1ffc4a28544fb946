package payment

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"gymgo/internal/api"
	dto "gymgo/internal/entity"
	"gymgo/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRoundTripper struct {
	statusCode int
	body       string
	err        error
	calls      int32
	lastReq    *http.Request
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&m.calls, 1)
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
		Header:     header,
	}, nil
}

// blockingRoundTripper holds every request until release is closed.
type blockingRoundTripper struct {
	release chan struct{}
	body    string
	calls   int32
}

func (b *blockingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&b.calls, 1)
	<-b.release
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(b.body)),
		Header:     header,
	}, nil
}

func newTestClient(transport http.RoundTripper, tokens token.Store) *Client {
	apiClient := api.NewWithClient("https://api.gym.test", &http.Client{Transport: transport}, tokens, zap.NewNop())
	return New(apiClient, tokens, zap.NewNop(), DefaultTimeout)
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

func TestProcess_CardSuccess(t *testing.T) {
	mock := &mockRoundTripper{statusCode: 200, body: `{"status":"success","transaction_id":"tx_123"}`}
	client := newTestClient(mock, token.NewMemoryStore())

	var statuses []dto.PaymentStatus
	var gotResp *dto.PaymentResponse
	resp, err := client.Process(context.Background(), cardRequest(), &ProcessOptions{
		OnStatusChange: func(s dto.PaymentStatus) { statuses = append(statuses, s) },
		OnSuccess:      func(r *dto.PaymentResponse) { gotResp = r },
	})

	require.NoError(t, err)
	assert.Equal(t, "tx_123", resp.TransactionID)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, []dto.PaymentStatus{dto.StatusProcessing, dto.StatusSuccess}, statuses)
	assert.Same(t, resp, gotResp)
	assert.Equal(t, int32(1), atomic.LoadInt32(&mock.calls))
	assert.Equal(t, "/api/v1/payments/stripe", mock.lastReq.URL.Path)
}

func TestProcess_TransactionIDFallsBackToID(t *testing.T) {
	mock := &mockRoundTripper{statusCode: 200, body: `{"id":"pi_9"}`}
	client := newTestClient(mock, token.NewMemoryStore())

	resp, err := client.Process(context.Background(), cardRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "pi_9", resp.TransactionID)
}

func TestProcess_MissingTransactionID(t *testing.T) {
	mock := &mockRoundTripper{statusCode: 200, body: `{"status":"success"}`}
	client := newTestClient(mock, token.NewMemoryStore())

	_, err := client.Process(context.Background(), cardRequest(), nil)
	require.Error(t, err)
	perr, ok := err.(*PaymentError)
	require.True(t, ok)
	assert.Equal(t, KindUnknown, perr.Kind)
}

func TestProcess_SEPARoutesToSEPAEndpoint(t *testing.T) {
	mock := &mockRoundTripper{statusCode: 200, body: `{"transaction_id":"tr_7"}`}
	client := newTestClient(mock, token.NewMemoryStore())

	resp, err := client.Process(context.Background(), &dto.PaymentRequest{
		Amount:            4500,
		Currency:          "EUR",
		Method:            dto.MethodSEPA,
		BusinessID:        "biz_1",
		SEPAIBAN:          "DE89370400440532013000",
		SEPAAccountHolder: "Erika Mustermann",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "tr_7", resp.TransactionID)
	assert.Equal(t, "/api/v1/payments/sepa", mock.lastReq.URL.Path)
}

func TestProcess_SEPAChecksumFailureSkipsNetwork(t *testing.T) {
	mock := &mockRoundTripper{statusCode: 200, body: `{"transaction_id":"tr_7"}`}
	client := newTestClient(mock, token.NewMemoryStore())

	var statuses []dto.PaymentStatus
	_, err := client.Process(context.Background(), &dto.PaymentRequest{
		Amount:            4500,
		Currency:          "EUR",
		Method:            dto.MethodSEPA,
		SEPAIBAN:          "DE89370400440532013001",
		SEPAAccountHolder: "Erika Mustermann",
	}, &ProcessOptions{
		OnStatusChange: func(s dto.PaymentStatus) { statuses = append(statuses, s) },
	})

	require.Error(t, err)
	perr := err.(*PaymentError)
	assert.Equal(t, KindInvalidSEPA, perr.Kind)
	assert.Equal(t, int32(0), atomic.LoadInt32(&mock.calls), "no network call expected")
	assert.Equal(t, []dto.PaymentStatus{dto.StatusFailed}, statuses, "no processing transition before validation")
}

func TestProcess_CardWithoutCredentialsFailsFast(t *testing.T) {
	mock := &mockRoundTripper{statusCode: 200, body: `{}`}
	client := newTestClient(mock, token.NewMemoryStore())

	_, err := client.Process(context.Background(), &dto.PaymentRequest{
		Amount:   2000,
		Currency: "EUR",
		Method:   dto.MethodStripe,
	}, nil)

	require.Error(t, err)
	assert.Equal(t, KindInvalidCard, err.(*PaymentError).Kind)
	assert.Equal(t, int32(0), atomic.LoadInt32(&mock.calls))
}

func TestProcess_UnsupportedMethod(t *testing.T) {
	client := newTestClient(&mockRoundTripper{}, token.NewMemoryStore())

	_, err := client.Process(context.Background(), &dto.PaymentRequest{Method: "crypto"}, nil)
	require.Error(t, err)
	assert.Equal(t, KindUnknown, err.(*PaymentError).Kind)
}

func TestProcess_UnauthorizedClearsToken(t *testing.T) {
	tokens := token.NewMemoryStore()
	require.NoError(t, tokens.SetToken(context.Background(), "tok_abc"))

	mock := &mockRoundTripper{statusCode: http.StatusUnauthorized, body: `{"code":"token_expired"}`}
	client := newTestClient(mock, tokens)

	_, err := client.Process(context.Background(), cardRequest(), nil)
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, err.(*PaymentError).Kind)

	stored, _ := tokens.Token(context.Background())
	assert.Empty(t, stored, "401 on the payment path must clear the stored token")
}

func TestProcess_DeclinedLeavesTokenAlone(t *testing.T) {
	tokens := token.NewMemoryStore()
	require.NoError(t, tokens.SetToken(context.Background(), "tok_abc"))

	mock := &mockRoundTripper{statusCode: 402, body: `{"code":"card_declined"}`}
	client := newTestClient(mock, tokens)

	_, err := client.Process(context.Background(), cardRequest(), nil)
	require.Error(t, err)
	assert.Equal(t, KindCardDeclined, err.(*PaymentError).Kind)

	stored, _ := tokens.Token(context.Background())
	assert.Equal(t, "tok_abc", stored)
}

func TestProcess_Timeout(t *testing.T) {
	blocking := &blockingRoundTripper{release: make(chan struct{}), body: `{"transaction_id":"late"}`}
	client := newTestClient(blocking, token.NewMemoryStore())

	var failed bool
	_, err := client.Process(context.Background(), cardRequest(), &ProcessOptions{
		Timeout: 50 * time.Millisecond,
		OnError: func(perr *PaymentError) { failed = true },
	})

	require.Error(t, err)
	perr := err.(*PaymentError)
	assert.Equal(t, KindNetworkError, perr.Kind)
	assert.Equal(t, msgTimeout, perr.Message)
	assert.True(t, failed)

	// Releasing the in-flight call afterwards must be inert.
	close(blocking.release)
	time.Sleep(20 * time.Millisecond)
}

func TestDefault_SharedAndResettable(t *testing.T) {
	t.Cleanup(ResetDefault)
	ResetDefault()

	tokens := token.NewMemoryStore()
	apiClient := api.New("https://api.gym.test", tokens, zap.NewNop())

	first := Default(apiClient, tokens, zap.NewNop(), DefaultTimeout)
	second := Default(apiClient, tokens, zap.NewNop(), DefaultTimeout)
	assert.Same(t, first, second)

	ResetDefault()
	third := Default(apiClient, tokens, zap.NewNop(), DefaultTimeout)
	assert.NotSame(t, first, third)
}
