package pay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concert-stream/internal/status"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(&ClientConfig{
		BaseURL:    srv.URL,
		MerchantID: "merchant-1",
		APIKey:     "api-key",
		HMACKey:    "hmac-key",
		SuccessURL: "https://example.org/success",
		CancelURL:  "https://example.org/cancel",
	})
	require.NoError(t, err)
	return c
}

func TestCreateSession_SignsRequest(t *testing.T) {
	var gotBody []byte
	var gotHash, gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHash = r.Header.Get("SignedHash")
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(Session{ID: "sess_1", Status: SessionPending, CheckoutURL: "https://pay.example/sess_1"})
	}))
	defer srv.Close()

	c := testClient(t, srv)
	session, err := c.CreateSession(context.Background(), CreateSessionRequest{
		UserID:    "u1",
		ConcertID: "c1",
		Amount:    decimal.NewFromFloat(24.90),
		Currency:  "EUR",
		Reference: "REF123",
	})

	require.NoError(t, err)
	assert.Equal(t, "sess_1", session.ID)
	assert.Equal(t, "https://pay.example/sess_1", session.CheckoutURL)

	assert.Equal(t, "Bearer api-key", gotAuth)
	assert.True(t, VerifySignature(gotBody, []byte("hmac-key"), gotHash), "body must be HMAC-signed")

	var payload map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "24.90", payload["amount"])
	meta := payload["metadata"].(map[string]any)
	assert.Equal(t, "u1", meta["user_id"])
	assert.Equal(t, "c1", meta["concert_id"])
}

func TestVerifySession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/sess_9", r.URL.Path)
		json.NewEncoder(w).Encode(Session{ID: "sess_9", Status: SessionCompleted, TransactionID: "txn_42"})
	}))
	defer srv.Close()

	c := testClient(t, srv)
	session, err := c.VerifySession(context.Background(), "sess_9")

	require.NoError(t, err)
	assert.Equal(t, SessionCompleted, session.Status)
	assert.Equal(t, "txn_42", session.TransactionID)
}

func TestVerifySession_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	_, err := c.VerifySession(context.Background(), "gone")

	assert.ErrorIs(t, err, status.ErrSessionNotFound)
}

func TestVerifySession_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	_, err := c.VerifySession(context.Background(), "sess_1")

	assert.Error(t, err)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(&ClientConfig{})
	assert.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"payment.completed"}`)
	key := []byte("webhook-secret")

	sig := Sign(body, key)

	assert.True(t, VerifySignature(body, key, sig))
	assert.False(t, VerifySignature(body, key, sig+"00"))
	assert.False(t, VerifySignature(body, []byte("wrong"), sig))
	assert.False(t, VerifySignature([]byte("tampered"), key, sig))
	assert.False(t, VerifySignature(body, key, ""))
}
