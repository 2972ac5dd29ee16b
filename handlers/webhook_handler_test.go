package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concert-stream/internal/services/pay"
	"concert-stream/internal/status"
	"concert-stream/models"
	"concert-stream/services"
)

// memTickets is an in-memory services.TicketStore that counts writes so
// tests can assert nothing mutated state.
type memTickets struct {
	mu      sync.Mutex
	rows    map[string]*models.Ticket
	creates int
	updates int
}

func newMemTickets() *memTickets {
	return &memTickets{rows: map[string]*models.Ticket{}}
}

func ticketKey(userID, concertID string) string { return userID + "/" + concertID }

func (m *memTickets) FindTicket(_ context.Context, userID, concertID string) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[ticketKey(userID, concertID)]
	if !ok {
		return nil, status.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTickets) CreateTicket(_ context.Context, t *models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	cp := *t
	m.rows[ticketKey(t.UserID, t.ConcertID)] = &cp
	return nil
}

func (m *memTickets) UpdateTicket(_ context.Context, t *models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	cp := *t
	m.rows[ticketKey(t.UserID, t.ConcertID)] = &cp
	return nil
}

func (m *memTickets) InTransaction(_ context.Context, fn func(services.TicketStore) error) error {
	return fn(m)
}

func (m *memTickets) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates + m.updates
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newWebhookHandler(store *memTickets, secret string) *WebhookHandler {
	tickets := services.NewTicketService(nil, store, nil, "EUR", testLogger())
	return NewWebhookHandler(tickets, nil, secret, testLogger())
}

func newWebhookEvent(body []byte, signature string) (*core.RequestEvent, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("SignedHash", signature)
	}
	rec := httptest.NewRecorder()

	e := new(core.RequestEvent)
	e.App = core.NewBaseApp(core.BaseAppConfig{})
	e.Request = req
	e.Response = rec
	return e, rec
}

func completedEventBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":   "evt_1",
		"type": "payment.completed",
		"data": map[string]any{
			"transaction_id": "txn_1",
			"metadata": map[string]any{
				"user_id":    "u1",
				"concert_id": "c1",
			},
		},
	})
	require.NoError(t, err)
	return body
}

func TestWebhook_RejectsInvalidSignature(t *testing.T) {
	store := newMemTickets()
	h := newWebhookHandler(store, "whsec_test")
	body := completedEventBody(t)

	e, _ := newWebhookEvent(body, pay.Sign(body, []byte("some other secret")))
	err := h.HandlePaymentEvent(e)

	var apiErr *router.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Zero(t, store.writes(), "rejected delivery must not touch tickets")
}

func TestWebhook_RejectsMissingSignature(t *testing.T) {
	store := newMemTickets()
	h := newWebhookHandler(store, "whsec_test")

	e, _ := newWebhookEvent(completedEventBody(t), "")
	err := h.HandlePaymentEvent(e)

	var apiErr *router.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Zero(t, store.writes())
}

func TestWebhook_RejectsAllWhenSecretUnset(t *testing.T) {
	store := newMemTickets()
	h := newWebhookHandler(store, "")
	body := completedEventBody(t)

	// Even a self-consistent signature fails when no secret is configured.
	e, _ := newWebhookEvent(body, pay.Sign(body, []byte("")))
	err := h.HandlePaymentEvent(e)

	var apiErr *router.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Zero(t, store.writes())
}

func TestWebhook_CompletedPaymentMarksTicketPaid(t *testing.T) {
	store := newMemTickets()
	store.CreateTicket(context.Background(), &models.Ticket{UserID: "u1", ConcertID: "c1", Status: models.TicketStatusPending})
	h := newWebhookHandler(store, "whsec_test")
	body := completedEventBody(t)

	e, rec := newWebhookEvent(body, pay.Sign(body, []byte("whsec_test")))
	require.NoError(t, h.HandlePaymentEvent(e))

	assert.Equal(t, http.StatusOK, rec.Code)
	ticket, err := store.FindTicket(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.True(t, ticket.Paid())
	assert.Equal(t, "txn_1", ticket.TransactionID)
}
