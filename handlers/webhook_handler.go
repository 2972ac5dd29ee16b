package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"

	"concert-stream/internal/services/pay"
	"concert-stream/monitoring"
	"concert-stream/services"
)

// webhookEventTTL keeps processed event ids around long enough to absorb
// the processor's retry horizon.
const webhookEventTTL = 24 * time.Hour

// paymentEvent is the processor's webhook payload.
type paymentEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		TransactionID string `json:"transaction_id"`
		Metadata      struct {
			UserID    string `json:"user_id"`
			ConcertID string `json:"concert_id"`
		} `json:"metadata"`
	} `json:"data"`
}

type WebhookHandler struct {
	tickets *services.TicketService
	redis   *redis.Client
	secret  string
	log     *slog.Logger
}

func NewWebhookHandler(tickets *services.TicketService, redisClient *redis.Client, secret string, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		tickets: tickets,
		redis:   redisClient,
		secret:  secret,
		log:     log,
	}
}

// HandlePaymentEvent - consume a payment confirmation from the
// processor. The signature is checked before anything else touches
// state; an invalid one is a security rejection, not a retryable error.
func (h *WebhookHandler) HandlePaymentEvent(e *core.RequestEvent) error {
	body, err := io.ReadAll(io.LimitReader(e.Request.Body, 1<<20))
	if err != nil {
		return apis.NewBadRequestError("Failed to read body", err)
	}

	signature := e.Request.Header.Get("SignedHash")
	if h.secret == "" || !pay.VerifySignature(body, []byte(h.secret), signature) {
		monitoring.TrackWebhook("invalid_signature")
		h.log.Warn("webhook signature rejected", slog.String("ip", e.RealIP()))
		return apis.NewUnauthorizedError("Invalid signature", nil)
	}

	var event paymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		monitoring.TrackWebhook("malformed")
		return apis.NewBadRequestError("Malformed event", err)
	}
	if event.ID == "" || event.Type == "" {
		monitoring.TrackWebhook("malformed")
		return apis.NewBadRequestError("Malformed event", nil)
	}

	if h.seenBefore(e, event.ID) {
		monitoring.TrackWebhook("duplicate")
		return e.JSON(http.StatusOK, map[string]any{"received": true, "duplicate": true})
	}

	if event.Type == "payment.completed" {
		meta := event.Data.Metadata
		if meta.UserID == "" || meta.ConcertID == "" {
			monitoring.TrackWebhook("malformed")
			return apis.NewBadRequestError("Event metadata incomplete", nil)
		}

		if err := h.tickets.MarkPaid(e.Request.Context(), meta.UserID, meta.ConcertID, event.Data.TransactionID); err != nil {
			monitoring.TrackWebhook("failed")
			h.log.Error("mark paid from webhook failed",
				slog.String("event", event.ID),
				slog.String("error", err.Error()))
			// 500 so the processor retries; MarkPaid is idempotent.
			return apis.NewApiError(http.StatusInternalServerError, "Failed to apply event", nil)
		}

		h.log.Info("payment confirmed",
			slog.String("event", event.ID),
			slog.String("user", meta.UserID),
			slog.String("concert", meta.ConcertID))
	}

	monitoring.TrackWebhook("processed")
	return e.JSON(http.StatusOK, map[string]any{"received": true})
}

// seenBefore marks the event id processed and reports whether it already
// was. Redis being down degrades to "not seen"; replays are still safe
// because MarkPaid is idempotent.
func (h *WebhookHandler) seenBefore(e *core.RequestEvent, eventID string) bool {
	if h.redis == nil {
		return false
	}
	set, err := h.redis.SetNX(e.Request.Context(), "webhook:event:"+eventID, 1, webhookEventTTL).Result()
	if err != nil {
		return false
	}
	return !set
}
