package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"concert-stream/internal/status"
	"concert-stream/services"
)

type CheckoutHandler struct {
	tickets *services.TicketService
}

func NewCheckoutHandler(tickets *services.TicketService) *CheckoutHandler {
	return &CheckoutHandler{tickets: tickets}
}

// Checkout - open a payment session for one concert ticket
func (h *CheckoutHandler) Checkout(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		ConcertID string `json:"concert_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.ConcertID == "" {
		return apis.NewBadRequestError("concert_id is required", nil)
	}

	session, err := h.tickets.Checkout(e.Request.Context(), e.Auth.Id, req.ConcertID)
	switch {
	case errors.Is(err, status.ErrConcertNotFound):
		return apis.NewNotFoundError("Concert not found", nil)
	case errors.Is(err, status.ErrNotPurchasable):
		return apis.NewBadRequestError("Concert is not purchasable", nil)
	case errors.Is(err, status.ErrAlreadyPurchased):
		return apis.NewBadRequestError("Already purchased", map[string]any{
			"reason": "already_purchased",
		})
	case err != nil:
		return apis.NewBadRequestError("Failed to create checkout session", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"session_id":   session.ID,
		"checkout_url": session.CheckoutURL,
	})
}

// Purchase - answer whether the caller holds a paid ticket, reconciling
// a pending one against the processor session when asked
func (h *CheckoutHandler) Purchase(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	query := e.Request.URL.Query()
	concertID := query.Get("concertId")
	sessionID := query.Get("sessionId")
	if concertID == "" {
		return apis.NewBadRequestError("concertId is required", nil)
	}

	purchased := h.tickets.Reconcile(e.Request.Context(), e.Auth.Id, concertID, sessionID)

	return e.JSON(http.StatusOK, map[string]any{
		"purchased": purchased,
	})
}
