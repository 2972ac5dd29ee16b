package handlers

import (
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"concert-stream/models"
	"concert-stream/services"
)

type SupportHandler struct {
	store *services.Store
}

func NewSupportHandler(store *services.Store) *SupportHandler {
	return &SupportHandler{store: store}
}

// Create - submit a support report with the client-observed state
// snapshot. Anonymous submissions are allowed; email is the contact
// channel either way.
func (h *SupportHandler) Create(e *core.RequestEvent) error {
	var req struct {
		Email      string `json:"email"`
		Category   string `json:"category"`
		Message    string `json:"message"`
		Live       bool   `json:"live"`
		EverLive   bool   `json:"ever_live"`
		WindowOpen bool   `json:"window_open"`
		Purchased  bool   `json:"purchased"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return apis.NewBadRequestError("A valid email is required", nil)
	}
	if strings.TrimSpace(req.Message) == "" {
		return apis.NewBadRequestError("Message is required", nil)
	}

	report := &models.SupportReport{
		Email:      req.Email,
		Category:   req.Category,
		Message:    req.Message,
		Live:       req.Live,
		EverLive:   req.EverLive,
		WindowOpen: req.WindowOpen,
		Purchased:  req.Purchased,
	}
	if e.Auth != nil {
		report.UserID = e.Auth.Id
	}

	if err := h.store.CreateReport(e.Request.Context(), report); err != nil {
		return apis.NewBadRequestError("Failed to create report", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"id":     report.ID,
		"status": report.Status,
	})
}
