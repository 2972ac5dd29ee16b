package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"concert-stream/internal/access"
	"concert-stream/internal/status"
	"concert-stream/models"
	"concert-stream/services"
)

type AdminHandler struct {
	store    *services.Store
	presence *services.Presence
}

func NewAdminHandler(store *services.Store, presence *services.Presence) *AdminHandler {
	return &AdminHandler{store: store, presence: presence}
}

// RequireAdmin gates the admin route group. Superusers and users with
// the admin flag pass.
func RequireAdmin(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	if !resolveAdmin(e) {
		return apis.NewForbiddenError("Admin access required", nil)
	}
	return e.Next()
}

type concertPayload struct {
	Title        string  `json:"title"`
	StartTime    string  `json:"start_time"`
	Published    bool    `json:"published"`
	Price        float64 `json:"price"`
	ProductRef   string  `json:"product_ref"`
	PriceRef     string  `json:"price_ref"`
	Translations []struct {
		Locale      string `json:"locale"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Venue       string `json:"venue"`
	} `json:"translations"`
	Program []struct {
		Composer string `json:"composer"`
		Work     string `json:"work"`
	} `json:"program"`
}

func (p *concertPayload) toModel(id string) (*models.Concert, error) {
	start, err := time.Parse(time.RFC3339, p.StartTime)
	if err != nil {
		return nil, err
	}

	concert := &models.Concert{
		ID:         id,
		Title:      p.Title,
		StartTime:  start.UTC(),
		Published:  p.Published,
		Price:      p.Price,
		ProductRef: p.ProductRef,
		PriceRef:   p.PriceRef,
	}
	for _, tr := range p.Translations {
		concert.Translations = append(concert.Translations, models.ConcertTranslation{
			Locale:      tr.Locale,
			Title:       tr.Title,
			Description: tr.Description,
			Venue:       tr.Venue,
		})
	}
	for i, piece := range p.Program {
		concert.Program = append(concert.Program, models.ProgramPiece{
			Position: i,
			Composer: piece.Composer,
			Work:     piece.Work,
		})
	}
	return concert, nil
}

// CreateConcert - create a concert with translations and program
func (h *AdminHandler) CreateConcert(e *core.RequestEvent) error {
	return h.saveConcert(e, "")
}

// UpdateConcert - full-replacement edit: date, translations and program
// are replaced wholesale, never patched
func (h *AdminHandler) UpdateConcert(e *core.RequestEvent) error {
	return h.saveConcert(e, e.Request.PathValue("id"))
}

func (h *AdminHandler) saveConcert(e *core.RequestEvent, id string) error {
	var payload concertPayload
	if err := e.BindBody(&payload); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if payload.Title == "" {
		return apis.NewBadRequestError("title is required", nil)
	}

	concert, err := payload.toModel(id)
	if err != nil {
		return apis.NewBadRequestError("start_time must be RFC3339", err)
	}

	concertID, err := h.store.SaveConcert(e.Request.Context(), concert)
	if errors.Is(err, status.ErrConcertNotFound) {
		return apis.NewNotFoundError("Concert not found", nil)
	}
	if err != nil {
		return apis.NewBadRequestError("Failed to save concert", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"id": concertID})
}

// DeleteConcert - delete a concert; translations and program entries
// cascade
func (h *AdminHandler) DeleteConcert(e *core.RequestEvent) error {
	err := h.store.DeleteConcert(e.Request.Context(), e.Request.PathValue("id"))
	if errors.Is(err, status.ErrConcertNotFound) {
		return apis.NewNotFoundError("Concert not found", nil)
	}
	if err != nil {
		return apis.NewBadRequestError("Failed to delete concert", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"deleted": true})
}

// ListSupport - support reports, optionally filtered by ?status=
func (h *AdminHandler) ListSupport(e *core.RequestEvent) error {
	reports, err := h.store.ListReports(e.Request.Context(), e.Request.URL.Query().Get("status"))
	if err != nil {
		return apis.NewBadRequestError("Failed to list reports", err)
	}
	return e.JSON(http.StatusOK, reports)
}

// ResolveSupport - mark a report resolved; resolving twice keeps the
// first resolution timestamp
func (h *AdminHandler) ResolveSupport(e *core.RequestEvent) error {
	report, err := h.store.ResolveReport(e.Request.Context(), e.Request.PathValue("id"), time.Now())
	if err != nil {
		return apis.NewNotFoundError("Report not found", nil)
	}
	return e.JSON(http.StatusOK, report)
}

// Dashboard - per-concert window state and live viewer counts
func (h *AdminHandler) Dashboard(e *core.RequestEvent) error {
	ctx := e.Request.Context()

	concerts, err := h.store.ListPublishedConcerts(ctx)
	if err != nil {
		return apis.NewBadRequestError("Failed to load concerts", err)
	}

	now := time.Now().UTC()
	entries := make([]map[string]any, 0, len(concerts))
	for _, c := range concerts {
		viewers, _ := h.presence.Count(ctx, c.ID)
		entries = append(entries, map[string]any{
			"id":          c.ID,
			"title":       c.Title,
			"start_time":  c.StartTime,
			"window_open": access.IsWithinWindow(c.StartTime, now),
			"ended":       access.HasEnded(c.StartTime, now),
			"viewers":     viewers,
		})
	}

	return e.JSON(http.StatusOK, map[string]any{
		"now":      now,
		"concerts": entries,
	})
}
