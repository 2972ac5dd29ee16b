package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"concert-stream/internal/access"
	"concert-stream/internal/stream"
	"concert-stream/monitoring"
	"concert-stream/services"
)

type ConcertHandler struct {
	concerts *services.ConcertService
	store    services.ConcertFinder
	resolver *access.Resolver
	prober   *stream.Prober
	presence *services.Presence
	notifier *services.StreamNotifier

	playbackURL string
}

func NewConcertHandler(
	concerts *services.ConcertService,
	store services.ConcertFinder,
	resolver *access.Resolver,
	prober *stream.Prober,
	presence *services.Presence,
	notifier *services.StreamNotifier,
	playbackURL string,
) *ConcertHandler {
	return &ConcertHandler{
		concerts:    concerts,
		store:       store,
		resolver:    resolver,
		prober:      prober,
		presence:    presence,
		notifier:    notifier,
		playbackURL: playbackURL,
	}
}

// List - published concerts localized for ?locale=
func (h *ConcertHandler) List(e *core.RequestEvent) error {
	views, err := h.concerts.List(e.Request.Context(), e.Request.URL.Query().Get("locale"))
	if err != nil {
		return apis.NewBadRequestError("Failed to list concerts", err)
	}
	return e.JSON(http.StatusOK, views)
}

// Detail - one concert; ?check=true runs the availability check and
// ?stream=true runs the gated playback request.
func (h *ConcertHandler) Detail(e *core.RequestEvent) error {
	concertID := e.Request.PathValue("id")
	query := e.Request.URL.Query()

	switch {
	case query.Get("check") == "true":
		return h.check(e, concertID)
	case query.Get("stream") == "true":
		return h.streamAccess(e, concertID)
	}

	identity := resolveIdentity(e)
	view, err := h.concerts.Get(e.Request.Context(), concertID, query.Get("locale"), identity.Admin)
	if err != nil {
		return apis.NewNotFoundError("Concert not found", nil)
	}
	return e.JSON(http.StatusOK, view)
}

// check answers "is the stream worth opening the player for, right
// now". Public: it leaks nothing beyond what the catalog already shows.
// The client polls this and latches ever_live across polls.
func (h *ConcertHandler) check(e *core.RequestEvent, concertID string) error {
	ctx := e.Request.Context()

	concert, err := h.store.FindConcert(ctx, concertID)
	if err != nil || !concert.Published {
		return apis.NewNotFoundError("Concert not found", nil)
	}

	now := time.Now().UTC()
	everLive := e.Request.URL.Query().Get("ever_live") == "true"

	h.touchPresence(e, concertID)

	if !access.IsWithinWindow(concert.StartTime, now) {
		state := access.WaitingStateFor(concert.StartTime, now)
		h.notifier.NotifyState(concertID, state)
		monitoring.TrackCheck(string(state), false)
		return e.JSON(http.StatusOK, map[string]any{
			"available": false,
			"state":     state,
			"now":       now,
		})
	}

	probeStart := time.Now()
	live := h.prober.Probe(ctx)
	monitoring.TrackProbe(live, time.Since(probeStart))

	// The pushed state reflects only what the server observed; the
	// client-latched ever_live flag shapes the response alone, so one
	// client's flag cannot flap the channel for everyone else.
	h.notifier.NotifyState(concertID, access.StateFor(concert.StartTime, now, live))

	state := access.StateFor(concert.StartTime, now, live || everLive)
	monitoring.TrackCheck(string(state), live)

	return e.JSON(http.StatusOK, map[string]any{
		"available": live,
		"state":     state,
		"now":       now,
	})
}

// streamAccess hands out the playback reference, gated by entitlement
// and the viewing window. The URL is never returned to an unentitled
// caller.
func (h *ConcertHandler) streamAccess(e *core.RequestEvent, concertID string) error {
	ctx := e.Request.Context()
	identity := resolveIdentity(e)

	decision := h.resolver.CanAccessStream(ctx, identity, concertID)
	if !decision.Allowed {
		monitoring.TrackStreamRequest(string(decision.Reason))
		switch decision.Reason {
		case access.DenyAuthRequired:
			return apis.NewUnauthorizedError("Authentication required", nil)
		case access.DenyPurchaseRequired:
			return apis.NewForbiddenError("Purchase required", map[string]any{
				"reason": access.DenyPurchaseRequired,
			})
		default:
			return apis.NewNotFoundError("Concert not found", nil)
		}
	}

	concert, err := h.store.FindConcert(ctx, concertID)
	if err != nil {
		return apis.NewNotFoundError("Concert not found", nil)
	}

	now := time.Now().UTC()
	if !access.IsWithinWindow(concert.StartTime, now) {
		// Temporal denial is distinct from the entitlement denials so
		// the client can show a countdown instead of a purchase prompt.
		monitoring.TrackStreamRequest("window_closed")
		return e.JSON(http.StatusForbidden, map[string]any{
			"reason": "window_closed",
			"state":  access.WaitingStateFor(concert.StartTime, now),
			"now":    now,
		})
	}

	if h.playbackURL == "" {
		monitoring.TrackStreamRequest("unconfigured")
		return apis.NewApiError(http.StatusServiceUnavailable, "Stream not configured", nil)
	}

	monitoring.TrackStreamRequest("allowed")
	return e.JSON(http.StatusOK, map[string]any{
		"playback_url": h.playbackURL,
	})
}

func (h *ConcertHandler) touchPresence(e *core.RequestEvent, concertID string) {
	clientKey := e.RealIP()
	if identity := resolveIdentity(e); !identity.Anonymous() {
		clientKey = identity.UserID
	}
	// Presence is advisory; a redis hiccup must not fail the check.
	_ = h.presence.Touch(e.Request.Context(), concertID, clientKey)
}
