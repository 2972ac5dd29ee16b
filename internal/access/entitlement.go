package access

import (
	"context"
	"errors"
	"log/slog"

	"concert-stream/internal/status"
	"concert-stream/models"
)

// DenyReason classifies why stream access was refused. The reasons are
// deliberately distinct so the client can route to sign-in, a purchase
// prompt or a 404 without guessing.
type DenyReason string

const (
	DenyNotFound         DenyReason = "not_found"
	DenyAuthRequired     DenyReason = "authentication_required"
	DenyPurchaseRequired DenyReason = "purchase_required"
)

// Decision is the outcome of an entitlement check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision            { return Decision{Allowed: true} }
func deny(r DenyReason) Decision { return Decision{Reason: r} }

// ConcertSource looks up concerts. Implementations return
// status.ErrConcertNotFound for absent concerts.
type ConcertSource interface {
	FindConcert(ctx context.Context, id string) (*models.Concert, error)
}

// TicketSource looks up entitlement records. Implementations return
// status.ErrTicketNotFound when no row exists for the pair.
type TicketSource interface {
	FindTicket(ctx context.Context, userID, concertID string) (*models.Ticket, error)
}

// Resolver decides whether an identity may view a concert's stream.
// It is read-only and holds no per-request state.
type Resolver struct {
	concerts ConcertSource
	tickets  TicketSource
	log      *slog.Logger
}

func NewResolver(concerts ConcertSource, tickets TicketSource, log *slog.Logger) *Resolver {
	return &Resolver{concerts: concerts, tickets: tickets, log: log}
}

// CanAccessStream applies the gating checks in order: concert existence
// and visibility, then authentication, then admin bypass, then the paid
// ticket. Unpublished concerts look identical to absent ones for
// non-admin callers. Store failures resolve to the conservative denial
// instead of bubbling up.
func (r *Resolver) CanAccessStream(ctx context.Context, id models.Identity, concertID string) Decision {
	concert, err := r.concerts.FindConcert(ctx, concertID)
	if err != nil {
		if !errors.Is(err, status.ErrConcertNotFound) {
			r.log.Error("concert lookup failed", slog.String("concert", concertID), slog.String("error", err.Error()))
		}
		return deny(DenyNotFound)
	}

	if !concert.Published && !id.Admin {
		return deny(DenyNotFound)
	}

	if id.Anonymous() {
		return deny(DenyAuthRequired)
	}

	if id.Admin {
		return allow()
	}

	ticket, err := r.tickets.FindTicket(ctx, id.UserID, concertID)
	if err != nil {
		if !errors.Is(err, status.ErrTicketNotFound) {
			r.log.Error("ticket lookup failed",
				slog.String("user", id.UserID),
				slog.String("concert", concertID),
				slog.String("error", err.Error()))
		}
		return deny(DenyPurchaseRequired)
	}

	if !ticket.Paid() {
		return deny(DenyPurchaseRequired)
	}

	return allow()
}
