package access

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"concert-stream/internal/status"
	"concert-stream/models"
)

type fakeConcerts struct {
	concerts map[string]*models.Concert
	err      error
}

func (f *fakeConcerts) FindConcert(_ context.Context, id string) (*models.Concert, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.concerts[id]
	if !ok {
		return nil, status.ErrConcertNotFound
	}
	return c, nil
}

type fakeTickets struct {
	tickets map[string]*models.Ticket // keyed by userID+"/"+concertID
	err     error
}

func (f *fakeTickets) FindTicket(_ context.Context, userID, concertID string) (*models.Ticket, error) {
	if f.err != nil {
		return nil, f.err
	}
	tk, ok := f.tickets[userID+"/"+concertID]
	if !ok {
		return nil, status.ErrTicketNotFound
	}
	return tk, nil
}

func testResolver(concerts *fakeConcerts, tickets *fakeTickets) *Resolver {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewResolver(concerts, tickets, log)
}

func publishedConcert(id string) *models.Concert {
	return &models.Concert{ID: id, Title: "Winter Recital", Published: true, StartTime: time.Now()}
}

func TestCanAccessStream_ConcertNotFound(t *testing.T) {
	r := testResolver(&fakeConcerts{concerts: map[string]*models.Concert{}}, &fakeTickets{})

	d := r.CanAccessStream(context.Background(), models.Identity{UserID: "u1"}, "missing")

	assert.False(t, d.Allowed)
	assert.Equal(t, DenyNotFound, d.Reason)
}

func TestCanAccessStream_DraftHiddenFromNonAdmins(t *testing.T) {
	draft := &models.Concert{ID: "c1", Published: false}
	r := testResolver(&fakeConcerts{concerts: map[string]*models.Concert{"c1": draft}}, &fakeTickets{
		tickets: map[string]*models.Ticket{"u1/c1": {Status: models.TicketStatusPaid}},
	})

	// Even a paid ticket must not leak existence of an unpublished concert.
	d := r.CanAccessStream(context.Background(), models.Identity{UserID: "u1"}, "c1")

	assert.False(t, d.Allowed)
	assert.Equal(t, DenyNotFound, d.Reason)
}

func TestCanAccessStream_AnonymousBeforeTicketCheck(t *testing.T) {
	tickets := &fakeTickets{err: errors.New("ticket store must not be touched")}
	r := testResolver(&fakeConcerts{concerts: map[string]*models.Concert{"c1": publishedConcert("c1")}}, tickets)

	d := r.CanAccessStream(context.Background(), models.Identity{}, "c1")

	assert.False(t, d.Allowed)
	assert.Equal(t, DenyAuthRequired, d.Reason)
}

func TestCanAccessStream_NoTicket(t *testing.T) {
	r := testResolver(
		&fakeConcerts{concerts: map[string]*models.Concert{"c1": publishedConcert("c1")}},
		&fakeTickets{tickets: map[string]*models.Ticket{}},
	)

	d := r.CanAccessStream(context.Background(), models.Identity{UserID: "u1"}, "c1")

	assert.False(t, d.Allowed)
	assert.Equal(t, DenyPurchaseRequired, d.Reason)
}

func TestCanAccessStream_PendingTicket(t *testing.T) {
	r := testResolver(
		&fakeConcerts{concerts: map[string]*models.Concert{"c1": publishedConcert("c1")}},
		&fakeTickets{tickets: map[string]*models.Ticket{"u1/c1": {Status: models.TicketStatusPending}}},
	)

	d := r.CanAccessStream(context.Background(), models.Identity{UserID: "u1"}, "c1")

	assert.False(t, d.Allowed)
	assert.Equal(t, DenyPurchaseRequired, d.Reason)
}

func TestCanAccessStream_PaidTicket(t *testing.T) {
	r := testResolver(
		&fakeConcerts{concerts: map[string]*models.Concert{"c1": publishedConcert("c1")}},
		&fakeTickets{tickets: map[string]*models.Ticket{"u1/c1": {Status: models.TicketStatusPaid}}},
	)

	d := r.CanAccessStream(context.Background(), models.Identity{UserID: "u1"}, "c1")

	assert.True(t, d.Allowed)
}

func TestCanAccessStream_AdminBypass(t *testing.T) {
	r := testResolver(
		&fakeConcerts{concerts: map[string]*models.Concert{"c1": publishedConcert("c1")}},
		&fakeTickets{tickets: map[string]*models.Ticket{}},
	)

	d := r.CanAccessStream(context.Background(), models.Identity{UserID: "admin", Admin: true}, "c1")

	assert.True(t, d.Allowed, "admin needs no ticket")
}

func TestCanAccessStream_StoreFailureFailsClosed(t *testing.T) {
	r := testResolver(
		&fakeConcerts{concerts: map[string]*models.Concert{"c1": publishedConcert("c1")}},
		&fakeTickets{err: errors.New("connection refused")},
	)

	d := r.CanAccessStream(context.Background(), models.Identity{UserID: "u1"}, "c1")

	assert.False(t, d.Allowed)
	assert.Equal(t, DenyPurchaseRequired, d.Reason)
}
