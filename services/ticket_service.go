package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"concert-stream/internal/services/pay"
	"concert-stream/internal/status"
	"concert-stream/models"
	"concert-stream/utils"
)

// ConcertFinder is the slice of the store the ticket service reads.
type ConcertFinder interface {
	FindConcert(ctx context.Context, id string) (*models.Concert, error)
}

// CheckoutClient is the payment processor surface used here.
type CheckoutClient interface {
	CreateSession(ctx context.Context, req pay.CreateSessionRequest) (*pay.Session, error)
	VerifySession(ctx context.Context, sessionID string) (*pay.Session, error)
}

// TicketService owns the entitlement lifecycle: pending on checkout,
// paid on confirmed payment, never back, never deleted.
type TicketService struct {
	concerts ConcertFinder
	tickets  TicketStore
	pay      CheckoutClient
	currency string
	log      *slog.Logger
}

func NewTicketService(concerts ConcertFinder, tickets TicketStore, payClient CheckoutClient, currency string, log *slog.Logger) *TicketService {
	return &TicketService{
		concerts: concerts,
		tickets:  tickets,
		pay:      payClient,
		currency: currency,
		log:      log,
	}
}

// Checkout opens a processor session for one concert and upserts the
// caller's pending ticket. A concert must be published and priced;
// holding a paid ticket already is an error the handler maps to a
// distinct response.
func (s *TicketService) Checkout(ctx context.Context, userID, concertID string) (*pay.Session, error) {
	concert, err := s.concerts.FindConcert(ctx, concertID)
	if err != nil {
		return nil, status.ErrConcertNotFound
	}
	if !concert.Published {
		return nil, status.ErrConcertNotFound
	}
	if concert.Price <= 0 {
		return nil, status.ErrNotPurchasable
	}
	if s.pay == nil {
		s.log.Warn("checkout requested without configured payment processor", "concertID", concertID)
		return nil, status.ErrNotPurchasable
	}

	if existing, err := s.tickets.FindTicket(ctx, userID, concertID); err == nil && existing.Paid() {
		return nil, status.ErrAlreadyPurchased
	}

	reference, err := utils.GenerateCode(8)
	if err != nil {
		return nil, fmt.Errorf("checkout reference: %w", err)
	}

	session, err := s.pay.CreateSession(ctx, pay.CreateSessionRequest{
		UserID:    userID,
		ConcertID: concertID,
		Amount:    decimal.NewFromFloat(concert.Price),
		Currency:  s.currency,
		Reference: reference,
	})
	if err != nil {
		return nil, fmt.Errorf("checkout session: %w", err)
	}

	err = s.tickets.InTransaction(ctx, func(tx TicketStore) error {
		ticket, err := tx.FindTicket(ctx, userID, concertID)
		switch {
		case errors.Is(err, status.ErrTicketNotFound):
			return tx.CreateTicket(ctx, &models.Ticket{
				UserID:    userID,
				ConcertID: concertID,
				Status:    models.TicketStatusPending,
				SessionID: session.ID,
				Amount:    concert.Price,
			})
		case err != nil:
			return err
		case ticket.Paid():
			// A webhook raced us; the purchase already went through.
			return status.ErrAlreadyPurchased
		default:
			ticket.SessionID = session.ID
			ticket.Amount = concert.Price
			return tx.UpdateTicket(ctx, ticket)
		}
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// MarkPaid transitions the (user, concert) entitlement to paid. The
// operation is idempotent: replaying the same confirmation leaves
// exactly one paid row and keeps the first transaction reference and
// paid_at. A missing row (webhook before checkout upsert landed) is
// created directly paid.
func (s *TicketService) MarkPaid(ctx context.Context, userID, concertID, transactionID string) error {
	return s.tickets.InTransaction(ctx, func(tx TicketStore) error {
		ticket, err := tx.FindTicket(ctx, userID, concertID)
		switch {
		case errors.Is(err, status.ErrTicketNotFound):
			now := time.Now().UTC()
			return tx.CreateTicket(ctx, &models.Ticket{
				UserID:        userID,
				ConcertID:     concertID,
				Status:        models.TicketStatusPaid,
				TransactionID: transactionID,
				PaidAt:        &now,
			})
		case err != nil:
			return err
		case ticket.Paid():
			return nil
		default:
			now := time.Now().UTC()
			ticket.Status = models.TicketStatusPaid
			ticket.TransactionID = transactionID
			ticket.PaidAt = &now
			return tx.UpdateTicket(ctx, ticket)
		}
	})
}

// Reconcile answers "has this user paid for this concert", optionally
// verifying a checkout session against the processor when the local row
// is still pending. Verification failures resolve to not purchased; the
// webhook remains the authoritative confirmation path.
func (s *TicketService) Reconcile(ctx context.Context, userID, concertID, sessionID string) bool {
	ticket, err := s.tickets.FindTicket(ctx, userID, concertID)
	if err == nil && ticket.Paid() {
		return true
	}

	if sessionID == "" || s.pay == nil {
		return false
	}

	session, err := s.pay.VerifySession(ctx, sessionID)
	if err != nil {
		s.log.Warn("session verification failed",
			slog.String("session", sessionID),
			slog.String("error", err.Error()))
		return false
	}

	if session.Status != pay.SessionCompleted {
		return false
	}

	if err := s.MarkPaid(ctx, userID, concertID, session.TransactionID); err != nil {
		s.log.Error("mark paid after verification failed",
			slog.String("user", userID),
			slog.String("concert", concertID),
			slog.String("error", err.Error()))
		return false
	}
	return true
}
