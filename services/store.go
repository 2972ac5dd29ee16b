package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"concert-stream/internal/status"
	"concert-stream/models"
)

// Collection names.
const (
	CollectionConcerts     = "concerts"
	CollectionTranslations = "concert_translations"
	CollectionProgram      = "program_pieces"
	CollectionTickets      = "tickets"
	CollectionSupport      = "support_reports"
)

// TicketStore is the persistence surface the ticket service needs. The
// narrow interface keeps the idempotent paid-transition testable without
// a database.
type TicketStore interface {
	FindTicket(ctx context.Context, userID, concertID string) (*models.Ticket, error)
	CreateTicket(ctx context.Context, t *models.Ticket) error
	UpdateTicket(ctx context.Context, t *models.Ticket) error
	InTransaction(ctx context.Context, fn func(TicketStore) error) error
}

// Store is the PocketBase-backed data access layer.
type Store struct {
	app core.App
}

func NewStore(app core.App) *Store {
	return &Store{app: app}
}

// FindConcert loads a concert by id. Absent concerts report
// status.ErrConcertNotFound.
func (s *Store) FindConcert(_ context.Context, id string) (*models.Concert, error) {
	record, err := s.app.FindRecordById(CollectionConcerts, id)
	if err != nil {
		return nil, status.ErrConcertNotFound
	}
	return concertFromRecord(record), nil
}

// ListPublishedConcerts returns published concerts ordered by start time.
func (s *Store) ListPublishedConcerts(_ context.Context) ([]*models.Concert, error) {
	records, err := s.app.FindRecordsByFilter(
		CollectionConcerts,
		"published = true",
		"start_time",
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("list concerts: %w", err)
	}

	concerts := make([]*models.Concert, 0, len(records))
	for _, r := range records {
		concerts = append(concerts, concertFromRecord(r))
	}
	return concerts, nil
}

// ConcertTranslations returns all translations for a concert.
func (s *Store) ConcertTranslations(_ context.Context, concertID string) ([]models.ConcertTranslation, error) {
	records, err := s.app.FindAllRecords(CollectionTranslations, dbx.HashExp{"concert": concertID})
	if err != nil {
		return nil, fmt.Errorf("concert translations: %w", err)
	}

	translations := make([]models.ConcertTranslation, 0, len(records))
	for _, r := range records {
		translations = append(translations, models.ConcertTranslation{
			ID:          r.Id,
			ConcertID:   r.GetString("concert"),
			Locale:      r.GetString("locale"),
			Title:       r.GetString("title"),
			Description: r.GetString("description"),
			Venue:       r.GetString("venue"),
		})
	}
	return translations, nil
}

// ProgramPieces returns a concert's program ordered by position.
func (s *Store) ProgramPieces(_ context.Context, concertID string) ([]models.ProgramPiece, error) {
	records, err := s.app.FindAllRecords(CollectionProgram, dbx.HashExp{"concert": concertID})
	if err != nil {
		return nil, fmt.Errorf("program pieces: %w", err)
	}

	pieces := make([]models.ProgramPiece, 0, len(records))
	for _, r := range records {
		pieces = append(pieces, models.ProgramPiece{
			ID:        r.Id,
			ConcertID: r.GetString("concert"),
			Position:  int(r.GetFloat("position")),
			Composer:  r.GetString("composer"),
			Work:      r.GetString("work"),
		})
	}
	sort.Slice(pieces, func(i, j int) bool { return pieces[i].Position < pieces[j].Position })
	return pieces, nil
}

// SaveConcert creates or fully replaces a concert together with its
// translations and program, in one transaction. Existing translations
// and program rows are dropped and re-inserted; edits are never partial.
func (s *Store) SaveConcert(ctx context.Context, c *models.Concert) (string, error) {
	err := s.app.RunInTransaction(func(txApp core.App) error {
		var record *core.Record
		if c.ID != "" {
			var err error
			record, err = txApp.FindRecordById(CollectionConcerts, c.ID)
			if err != nil {
				return status.ErrConcertNotFound
			}
		} else {
			collection, err := txApp.FindCollectionByNameOrId(CollectionConcerts)
			if err != nil {
				return err
			}
			record = core.NewRecord(collection)
		}

		record.Set("title", c.Title)
		record.Set("start_time", c.StartTime.UTC())
		record.Set("published", c.Published)
		record.Set("price", c.Price)
		record.Set("product_ref", c.ProductRef)
		record.Set("price_ref", c.PriceRef)
		if err := txApp.Save(record); err != nil {
			return err
		}
		c.ID = record.Id

		for _, collection := range []string{CollectionTranslations, CollectionProgram} {
			owned, err := txApp.FindAllRecords(collection, dbx.HashExp{"concert": c.ID})
			if err != nil {
				return err
			}
			for _, r := range owned {
				if err := txApp.Delete(r); err != nil {
					return err
				}
			}
		}

		trCollection, err := txApp.FindCollectionByNameOrId(CollectionTranslations)
		if err != nil {
			return err
		}
		for _, tr := range c.Translations {
			r := core.NewRecord(trCollection)
			r.Set("concert", c.ID)
			r.Set("locale", tr.Locale)
			r.Set("title", tr.Title)
			r.Set("description", tr.Description)
			r.Set("venue", tr.Venue)
			if err := txApp.Save(r); err != nil {
				return err
			}
		}

		prCollection, err := txApp.FindCollectionByNameOrId(CollectionProgram)
		if err != nil {
			return err
		}
		for i, piece := range c.Program {
			r := core.NewRecord(prCollection)
			r.Set("concert", c.ID)
			r.Set("position", i)
			r.Set("composer", piece.Composer)
			r.Set("work", piece.Work)
			if err := txApp.Save(r); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// DeleteConcert removes a concert; translations and program entries
// cascade via their relation fields.
func (s *Store) DeleteConcert(_ context.Context, id string) error {
	record, err := s.app.FindRecordById(CollectionConcerts, id)
	if err != nil {
		return status.ErrConcertNotFound
	}
	return s.app.Delete(record)
}

// FindTicket looks up the single entitlement row for (user, concert).
func (s *Store) FindTicket(_ context.Context, userID, concertID string) (*models.Ticket, error) {
	records, err := s.app.FindAllRecords(CollectionTickets, dbx.HashExp{
		"user":    userID,
		"concert": concertID,
	})
	if err != nil {
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	if len(records) == 0 {
		return nil, status.ErrTicketNotFound
	}
	return ticketFromRecord(records[0]), nil
}

func (s *Store) CreateTicket(_ context.Context, t *models.Ticket) error {
	collection, err := s.app.FindCollectionByNameOrId(CollectionTickets)
	if err != nil {
		return err
	}

	record := core.NewRecord(collection)
	applyTicket(record, t)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	t.ID = record.Id
	return nil
}

func (s *Store) UpdateTicket(_ context.Context, t *models.Ticket) error {
	record, err := s.app.FindRecordById(CollectionTickets, t.ID)
	if err != nil {
		return status.ErrTicketNotFound
	}
	applyTicket(record, t)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	return nil
}

// InTransaction runs fn against a transactional view of the store.
func (s *Store) InTransaction(ctx context.Context, fn func(TicketStore) error) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		return fn(NewStore(txApp))
	})
}

// CreateReport persists a new support report in open status.
func (s *Store) CreateReport(_ context.Context, report *models.SupportReport) error {
	collection, err := s.app.FindCollectionByNameOrId(CollectionSupport)
	if err != nil {
		return err
	}

	record := core.NewRecord(collection)
	record.Set("user", report.UserID)
	record.Set("email", report.Email)
	record.Set("category", report.Category)
	record.Set("message", report.Message)
	record.Set("live", report.Live)
	record.Set("ever_live", report.EverLive)
	record.Set("window_open", report.WindowOpen)
	record.Set("purchased", report.Purchased)
	record.Set("status", models.ReportStatusOpen)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	report.ID = record.Id
	report.Status = models.ReportStatusOpen
	return nil
}

// ListReports returns support reports, newest first, optionally filtered
// by status.
func (s *Store) ListReports(_ context.Context, statusFilter string) ([]*models.SupportReport, error) {
	filter := "id != ''"
	params := dbx.Params{}
	if statusFilter != "" {
		filter = "status = {:status}"
		params["status"] = statusFilter
	}

	records, err := s.app.FindRecordsByFilter(CollectionSupport, filter, "-created", 0, 0, params)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	reports := make([]*models.SupportReport, 0, len(records))
	for _, r := range records {
		reports = append(reports, reportFromRecord(r))
	}
	return reports, nil
}

// ResolveReport transitions a report to resolved and stamps resolved_at.
// Resolving an already resolved report keeps the original timestamp.
func (s *Store) ResolveReport(_ context.Context, id string, now time.Time) (*models.SupportReport, error) {
	record, err := s.app.FindRecordById(CollectionSupport, id)
	if err != nil {
		return nil, errors.New("support report not found")
	}

	if record.GetString("status") != models.ReportStatusResolved {
		record.Set("status", models.ReportStatusResolved)
		record.Set("resolved_at", now.UTC())
		if err := s.app.Save(record); err != nil {
			return nil, fmt.Errorf("resolve report: %w", err)
		}
	}

	return reportFromRecord(record), nil
}

func concertFromRecord(r *core.Record) *models.Concert {
	return &models.Concert{
		ID:         r.Id,
		Title:      r.GetString("title"),
		StartTime:  r.GetDateTime("start_time").Time(),
		Published:  r.GetBool("published"),
		Price:      r.GetFloat("price"),
		ProductRef: r.GetString("product_ref"),
		PriceRef:   r.GetString("price_ref"),
		Created:    r.GetDateTime("created").Time(),
		Updated:    r.GetDateTime("updated").Time(),
	}
}

func ticketFromRecord(r *core.Record) *models.Ticket {
	t := &models.Ticket{
		ID:            r.Id,
		UserID:        r.GetString("user"),
		ConcertID:     r.GetString("concert"),
		Status:        r.GetString("status"),
		SessionID:     r.GetString("session_id"),
		TransactionID: r.GetString("transaction_id"),
		Amount:        r.GetFloat("amount"),
		Created:       r.GetDateTime("created").Time(),
	}
	if paidAt := r.GetDateTime("paid_at").Time(); !paidAt.IsZero() {
		t.PaidAt = &paidAt
	}
	return t
}

func applyTicket(record *core.Record, t *models.Ticket) {
	record.Set("user", t.UserID)
	record.Set("concert", t.ConcertID)
	record.Set("status", t.Status)
	record.Set("session_id", t.SessionID)
	record.Set("transaction_id", t.TransactionID)
	record.Set("amount", t.Amount)
	if t.PaidAt != nil {
		record.Set("paid_at", t.PaidAt.UTC())
	}
}

func reportFromRecord(r *core.Record) *models.SupportReport {
	report := &models.SupportReport{
		ID:         r.Id,
		UserID:     r.GetString("user"),
		Email:      r.GetString("email"),
		Category:   r.GetString("category"),
		Message:    r.GetString("message"),
		Live:       r.GetBool("live"),
		EverLive:   r.GetBool("ever_live"),
		WindowOpen: r.GetBool("window_open"),
		Purchased:  r.GetBool("purchased"),
		Status:     r.GetString("status"),
		Created:    r.GetDateTime("created").Time(),
	}
	if resolved := r.GetDateTime("resolved_at").Time(); !resolved.IsZero() {
		report.ResolvedAt = &resolved
	}
	return report
}
