package services

import (
	"context"
	"time"

	"concert-stream/internal/status"
	"concert-stream/models"
)

// ConcertView is a concert localized for one requested locale.
type ConcertView struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Venue       string                `json:"venue,omitempty"`
	Locale      string                `json:"locale"`
	StartTime   time.Time             `json:"start_time"`
	Published   bool                  `json:"published"`
	Price       float64               `json:"price,omitempty"`
	Program     []models.ProgramPiece `json:"program,omitempty"`
}

// ConcertService serves the localized catalog. Requested locale wins,
// then the deployment default, then the concert's canonical title.
type ConcertService struct {
	store         *Store
	defaultLocale string
}

func NewConcertService(store *Store, defaultLocale string) *ConcertService {
	return &ConcertService{store: store, defaultLocale: defaultLocale}
}

// List returns all published concerts localized for locale, ordered by
// start time.
func (s *ConcertService) List(ctx context.Context, locale string) ([]*ConcertView, error) {
	concerts, err := s.store.ListPublishedConcerts(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*ConcertView, 0, len(concerts))
	for _, c := range concerts {
		translations, err := s.store.ConcertTranslations(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, s.localize(c, translations, nil, locale))
	}
	return views, nil
}

// Get returns one concert with its program. Drafts are only visible
// when includeDraft is set (admin callers).
func (s *ConcertService) Get(ctx context.Context, id, locale string, includeDraft bool) (*ConcertView, error) {
	concert, err := s.store.FindConcert(ctx, id)
	if err != nil {
		return nil, err
	}
	if !concert.Published && !includeDraft {
		// Drafts look absent to non-admin callers.
		return nil, status.ErrConcertNotFound
	}

	translations, err := s.store.ConcertTranslations(ctx, id)
	if err != nil {
		return nil, err
	}
	program, err := s.store.ProgramPieces(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.localize(concert, translations, program, locale), nil
}

func (s *ConcertService) localize(c *models.Concert, translations []models.ConcertTranslation, program []models.ProgramPiece, locale string) *ConcertView {
	if locale == "" {
		locale = s.defaultLocale
	}

	view := &ConcertView{
		ID:        c.ID,
		Title:     c.Title,
		Locale:    locale,
		StartTime: c.StartTime,
		Published: c.Published,
		Price:     c.Price,
		Program:   program,
	}

	pick := func(loc string) *models.ConcertTranslation {
		for i := range translations {
			if translations[i].Locale == loc {
				return &translations[i]
			}
		}
		return nil
	}

	tr := pick(locale)
	if tr == nil {
		tr = pick(s.defaultLocale)
	}
	if tr != nil {
		view.Locale = tr.Locale
		if tr.Title != "" {
			view.Title = tr.Title
		}
		view.Description = tr.Description
		view.Venue = tr.Venue
	}

	return view
}
