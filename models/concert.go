package models

import (
	"time"
)

type Concert struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	StartTime  time.Time `json:"start_time"`
	Published  bool      `json:"published"`
	Price      float64   `json:"price"`
	ProductRef string    `json:"product_ref,omitempty"`
	PriceRef   string    `json:"price_ref,omitempty"`
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`

	Translations []ConcertTranslation `json:"translations,omitempty"`
	Program      []ProgramPiece       `json:"program,omitempty"`
}

type ConcertTranslation struct {
	ID          string `json:"id"`
	ConcertID   string `json:"concert_id"`
	Locale      string `json:"locale"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Venue       string `json:"venue"`
}

type ProgramPiece struct {
	ID        string `json:"id"`
	ConcertID string `json:"concert_id"`
	Position  int    `json:"position"`
	Composer  string `json:"composer"`
	Work      string `json:"work"`
}
