package models

import (
	"time"
)

const (
	TicketStatusPending = "pending"
	TicketStatusPaid    = "paid"
)

// Ticket is the entitlement record tying a user to a concert. At most one
// row exists per (user, concert) pair; rows are never deleted.
type Ticket struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	ConcertID     string     `json:"concert_id"`
	Status        string     `json:"status"` // pending, paid
	SessionID     string     `json:"session_id,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	Amount        float64    `json:"amount"`
	Created       time.Time  `json:"created"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// Paid reports whether the ticket grants stream access.
func (t *Ticket) Paid() bool {
	return t != nil && t.Status == TicketStatusPaid
}
