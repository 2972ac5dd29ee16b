package models

import (
	"time"
)

const (
	ReportStatusOpen     = "open"
	ReportStatusResolved = "resolved"
)

// SupportReport is a user-submitted diagnostic record. The flags snapshot
// what the client observed at submission time. Reports are never deleted;
// only administrators resolve them.
type SupportReport struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id,omitempty"`
	Email      string     `json:"email"`
	Category   string     `json:"category"`
	Message    string     `json:"message"`
	Live       bool       `json:"live"`
	EverLive   bool       `json:"ever_live"`
	WindowOpen bool       `json:"window_open"`
	Purchased  bool       `json:"purchased"`
	Status     string     `json:"status"` // open, resolved
	Created    time.Time  `json:"created"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
