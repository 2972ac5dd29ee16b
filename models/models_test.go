package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicket_Paid(t *testing.T) {
	var missing *Ticket
	assert.False(t, missing.Paid())

	pending := &Ticket{Status: TicketStatusPending}
	assert.False(t, pending.Paid())

	paid := &Ticket{Status: TicketStatusPaid}
	assert.True(t, paid.Paid())
}

func TestIdentity_Anonymous(t *testing.T) {
	assert.True(t, Identity{}.Anonymous())
	assert.True(t, Identity{Admin: true}.Anonymous())
	assert.False(t, Identity{UserID: "user-1"}.Anonymous())
}
