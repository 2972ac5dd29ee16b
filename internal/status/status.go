package status

import "errors"

var (
	ErrConcertNotFound  = errors.New("concert: concert not found")
	ErrTicketNotFound   = errors.New("ticket: ticket not found")
	ErrAlreadyPurchased = errors.New("ticket: already purchased")
	ErrNotPurchasable   = errors.New("concert: not purchasable")
	ErrInvalidSignature = errors.New("webhook: invalid signature")
	ErrSessionNotFound  = errors.New("payment: session not found")
	ErrFailedPayment    = errors.New("payment: payment failed")
)
