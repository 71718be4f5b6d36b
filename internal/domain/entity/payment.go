package entity

import "time"

// Payment records money received against an invoice. Payments are created
// independently and never mutated or deleted.
type Payment struct {
	ID          string    `json:"id"`
	InvoiceID   string    `json:"invoice_id"`
	AmountCents int64     `json:"amount_cents"`
	Date        time.Time `json:"date"`
	Method      string    `json:"method"`
	Reference   string    `json:"reference,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	Invoice *Invoice `json:"invoice,omitempty"`
}
