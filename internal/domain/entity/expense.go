package entity

import "time"

// Expense represents a project expense, optionally billable to the client.
type Expense struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProjectID   string    `json:"project_id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Date        time.Time `json:"date"`
	Receipt     string    `json:"receipt,omitempty"`
	Billable    bool      `json:"billable"`
	InvoiceID   *string   `json:"invoice_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Project *Project `json:"project,omitempty"`
}

// Invoiced reports whether the expense is linked to an invoice.
func (e *Expense) Invoiced() bool {
	return e.InvoiceID != nil && *e.InvoiceID != ""
}
