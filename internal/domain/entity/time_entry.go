package entity

import "time"

// TimeEntry represents a unit of tracked work. An entry with a nil EndTime is
// an open (running) timer; at most one open entry may exist per user.
type TimeEntry struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	ProjectID   string     `json:"project_id"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Billable    bool       `json:"billable"`
	InvoiceID   *string    `json:"invoice_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Project is the eager-loaded owning project, nil unless requested.
	Project *Project `json:"project,omitempty"`
}

// Open reports whether the entry is still running.
func (e *TimeEntry) Open() bool {
	return e.EndTime == nil
}

// Invoiced reports whether the entry is linked to an invoice. Linked entries
// cannot be deleted.
func (e *TimeEntry) Invoiced() bool {
	return e.InvoiceID != nil && *e.InvoiceID != ""
}
