package entity

import "time"

// Invoice represents an issued invoice. All monetary fields are stored in
// cents; conversion to display precision happens at the API boundary.
type Invoice struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ClientID      string    `json:"client_id"`
	InvoiceNumber string    `json:"invoice_number"`
	IssueDate     time.Time `json:"issue_date"`
	DueDate       time.Time `json:"due_date"`
	Status        string    `json:"status"`
	SubtotalCents int64     `json:"subtotal_cents"`
	TaxCents      int64     `json:"tax_cents"`
	TotalCents    int64     `json:"total_cents"`
	TaxRate       float64   `json:"tax_rate"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Client   *Client        `json:"client,omitempty"`
	Items    []*InvoiceItem `json:"items,omitempty"`
	Payments []*Payment     `json:"payments,omitempty"`
}

// InvoiceItem is a single invoice line. AmountCents is derived from
// Quantity × UnitPriceCents when the invoice is built.
type InvoiceItem struct {
	ID             string  `json:"id"`
	InvoiceID      string  `json:"invoice_id"`
	ProjectID      *string `json:"project_id,omitempty"`
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	AmountCents    int64   `json:"amount_cents"`
	ItemType       string  `json:"item_type"`
}

// PaidCents returns the sum of payments recorded against the invoice.
// Payments must be eager-loaded.
func (i *Invoice) PaidCents() int64 {
	var paid int64
	for _, p := range i.Payments {
		paid += p.AmountCents
	}
	return paid
}

// OutstandingCents returns the invoice total minus payments received.
func (i *Invoice) OutstandingCents() int64 {
	return i.TotalCents - i.PaidCents()
}
