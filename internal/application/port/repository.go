package port

import (
	"context"
	"time"

	"timebill/internal/domain/entity"
)

// TimeEntryFilter narrows time entry listings. Zero values mean "no filter".
type TimeEntryFilter struct {
	UserID    string
	ProjectID string
	ClientID  string
	Start     *time.Time
	End       *time.Time
	Billable  *bool
	// OnlyClosed restricts to entries with a set end time.
	OnlyClosed bool
	// OnlyOpen restricts to running entries.
	OnlyOpen bool
	// WithRelations eager-loads Project and Project.Client.
	WithRelations bool
}

// ExpenseFilter narrows expense listings.
type ExpenseFilter struct {
	UserID    string
	ProjectID string
	ClientID  string
	Start     *time.Time
	End       *time.Time
	Billable  *bool
}

// InvoiceFilter narrows invoice listings. Payments are always eager-loaded.
type InvoiceFilter struct {
	UserID     string
	ClientID   string
	Statuses   []string
	IssueStart *time.Time
	IssueEnd   *time.Time
	DueStart   *time.Time
	DueEnd     *time.Time
}

// TimeEntryRepository defines persistence operations for TimeEntry.
// Get methods return (nil, nil) when no row matches.
type TimeEntryRepository interface {
	// Create inserts a new entry. Inserting a second open entry for the
	// same user fails with billing.ErrOpenTimerExists via the partial
	// unique index on (user_id) WHERE end_time IS NULL.
	Create(ctx context.Context, e *entity.TimeEntry) error
	GetByID(ctx context.Context, id string) (*entity.TimeEntry, error)
	// GetOpenByUserID returns the user's running entry, if any.
	GetOpenByUserID(ctx context.Context, userID string) (*entity.TimeEntry, error)
	List(ctx context.Context, filter TimeEntryFilter) ([]*entity.TimeEntry, error)
	Update(ctx context.Context, e *entity.TimeEntry) error
	SetEndTime(ctx context.Context, id string, end time.Time) error
	Delete(ctx context.Context, id string) error
}

// ExpenseRepository defines persistence operations for Expense.
type ExpenseRepository interface {
	Create(ctx context.Context, x *entity.Expense) error
	GetByID(ctx context.Context, id string) (*entity.Expense, error)
	List(ctx context.Context, filter ExpenseFilter) ([]*entity.Expense, error)
	Update(ctx context.Context, x *entity.Expense) error
	Delete(ctx context.Context, id string) error
}

// ProjectRepository defines persistence operations for Project.
type ProjectRepository interface {
	Create(ctx context.Context, p *entity.Project) error
	GetByID(ctx context.Context, id string) (*entity.Project, error)
	GetByUserID(ctx context.Context, userID string) ([]*entity.Project, error)
	Update(ctx context.Context, p *entity.Project) error
}

// ClientRepository defines persistence operations for Client.
type ClientRepository interface {
	Create(ctx context.Context, c *entity.Client) error
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	GetByUserID(ctx context.Context, userID string) ([]*entity.Client, error)
	Update(ctx context.Context, c *entity.Client) error
}

// InvoiceRepository defines persistence operations for Invoice and its items.
type InvoiceRepository interface {
	// Create inserts the invoice row. A duplicate invoice_number fails with
	// billing.ErrNumberCollision; the builder retries the allocation.
	Create(ctx context.Context, inv *entity.Invoice) error
	CreateItem(ctx context.Context, item *entity.InvoiceItem) error
	// DeleteItems removes all items of an invoice, used by the
	// delete-then-recreate update inside one transaction.
	DeleteItems(ctx context.Context, invoiceID string) error
	// GetByID eager-loads client, items and payments.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)
	Update(ctx context.Context, inv *entity.Invoice) error
	// Delete removes the invoice; items cascade. invoice_id back-references
	// on time entries and expenses are left in place.
	Delete(ctx context.Context, id string) error
	// CountByNumberPrefix counts invoices whose number starts with prefix,
	// used for same-day sequential numbering.
	CountByNumberPrefix(ctx context.Context, prefix string) (int, error)
}

// PaymentRepository defines persistence operations for Payment.
type PaymentRepository interface {
	Create(ctx context.Context, p *entity.Payment) error
	GetByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.Payment, error)
	// ListRecent returns payments on the user's invoices created at or
	// after since, newest first, with Invoice and Invoice.Client loaded.
	ListRecent(ctx context.Context, userID string, since time.Time) ([]*entity.Payment, error)
}

// TransactionManager handles database transactions.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
