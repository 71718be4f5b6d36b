package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
)

// Notification types
const (
	NotificationOverdueInvoice  = "overdue_invoice"
	NotificationUpcomingInvoice = "upcoming_invoice"
	NotificationRunningTimer    = "running_timer"
	NotificationPaymentReceived = "payment_received"
)

// upcomingWindow and recentPaymentWindow are the derivation horizons for
// upcoming-due invoices and recently received payments.
const (
	upcomingWindow      = 7 * 24 * time.Hour
	recentPaymentWindow = 48 * time.Hour
)

// Notification is a transient alert derived from current ledger state. There
// is no persisted notification storage; "read" state does not survive the
// request.
type Notification struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	InvoiceID   string    `json:"invoice_id,omitempty"`
	ClientID    string    `json:"client_id,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	TimeEntryID string    `json:"time_entry_id,omitempty"`
	PaymentID   string    `json:"payment_id,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
}

// NotificationCounts breaks the derived list down by type.
type NotificationCounts struct {
	Total    int `json:"total"`
	Overdue  int `json:"overdue"`
	Upcoming int `json:"upcoming"`
	Running  int `json:"running"`
	Payments int `json:"payments"`
}

// NotificationService derives transient alerts from the ledger.
type NotificationService interface {
	// Derive returns the user's alerts sorted descending by each alert's
	// reference timestamp (due date for invoice alerts, start time for
	// timers, creation time for payments).
	Derive(ctx context.Context, userID string, now time.Time) ([]*Notification, *NotificationCounts, error)

	// MarkRead validates the request and acknowledges it. Nothing is
	// persisted; the next Derive call regenerates the full list.
	MarkRead(ctx context.Context, userID string, notificationIDs []string) error
}

type notificationServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	entryRepo   port.TimeEntryRepository
	paymentRepo port.PaymentRepository
	logger      *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	invoiceRepo port.InvoiceRepository,
	entryRepo port.TimeEntryRepository,
	paymentRepo port.PaymentRepository,
	logger *zap.Logger,
) NotificationService {
	return &notificationServiceImpl{
		invoiceRepo: invoiceRepo,
		entryRepo:   entryRepo,
		paymentRepo: paymentRepo,
		logger:      logger,
	}
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}

func (s *notificationServiceImpl) Derive(ctx context.Context, userID string, now time.Time) ([]*Notification, *NotificationCounts, error) {
	overdue, err := s.invoiceRepo.List(ctx, port.InvoiceFilter{
		UserID:   userID,
		Statuses: []string{entity.InvoiceStatusSent, entity.InvoiceStatusOverdue},
		DueEnd:   &now,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list overdue invoices: %w", err)
	}

	windowEnd := now.Add(upcomingWindow)
	upcoming, err := s.invoiceRepo.List(ctx, port.InvoiceFilter{
		UserID:   userID,
		Statuses: []string{entity.InvoiceStatusSent},
		DueStart: &now,
		DueEnd:   &windowEnd,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list upcoming invoices: %w", err)
	}

	running, err := s.entryRepo.List(ctx, port.TimeEntryFilter{
		UserID:        userID,
		OnlyOpen:      true,
		WithRelations: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list running entries: %w", err)
	}

	since := now.Add(-recentPaymentWindow)
	payments, err := s.paymentRepo.ListRecent(ctx, userID, since)
	if err != nil {
		return nil, nil, fmt.Errorf("list recent payments: %w", err)
	}

	notifications := make([]*Notification, 0, len(overdue)+len(upcoming)+len(running)+len(payments))

	for _, inv := range overdue {
		if !inv.DueDate.Before(now) {
			continue
		}
		days := ceilDays(now.Sub(inv.DueDate))
		notifications = append(notifications, &Notification{
			ID:        "overdue-" + inv.ID,
			Type:      NotificationOverdueInvoice,
			Title:     "Overdue Invoice",
			Message:   fmt.Sprintf("Invoice %s for %s is overdue by %d days.", inv.InvoiceNumber, clientName(inv.Client), days),
			InvoiceID: inv.ID,
			ClientID:  inv.ClientID,
			Amount:    billing.FromCents(inv.TotalCents),
			CreatedAt: inv.DueDate,
		})
	}

	for _, inv := range upcoming {
		days := ceilDays(inv.DueDate.Sub(now))
		notifications = append(notifications, &Notification{
			ID:        "upcoming-" + inv.ID,
			Type:      NotificationUpcomingInvoice,
			Title:     "Upcoming Invoice Due",
			Message:   fmt.Sprintf("Invoice %s for %s is due in %d days.", inv.InvoiceNumber, clientName(inv.Client), days),
			InvoiceID: inv.ID,
			ClientID:  inv.ClientID,
			Amount:    billing.FromCents(inv.TotalCents),
			CreatedAt: inv.DueDate,
		})
	}

	for _, e := range running {
		hours := int(now.Sub(e.StartTime).Hours())
		n := &Notification{
			ID:          "running-" + e.ID,
			Type:        NotificationRunningTimer,
			Title:       "Timer Running",
			TimeEntryID: e.ID,
			ProjectID:   e.ProjectID,
			CreatedAt:   e.StartTime,
		}
		if e.Project != nil {
			n.ClientID = e.Project.ClientID
			n.Message = fmt.Sprintf("You have a timer running for %s (%s) for %d hours.",
				e.Project.Name, clientName(e.Project.Client), hours)
		} else {
			n.Message = fmt.Sprintf("You have a timer running for %d hours.", hours)
		}
		notifications = append(notifications, n)
	}

	for _, p := range payments {
		n := &Notification{
			ID:        "payment-" + p.ID,
			Type:      NotificationPaymentReceived,
			Title:     "Payment Received",
			PaymentID: p.ID,
			InvoiceID: p.InvoiceID,
			Amount:    billing.FromCents(p.AmountCents),
			CreatedAt: p.CreatedAt,
		}
		if p.Invoice != nil {
			n.ClientID = p.Invoice.ClientID
			n.Message = fmt.Sprintf("Payment of $%.2f received for invoice %s from %s.",
				billing.FromCents(p.AmountCents), p.Invoice.InvoiceNumber, clientName(p.Invoice.Client))
		} else {
			n.Message = fmt.Sprintf("Payment of $%.2f received.", billing.FromCents(p.AmountCents))
		}
		notifications = append(notifications, n)
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})

	counts := &NotificationCounts{
		Total:    len(notifications),
		Overdue:  len(overdue),
		Upcoming: len(upcoming),
		Running:  len(running),
		Payments: len(payments),
	}

	return notifications, counts, nil
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID string, notificationIDs []string) error {
	var v billing.Validator
	if len(notificationIDs) == 0 {
		v.Fail("notification_ids", "at least one notification id is required")
	}
	if err := v.Err(); err != nil {
		return err
	}

	// Notifications are ephemeral; there is nothing to mark. The request
	// is acknowledged so clients can clear their local state.
	s.logger.Debug("Notifications acknowledged",
		zap.String("user_id", userID),
		zap.Int("count", len(notificationIDs)))
	return nil
}

func clientName(c *entity.Client) string {
	if c == nil {
		return "unknown client"
	}
	return c.Name
}
