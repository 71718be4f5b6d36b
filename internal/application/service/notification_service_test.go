package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
)

func TestNotificationService_Derive(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	logger := zap.NewNop()
	acme := &entity.Client{ID: "client-1", Name: "Acme"}

	overdueInv := &entity.Invoice{
		ID:            "inv-overdue",
		UserID:        "user-1",
		ClientID:      "client-1",
		InvoiceNumber: "INV-20250301-001",
		Status:        entity.InvoiceStatusSent,
		DueDate:       now.AddDate(0, 0, -1),
		TotalCents:    50000,
		Client:        acme,
	}
	upcomingInv := &entity.Invoice{
		ID:            "inv-upcoming",
		UserID:        "user-1",
		ClientID:      "client-1",
		InvoiceNumber: "INV-20250308-001",
		Status:        entity.InvoiceStatusSent,
		DueDate:       now.AddDate(0, 0, 3),
		TotalCents:    20000,
		Client:        acme,
	}

	invoiceRepo := &mockInvoiceRepo{
		listFunc: func(ctx context.Context, f port.InvoiceFilter) ([]*entity.Invoice, error) {
			if f.DueStart == nil {
				return []*entity.Invoice{overdueInv}, nil
			}
			return []*entity.Invoice{upcomingInv}, nil
		},
	}

	runningStart := now.Add(-5*time.Hour - 20*time.Minute)
	entryRepo := &mockEntryRepo{
		listFunc: func(ctx context.Context, f port.TimeEntryFilter) ([]*entity.TimeEntry, error) {
			assert.True(t, f.OnlyOpen)
			return []*entity.TimeEntry{{
				ID:        "entry-run",
				UserID:    "user-1",
				ProjectID: "proj-1",
				StartTime: runningStart,
				Project:   &entity.Project{ID: "proj-1", Name: "Website", ClientID: "client-1", Client: acme},
			}}, nil
		},
	}

	paymentRepo := &mockPaymentRepo{
		listRecentFunc: func(ctx context.Context, userID string, since time.Time) ([]*entity.Payment, error) {
			return []*entity.Payment{{
				ID:          "pay-1",
				InvoiceID:   "inv-paid",
				AmountCents: 13750,
				CreatedAt:   now.Add(-2 * time.Hour),
				Invoice:     &entity.Invoice{ID: "inv-paid", ClientID: "client-1", InvoiceNumber: "INV-20250302-001", Client: acme},
			}}, nil
		},
	}

	svc := NewNotificationService(invoiceRepo, entryRepo, paymentRepo, logger)
	notifications, counts, err := svc.Derive(context.Background(), "user-1", now)
	require.NoError(t, err)

	assert.Equal(t, 4, counts.Total)
	assert.Equal(t, 1, counts.Overdue)
	assert.Equal(t, 1, counts.Upcoming)
	assert.Equal(t, 1, counts.Running)
	assert.Equal(t, 1, counts.Payments)

	require.Len(t, notifications, 4)
	for i := 1; i < len(notifications); i++ {
		assert.False(t, notifications[i-1].CreatedAt.Before(notifications[i].CreatedAt),
			"notifications must be sorted newest first")
	}

	byID := make(map[string]*Notification)
	for _, n := range notifications {
		byID[n.ID] = n
	}

	overdue := byID["overdue-inv-overdue"]
	require.NotNil(t, overdue)
	assert.Equal(t, NotificationOverdueInvoice, overdue.Type)
	assert.Equal(t, "Invoice INV-20250301-001 for Acme is overdue by 1 days.", overdue.Message)
	assert.Equal(t, 500.0, overdue.Amount)
	assert.False(t, overdue.Read)

	upcoming := byID["upcoming-inv-upcoming"]
	require.NotNil(t, upcoming)
	assert.Equal(t, "Invoice INV-20250308-001 for Acme is due in 3 days.", upcoming.Message)
	assert.Equal(t, upcomingInv.DueDate, upcoming.CreatedAt)

	running := byID["running-entry-run"]
	require.NotNil(t, running)
	assert.Equal(t, "You have a timer running for Website (Acme) for 5 hours.", running.Message)
	assert.Equal(t, runningStart, running.CreatedAt)

	payment := byID["payment-pay-1"]
	require.NotNil(t, payment)
	assert.Equal(t, "Payment of $137.50 received for invoice INV-20250302-001 from Acme.", payment.Message)
}

func TestNotificationService_Derive_Empty(t *testing.T) {
	svc := NewNotificationService(&mockInvoiceRepo{}, &mockEntryRepo{}, &mockPaymentRepo{}, zap.NewNop())
	notifications, counts, err := svc.Derive(context.Background(), "user-1", time.Now())
	require.NoError(t, err)
	assert.Empty(t, notifications)
	assert.Equal(t, 0, counts.Total)
}

func TestNotificationService_MarkRead(t *testing.T) {
	svc := NewNotificationService(&mockInvoiceRepo{}, &mockEntryRepo{}, &mockPaymentRepo{}, zap.NewNop())

	t.Run("acknowledges ids", func(t *testing.T) {
		err := svc.MarkRead(context.Background(), "user-1", []string{"overdue-inv-1"})
		assert.NoError(t, err)
	})

	t.Run("rejects empty list", func(t *testing.T) {
		err := svc.MarkRead(context.Background(), "user-1", nil)
		var verr *billing.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "notification_ids")
	})
}
