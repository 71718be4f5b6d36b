package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
)

func TestInvoiceService_Create(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	clock := fixedClock{now: now}
	logger := zap.NewNop()

	client := &entity.Client{ID: "client-1", UserID: "user-1", Name: "Acme"}
	clientRepo := &mockClientRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Client, error) {
			return client, nil
		},
	}

	validInput := func() InvoiceInput {
		return InvoiceInput{
			ClientID:  "client-1",
			IssueDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			DueDate:   time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC),
			Status:    entity.InvoiceStatusDraft,
			TaxRate:   10,
			Items: []InvoiceItemInput{
				{Description: "Development", Quantity: 2.5, UnitPrice: 50, Type: entity.ItemTypeTime},
			},
		}
	}

	t.Run("computes subtotal, tax and total in cents", func(t *testing.T) {
		var created *entity.Invoice
		invoiceRepo := &mockInvoiceRepo{
			createFunc: func(ctx context.Context, inv *entity.Invoice) error {
				created = inv
				return nil
			},
		}

		svc := NewInvoiceService(invoiceRepo, &mockPaymentRepo{}, clientRepo, immediateTx{}, clock, logger)
		invoice, err := svc.Create(context.Background(), "user-1", validInput())

		require.NoError(t, err)
		require.NotNil(t, created)
		// 2.5 x $50.00 = $125.00, 10% tax = $12.50, total $137.50.
		assert.Equal(t, int64(12500), invoice.SubtotalCents)
		assert.Equal(t, int64(1250), invoice.TaxCents)
		assert.Equal(t, int64(13750), invoice.TotalCents)
		require.Len(t, invoice.Items, 1)
		assert.Equal(t, int64(12500), invoice.Items[0].AmountCents)
	})

	t.Run("accepts items without a project", func(t *testing.T) {
		var items []*entity.InvoiceItem
		invoiceRepo := &mockInvoiceRepo{
			createItemFunc: func(ctx context.Context, item *entity.InvoiceItem) error {
				items = append(items, item)
				return nil
			},
		}

		in := validInput()
		in.Items = []InvoiceItemInput{
			{Description: "Retainer", Quantity: 1, UnitPrice: 500, Type: entity.ItemTypeFixed},
			{Description: "Development", Quantity: 2, UnitPrice: 50, ProjectID: "proj-1", Type: entity.ItemTypeTime},
		}

		svc := NewInvoiceService(invoiceRepo, &mockPaymentRepo{}, clientRepo, immediateTx{}, clock, logger)
		_, err := svc.Create(context.Background(), "user-1", in)

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Nil(t, items[0].ProjectID)
		require.NotNil(t, items[1].ProjectID)
		assert.Equal(t, "proj-1", *items[1].ProjectID)
	})

	t.Run("numbers invoices sequentially per day", func(t *testing.T) {
		count := 0
		invoiceRepo := &mockInvoiceRepo{
			countByNumberPrefixFunc: func(ctx context.Context, prefix string) (int, error) {
				assert.Equal(t, "INV-20250310", prefix)
				return count, nil
			},
			createFunc: func(ctx context.Context, inv *entity.Invoice) error {
				count++
				return nil
			},
		}

		svc := NewInvoiceService(invoiceRepo, &mockPaymentRepo{}, clientRepo, immediateTx{}, clock, logger)

		first, err := svc.Create(context.Background(), "user-1", validInput())
		require.NoError(t, err)
		second, err := svc.Create(context.Background(), "user-1", validInput())
		require.NoError(t, err)

		assert.Equal(t, "INV-20250310-001", first.InvoiceNumber)
		assert.Equal(t, "INV-20250310-002", second.InvoiceNumber)
	})

	t.Run("retries on number collision", func(t *testing.T) {
		attempts := 0
		invoiceRepo := &mockInvoiceRepo{
			countByNumberPrefixFunc: func(ctx context.Context, prefix string) (int, error) {
				return attempts, nil
			},
			createFunc: func(ctx context.Context, inv *entity.Invoice) error {
				attempts++
				if attempts == 1 {
					return billing.ErrNumberCollision
				}
				return nil
			},
		}

		svc := NewInvoiceService(invoiceRepo, &mockPaymentRepo{}, clientRepo, immediateTx{}, clock, logger)
		invoice, err := svc.Create(context.Background(), "user-1", validInput())

		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
		assert.Equal(t, "INV-20250310-002", invoice.InvoiceNumber)
	})

	t.Run("gives up after bounded collision retries", func(t *testing.T) {
		invoiceRepo := &mockInvoiceRepo{
			createFunc: func(ctx context.Context, inv *entity.Invoice) error {
				return billing.ErrNumberCollision
			},
		}

		svc := NewInvoiceService(invoiceRepo, &mockPaymentRepo{}, clientRepo, immediateTx{}, clock, logger)
		_, err := svc.Create(context.Background(), "user-1", validInput())
		assert.ErrorIs(t, err, billing.ErrNumberCollision)
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		in := validInput()
		in.Items = nil

		svc := NewInvoiceService(&mockInvoiceRepo{}, &mockPaymentRepo{}, clientRepo, immediateTx{}, clock, logger)
		_, err := svc.Create(context.Background(), "user-1", in)

		var verr *billing.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "items")
	})

	t.Run("rejects due date before issue date", func(t *testing.T) {
		in := validInput()
		in.DueDate = in.IssueDate.AddDate(0, 0, -1)

		svc := NewInvoiceService(&mockInvoiceRepo{}, &mockPaymentRepo{}, clientRepo, immediateTx{}, clock, logger)
		_, err := svc.Create(context.Background(), "user-1", in)

		var verr *billing.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "due_date")
	})

	t.Run("rejects zero quantity item with indexed field", func(t *testing.T) {
		in := validInput()
		in.Items[0].Quantity = 0

		svc := NewInvoiceService(&mockInvoiceRepo{}, &mockPaymentRepo{}, clientRepo, immediateTx{}, clock, logger)
		_, err := svc.Create(context.Background(), "user-1", in)

		var verr *billing.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "items[0].quantity")
	})

	t.Run("rejects client owned by someone else", func(t *testing.T) {
		otherClientRepo := &mockClientRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.Client, error) {
				return &entity.Client{ID: id, UserID: "user-2"}, nil
			},
		}

		svc := NewInvoiceService(&mockInvoiceRepo{}, &mockPaymentRepo{}, otherClientRepo, immediateTx{}, clock, logger)
		_, err := svc.Create(context.Background(), "user-1", validInput())
		assert.ErrorIs(t, err, billing.ErrNotFound)
	})
}

func TestInvoiceService_Update(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	clock := fixedClock{now: now}
	logger := zap.NewNop()

	existing := func() *entity.Invoice {
		return &entity.Invoice{
			ID:            "inv-1",
			UserID:        "user-1",
			ClientID:      "client-1",
			InvoiceNumber: "INV-20250310-001",
			Status:        entity.InvoiceStatusDraft,
			SubtotalCents: 12500,
			TaxCents:      1250,
			TotalCents:    13750,
		}
	}

	clientRepo := &mockClientRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Client, error) {
			return &entity.Client{ID: id, UserID: "user-1"}, nil
		},
	}

	t.Run("replaces item set and recomputes totals", func(t *testing.T) {
		var deletedFor string
		var newItems int
		invoiceRepo := &mockInvoiceRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.Invoice, error) {
				return existing(), nil
			},
			deleteItemsFunc: func(ctx context.Context, invoiceID string) error {
				deletedFor = invoiceID
				return nil
			},
			createItemFunc: func(ctx context.Context, item *entity.InvoiceItem) error {
				newItems++
				return nil
			},
		}

		svc := NewInvoiceService(invoiceRepo, &mockPaymentRepo{}, clientRepo, immediateTx{}, clock, logger)
		invoice, err := svc.Update(context.Background(), "inv-1", "user-1", InvoiceInput{
			ClientID:  "client-1",
			IssueDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			DueDate:   time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC),
			Status:    entity.InvoiceStatusSent,
			TaxRate:   0,
			Items: []InvoiceItemInput{
				{Description: "Consulting", Quantity: 1, UnitPrice: 200, Type: entity.ItemTypeTime},
				{Description: "Travel", Quantity: 1, UnitPrice: 35.50, Type: entity.ItemTypeExpense},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "inv-1", deletedFor)
		assert.Equal(t, 2, newItems)
		assert.Equal(t, int64(23550), invoice.SubtotalCents)
		assert.Equal(t, int64(0), invoice.TaxCents)
		assert.Equal(t, int64(23550), invoice.TotalCents)
		// The allocated number survives edits.
		assert.Equal(t, "INV-20250310-001", invoice.InvoiceNumber)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		svc := NewInvoiceService(&mockInvoiceRepo{}, &mockPaymentRepo{}, clientRepo, immediateTx{}, clock, logger)
		_, err := svc.Update(context.Background(), "inv-missing", "user-1", InvoiceInput{})
		assert.ErrorIs(t, err, billing.ErrNotFound)
	})
}

func TestInvoiceService_AddPayment(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	clock := fixedClock{now: now}
	logger := zap.NewNop()

	invoiceRepo := &mockInvoiceRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Invoice, error) {
			return &entity.Invoice{ID: id, UserID: "user-1", TotalCents: 13750}, nil
		},
	}

	t.Run("records payment in cents", func(t *testing.T) {
		var created *entity.Payment
		paymentRepo := &mockPaymentRepo{
			createFunc: func(ctx context.Context, p *entity.Payment) error {
				created = p
				return nil
			},
		}

		svc := NewInvoiceService(invoiceRepo, paymentRepo, &mockClientRepo{}, immediateTx{}, clock, logger)
		payment, err := svc.AddPayment(context.Background(), "inv-1", "user-1", PaymentInput{
			Amount: 137.50,
			Date:   now,
			Method: entity.PaymentMethodBankTransfer,
		})

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, int64(13750), payment.AmountCents)
		assert.Equal(t, "inv-1", payment.InvoiceID)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		svc := NewInvoiceService(invoiceRepo, &mockPaymentRepo{}, &mockClientRepo{}, immediateTx{}, clock, logger)
		_, err := svc.AddPayment(context.Background(), "inv-1", "user-1", PaymentInput{
			Amount: 0,
			Date:   now,
			Method: entity.PaymentMethodCash,
		})

		var verr *billing.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "amount")
	})
}
