package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/entity"
	"timebill/internal/infrastructure/persistence/sqlite"
)

// PaymentRepository implements port.PaymentRepository
type PaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) port.PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new payment
func (r *PaymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (
			id, invoice_id, amount_cents, date, method, reference, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		p.ID,
		p.InvoiceID,
		p.AmountCents,
		p.Date,
		p.Method,
		p.Reference,
		p.Notes,
		p.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payment",
			zap.String("payment_id", p.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByInvoiceID retrieves all payments of an invoice, oldest first
func (r *PaymentRepository) GetByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.Payment, error) {
	query := `
		SELECT id, invoice_id, amount_cents, date, method, reference, notes, created_at
		FROM payments
		WHERE invoice_id = ?
		ORDER BY date ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to get payments",
			zap.String("invoice_id", invoiceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

// ListRecent retrieves payments on the user's invoices created at or after
// since, newest first, with invoice and client loaded
func (r *PaymentRepository) ListRecent(ctx context.Context, userID string, since time.Time) ([]*entity.Payment, error) {
	query := `
		SELECT p.id, p.invoice_id, p.amount_cents, p.date, p.method,
			p.reference, p.notes, p.created_at,
			i.id, i.user_id, i.client_id, i.invoice_number, i.issue_date,
			i.due_date, i.status, i.subtotal_cents, i.tax_cents, i.total_cents,
			i.tax_rate, i.notes, i.created_at, i.updated_at,
			c.id, c.user_id, c.name, c.email, c.phone, c.address, c.notes,
			c.created_at, c.updated_at
		FROM payments p
		JOIN invoices i ON i.id = p.invoice_id
		JOIN clients c ON c.id = i.client_id
		WHERE i.user_id = ? AND p.created_at >= ?
		ORDER BY p.created_at DESC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, userID, since)
	if err != nil {
		r.logger.Error("Failed to list recent payments",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list recent payments: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		var payment entity.Payment
		var invoice entity.Invoice
		var client entity.Client

		err := rows.Scan(
			&payment.ID,
			&payment.InvoiceID,
			&payment.AmountCents,
			&payment.Date,
			&payment.Method,
			&payment.Reference,
			&payment.Notes,
			&payment.CreatedAt,
			&invoice.ID,
			&invoice.UserID,
			&invoice.ClientID,
			&invoice.InvoiceNumber,
			&invoice.IssueDate,
			&invoice.DueDate,
			&invoice.Status,
			&invoice.SubtotalCents,
			&invoice.TaxCents,
			&invoice.TotalCents,
			&invoice.TaxRate,
			&invoice.Notes,
			&invoice.CreatedAt,
			&invoice.UpdatedAt,
			&client.ID,
			&client.UserID,
			&client.Name,
			&client.Email,
			&client.Phone,
			&client.Address,
			&client.Notes,
			&client.CreatedAt,
			&client.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}

		invoice.Client = &client
		payment.Invoice = &invoice
		payments = append(payments, &payment)
	}

	return payments, rows.Err()
}

func scanPayment(s scanner) (*entity.Payment, error) {
	var payment entity.Payment

	err := s.Scan(
		&payment.ID,
		&payment.InvoiceID,
		&payment.AmountCents,
		&payment.Date,
		&payment.Method,
		&payment.Reference,
		&payment.Notes,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// getExecutor returns the context transaction or the database handle
func (r *PaymentRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// Verify interface compliance
var _ port.PaymentRepository = (*PaymentRepository)(nil)
