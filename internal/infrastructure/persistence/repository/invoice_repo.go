package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
	"timebill/internal/infrastructure/persistence/sqlite"
)

// InvoiceRepository implements port.InvoiceRepository
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

const invoiceColumns = `i.id, i.user_id, i.client_id, i.invoice_number, i.issue_date,
	i.due_date, i.status, i.subtotal_cents, i.tax_cents, i.total_cents,
	i.tax_rate, i.notes, i.created_at, i.updated_at`

// Create inserts the invoice row. A duplicate invoice number surfaces as
// billing.ErrNumberCollision so the builder can retry the allocation.
func (r *InvoiceRepository) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoices (
			id, user_id, client_id, invoice_number, issue_date,
			due_date, status, subtotal_cents, tax_cents, total_cents,
			tax_rate, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		inv.ID,
		inv.UserID,
		inv.ClientID,
		inv.InvoiceNumber,
		inv.IssueDate,
		inv.DueDate,
		inv.Status,
		inv.SubtotalCents,
		inv.TaxCents,
		inv.TotalCents,
		inv.TaxRate,
		inv.Notes,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return billing.ErrNumberCollision
		}
		r.logger.Error("Failed to create invoice",
			zap.String("invoice_id", inv.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

// CreateItem inserts a single invoice line
func (r *InvoiceRepository) CreateItem(ctx context.Context, item *entity.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (
			id, invoice_id, project_id, description, quantity,
			unit_price_cents, amount_cents, item_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		item.ID,
		item.InvoiceID,
		item.ProjectID,
		item.Description,
		item.Quantity,
		item.UnitPriceCents,
		item.AmountCents,
		item.ItemType,
	)
	if err != nil {
		r.logger.Error("Failed to create invoice item",
			zap.String("invoice_id", item.InvoiceID),
			zap.Error(err))
		return fmt.Errorf("failed to create invoice item: %w", err)
	}

	return nil
}

// DeleteItems removes all items of an invoice
func (r *InvoiceRepository) DeleteItems(ctx context.Context, invoiceID string) error {
	query := `DELETE FROM invoice_items WHERE invoice_id = ?`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to delete invoice items",
			zap.String("invoice_id", invoiceID),
			zap.Error(err))
		return fmt.Errorf("failed to delete invoice items: %w", err)
	}

	return nil
}

// GetByID retrieves an invoice with client, items and payments loaded
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `,
		c.id, c.user_id, c.name, c.email, c.phone, c.address, c.notes,
		c.created_at, c.updated_at
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE i.id = ?`

	invoice, err := scanInvoiceWithClient(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice",
			zap.String("invoice_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.Items = items

	payments, err := r.loadPayments(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	invoice.Payments = payments[id]

	return invoice, nil
}

// List retrieves invoices matching the filter with clients and payments
// loaded, newest first
func (r *InvoiceRepository) List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `,
		c.id, c.user_id, c.name, c.email, c.phone, c.address, c.notes,
		c.created_at, c.updated_at
		FROM invoices i
		JOIN clients c ON c.id = i.client_id`

	var conds []string
	var args []interface{}
	if filter.UserID != "" {
		conds = append(conds, "i.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ClientID != "" {
		conds = append(conds, "i.client_id = ?")
		args = append(args, filter.ClientID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := strings.Repeat("?,", len(filter.Statuses))
		conds = append(conds, "i.status IN ("+placeholders[:len(placeholders)-1]+")")
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}
	if filter.IssueStart != nil {
		conds = append(conds, "i.issue_date >= ?")
		args = append(args, *filter.IssueStart)
	}
	if filter.IssueEnd != nil {
		conds = append(conds, "i.issue_date <= ?")
		args = append(args, *filter.IssueEnd)
	}
	if filter.DueStart != nil {
		conds = append(conds, "i.due_date >= ?")
		args = append(args, *filter.DueStart)
	}
	if filter.DueEnd != nil {
		conds = append(conds, "i.due_date <= ?")
		args = append(args, *filter.DueEnd)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY i.issue_date DESC, i.created_at DESC"

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	var ids []string
	for rows.Next() {
		invoice, err := scanInvoiceWithClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
		ids = append(ids, invoice.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		payments, err := r.loadPayments(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, inv := range invoices {
			inv.Payments = payments[inv.ID]
		}
	}

	return invoices, nil
}

// Update rewrites the mutable fields of an invoice. The invoice number is
// allocated once at creation and never changes.
func (r *InvoiceRepository) Update(ctx context.Context, inv *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET client_id = ?, issue_date = ?, due_date = ?, status = ?,
			subtotal_cents = ?, tax_cents = ?, total_cents = ?,
			tax_rate = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		inv.ClientID,
		inv.IssueDate,
		inv.DueDate,
		inv.Status,
		inv.SubtotalCents,
		inv.TaxCents,
		inv.TotalCents,
		inv.TaxRate,
		inv.Notes,
		inv.UpdatedAt,
		inv.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update invoice",
			zap.String("invoice_id", inv.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	return nil
}

// Delete removes an invoice. Items and payments cascade through foreign
// keys; invoice_id back-references on time entries and expenses are plain
// columns and stay as they are.
func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM invoices WHERE id = ?`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete invoice",
			zap.String("invoice_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	return nil
}

// CountByNumberPrefix counts invoices whose number starts with prefix
func (r *InvoiceRepository) CountByNumberPrefix(ctx context.Context, prefix string) (int, error) {
	query := `SELECT COUNT(*) FROM invoices WHERE invoice_number LIKE ?`

	var count int
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, prefix+"%").Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count invoices",
			zap.String("prefix", prefix),
			zap.Error(err))
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	return count, nil
}

func (r *InvoiceRepository) loadItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, project_id, description, quantity,
			unit_price_cents, amount_cents, item_type
		FROM invoice_items
		WHERE invoice_id = ?
		ORDER BY rowid ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to load invoice items",
			zap.String("invoice_id", invoiceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to load invoice items: %w", err)
	}
	defer rows.Close()

	var items []*entity.InvoiceItem
	for rows.Next() {
		var item entity.InvoiceItem
		var projectID sql.NullString
		err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&projectID,
			&item.Description,
			&item.Quantity,
			&item.UnitPriceCents,
			&item.AmountCents,
			&item.ItemType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		if projectID.Valid {
			item.ProjectID = &projectID.String
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

func (r *InvoiceRepository) loadPayments(ctx context.Context, invoiceIDs []string) (map[string][]*entity.Payment, error) {
	placeholders := strings.Repeat("?,", len(invoiceIDs))
	query := `
		SELECT id, invoice_id, amount_cents, date, method, reference, notes, created_at
		FROM payments
		WHERE invoice_id IN (` + placeholders[:len(placeholders)-1] + `)
		ORDER BY date ASC
	`

	args := make([]interface{}, len(invoiceIDs))
	for i, id := range invoiceIDs {
		args[i] = id
	}

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to load payments", zap.Error(err))
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	defer rows.Close()

	payments := make(map[string][]*entity.Payment)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments[payment.InvoiceID] = append(payments[payment.InvoiceID], payment)
	}

	return payments, rows.Err()
}

func scanInvoiceWithClient(s scanner) (*entity.Invoice, error) {
	var invoice entity.Invoice
	var client entity.Client

	err := s.Scan(
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
		return nil, err
	}

	invoice.Client = &client
	return &invoice, nil
}

// getExecutor returns the context transaction or the database handle
func (r *InvoiceRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// Verify interface compliance
var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
