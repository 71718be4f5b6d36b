package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/entity"
	"timebill/internal/infrastructure/persistence/sqlite"
)

// ExpenseRepository implements port.ExpenseRepository
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

const expenseColumns = `x.id, x.user_id, x.project_id, x.description, x.amount_cents,
	x.date, x.receipt, x.billable, x.invoice_id, x.created_at, x.updated_at`

// Create inserts a new expense
func (r *ExpenseRepository) Create(ctx context.Context, x *entity.Expense) error {
	query := `
		INSERT INTO expenses (
			id, user_id, project_id, description, amount_cents,
			date, receipt, billable, invoice_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		x.ID,
		x.UserID,
		x.ProjectID,
		x.Description,
		x.AmountCents,
		x.Date,
		x.Receipt,
		x.Billable,
		x.InvoiceID,
		x.CreatedAt,
		x.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense",
			zap.String("expense_id", x.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// GetByID retrieves an expense by its ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses x WHERE x.id = ?`

	expense, err := scanExpense(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense",
			zap.String("expense_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// List retrieves expenses matching the filter, newest first
func (r *ExpenseRepository) List(ctx context.Context, filter port.ExpenseFilter) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses x
		JOIN projects p ON p.id = x.project_id`

	var conds []string
	var args []interface{}
	if filter.UserID != "" {
		conds = append(conds, "x.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ProjectID != "" {
		conds = append(conds, "x.project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.ClientID != "" {
		conds = append(conds, "p.client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.Start != nil {
		conds = append(conds, "x.date >= ?")
		args = append(args, *filter.Start)
	}
	if filter.End != nil {
		conds = append(conds, "x.date <= ?")
		args = append(args, *filter.End)
	}
	if filter.Billable != nil {
		conds = append(conds, "x.billable = ?")
		args = append(args, *filter.Billable)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY x.date DESC"

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

// Update rewrites the mutable fields of an expense
func (r *ExpenseRepository) Update(ctx context.Context, x *entity.Expense) error {
	query := `
		UPDATE expenses
		SET project_id = ?, description = ?, amount_cents = ?, date = ?,
			receipt = ?, billable = ?, invoice_id = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		x.ProjectID,
		x.Description,
		x.AmountCents,
		x.Date,
		x.Receipt,
		x.Billable,
		x.InvoiceID,
		x.UpdatedAt,
		x.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update expense",
			zap.String("expense_id", x.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update expense: %w", err)
	}

	return nil
}

// Delete removes an expense
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM expenses WHERE id = ?`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete expense",
			zap.String("expense_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	return nil
}

func scanExpense(s scanner) (*entity.Expense, error) {
	var expense entity.Expense
	var invoiceID sql.NullString

	err := s.Scan(
		&expense.ID,
		&expense.UserID,
		&expense.ProjectID,
		&expense.Description,
		&expense.AmountCents,
		&expense.Date,
		&expense.Receipt,
		&expense.Billable,
		&invoiceID,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if invoiceID.Valid {
		expense.InvoiceID = &invoiceID.String
	}

	return &expense, nil
}

// getExecutor returns the context transaction or the database handle
func (r *ExpenseRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// Verify interface compliance
var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
