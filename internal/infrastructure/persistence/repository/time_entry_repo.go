package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
	"timebill/internal/infrastructure/persistence/sqlite"
)

// TimeEntryRepository implements port.TimeEntryRepository
type TimeEntryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTimeEntryRepository creates a new time entry repository
func NewTimeEntryRepository(db *sql.DB, logger *zap.Logger) port.TimeEntryRepository {
	return &TimeEntryRepository{
		db:     db,
		logger: logger,
	}
}

const entryColumns = `e.id, e.user_id, e.project_id, e.description, e.start_time,
	e.end_time, e.billable, e.invoice_id, e.created_at, e.updated_at`

// Create inserts a new time entry. The partial unique index on open entries
// rejects a second running timer for the same user.
func (r *TimeEntryRepository) Create(ctx context.Context, e *entity.TimeEntry) error {
	query := `
		INSERT INTO time_entries (
			id, user_id, project_id, description, start_time,
			end_time, billable, invoice_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		e.ID,
		e.UserID,
		e.ProjectID,
		e.Description,
		e.StartTime,
		e.EndTime,
		e.Billable,
		e.InvoiceID,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return billing.ErrOpenTimerExists
		}
		r.logger.Error("Failed to create time entry",
			zap.String("entry_id", e.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create time entry: %w", err)
	}

	return nil
}

// GetByID retrieves a time entry by its ID
func (r *TimeEntryRepository) GetByID(ctx context.Context, id string) (*entity.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries e WHERE e.id = ?`

	entry, err := scanEntry(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get time entry",
			zap.String("entry_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get time entry: %w", err)
	}

	return entry, nil
}

// GetOpenByUserID retrieves the user's running entry, if any
func (r *TimeEntryRepository) GetOpenByUserID(ctx context.Context, userID string) (*entity.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries e
		WHERE e.user_id = ? AND e.end_time IS NULL`

	entry, err := scanEntry(r.getExecutor(ctx).QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get open time entry",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get open time entry: %w", err)
	}

	return entry, nil
}

// List retrieves time entries matching the filter, newest first
func (r *TimeEntryRepository) List(ctx context.Context, filter port.TimeEntryFilter) ([]*entity.TimeEntry, error) {
	columns := entryColumns
	if filter.WithRelations {
		columns += `,
			p.id, p.user_id, p.client_id, p.name, p.description, p.status,
			p.hourly_rate_cents, p.created_at, p.updated_at,
			c.id, c.user_id, c.name, c.email, c.phone, c.address, c.notes,
			c.created_at, c.updated_at`
	}

	query := `SELECT ` + columns + ` FROM time_entries e
		JOIN projects p ON p.id = e.project_id
		JOIN clients c ON c.id = p.client_id`

	var conds []string
	var args []interface{}
	if filter.UserID != "" {
		conds = append(conds, "e.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ProjectID != "" {
		conds = append(conds, "e.project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.ClientID != "" {
		conds = append(conds, "p.client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.Start != nil {
		conds = append(conds, "e.start_time >= ?")
		args = append(args, *filter.Start)
	}
	if filter.End != nil {
		conds = append(conds, "e.start_time <= ?")
		args = append(args, *filter.End)
	}
	if filter.Billable != nil {
		conds = append(conds, "e.billable = ?")
		args = append(args, *filter.Billable)
	}
	if filter.OnlyClosed {
		conds = append(conds, "e.end_time IS NOT NULL")
	}
	if filter.OnlyOpen {
		conds = append(conds, "e.end_time IS NULL")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY e.start_time DESC"

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list time entries", zap.Error(err))
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.TimeEntry
	for rows.Next() {
		var entry *entity.TimeEntry
		if filter.WithRelations {
			entry, err = scanEntryWithRelations(rows)
		} else {
			entry, err = scanEntry(rows)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Update rewrites the mutable fields of a time entry. Clearing end_time
// reopens the entry, so the partial unique index applies here as in Create.
func (r *TimeEntryRepository) Update(ctx context.Context, e *entity.TimeEntry) error {
	query := `
		UPDATE time_entries
		SET project_id = ?, description = ?, start_time = ?, end_time = ?,
			billable = ?, invoice_id = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		e.ProjectID,
		e.Description,
		e.StartTime,
		e.EndTime,
		e.Billable,
		e.InvoiceID,
		e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return billing.ErrOpenTimerExists
		}
		r.logger.Error("Failed to update time entry",
			zap.String("entry_id", e.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update time entry: %w", err)
	}

	return nil
}

// SetEndTime closes a running entry
func (r *TimeEntryRepository) SetEndTime(ctx context.Context, id string, end time.Time) error {
	query := `UPDATE time_entries SET end_time = ?, updated_at = ? WHERE id = ?`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query, end, end, id)
	if err != nil {
		r.logger.Error("Failed to set end time",
			zap.String("entry_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to set end time: %w", err)
	}

	return nil
}

// Delete removes a time entry
func (r *TimeEntryRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM time_entries WHERE id = ?`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete time entry",
			zap.String("entry_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to delete time entry: %w", err)
	}

	return nil
}

// scanner covers *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*entity.TimeEntry, error) {
	var entry entity.TimeEntry
	var endTime sql.NullTime
	var invoiceID sql.NullString

	err := s.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.ProjectID,
		&entry.Description,
		&entry.StartTime,
		&endTime,
		&entry.Billable,
		&invoiceID,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		entry.EndTime = &endTime.Time
	}
	if invoiceID.Valid {
		entry.InvoiceID = &invoiceID.String
	}

	return &entry, nil
}

func scanEntryWithRelations(s scanner) (*entity.TimeEntry, error) {
	var entry entity.TimeEntry
	var endTime sql.NullTime
	var invoiceID sql.NullString
	var project entity.Project
	var client entity.Client

	err := s.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.ProjectID,
		&entry.Description,
		&entry.StartTime,
		&endTime,
		&entry.Billable,
		&invoiceID,
		&entry.CreatedAt,
		&entry.UpdatedAt,
		&project.ID,
		&project.UserID,
		&project.ClientID,
		&project.Name,
		&project.Description,
		&project.Status,
		&project.HourlyRateCents,
		&project.CreatedAt,
		&project.UpdatedAt,
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

	if endTime.Valid {
		entry.EndTime = &endTime.Time
	}
	if invoiceID.Valid {
		entry.InvoiceID = &invoiceID.String
	}
	project.Client = &client
	entry.Project = &project

	return &entry, nil
}

// isUniqueViolation reports whether err is a sqlite unique constraint error
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// getExecutor returns the context transaction or the database handle
func (r *TimeEntryRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// Verify interface compliance
var _ port.TimeEntryRepository = (*TimeEntryRepository)(nil)
