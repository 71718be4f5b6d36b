package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/entity"
	"timebill/internal/infrastructure/persistence/sqlite"
)

// ClientRepository implements port.ClientRepository
type ClientRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *sql.DB, logger *zap.Logger) port.ClientRepository {
	return &ClientRepository{
		db:     db,
		logger: logger,
	}
}

const clientColumns = `id, user_id, name, email, phone, address, notes, created_at, updated_at`

// Create inserts a new client
func (r *ClientRepository) Create(ctx context.Context, c *entity.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		c.ID,
		c.UserID,
		c.Name,
		c.Email,
		c.Phone,
		c.Address,
		c.Notes,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create client",
			zap.String("client_id", c.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// GetByID retrieves a client by its ID
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = ?`

	client, err := scanClient(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get client",
			zap.String("client_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return client, nil
}

// GetByUserID retrieves all of a user's clients
func (r *ClientRepository) GetByUserID(ctx context.Context, userID string) ([]*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE user_id = ? ORDER BY name ASC`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list clients",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*entity.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}

	return clients, rows.Err()
}

// Update rewrites the mutable fields of a client
func (r *ClientRepository) Update(ctx context.Context, c *entity.Client) error {
	query := `
		UPDATE clients
		SET name = ?, email = ?, phone = ?, address = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		c.Name,
		c.Email,
		c.Phone,
		c.Address,
		c.Notes,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update client",
			zap.String("client_id", c.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update client: %w", err)
	}

	return nil
}

func scanClient(s scanner) (*entity.Client, error) {
	var client entity.Client

	err := s.Scan(
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

	return &client, nil
}

// getExecutor returns the context transaction or the database handle
func (r *ClientRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// Verify interface compliance
var _ port.ClientRepository = (*ClientRepository)(nil)
