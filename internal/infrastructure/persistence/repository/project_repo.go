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

// ProjectRepository implements port.ProjectRepository
type ProjectRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB, logger *zap.Logger) port.ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

const projectColumns = `p.id, p.user_id, p.client_id, p.name, p.description,
	p.status, p.hourly_rate_cents, p.created_at, p.updated_at`

// Create inserts a new project
func (r *ProjectRepository) Create(ctx context.Context, p *entity.Project) error {
	query := `
		INSERT INTO projects (
			id, user_id, client_id, name, description,
			status, hourly_rate_cents, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		p.ID,
		p.UserID,
		p.ClientID,
		p.Name,
		p.Description,
		p.Status,
		p.HourlyRateCents,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create project",
			zap.String("project_id", p.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetByID retrieves a project with its client loaded
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	query := `SELECT ` + projectColumns + `,
		c.id, c.user_id, c.name, c.email, c.phone, c.address, c.notes,
		c.created_at, c.updated_at
		FROM projects p
		JOIN clients c ON c.id = p.client_id
		WHERE p.id = ?`

	project, err := scanProjectWithClient(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get project",
			zap.String("project_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// GetByUserID retrieves all of a user's projects with clients loaded
func (r *ProjectRepository) GetByUserID(ctx context.Context, userID string) ([]*entity.Project, error) {
	query := `SELECT ` + projectColumns + `,
		c.id, c.user_id, c.name, c.email, c.phone, c.address, c.notes,
		c.created_at, c.updated_at
		FROM projects p
		JOIN clients c ON c.id = p.client_id
		WHERE p.user_id = ?
		ORDER BY p.name ASC`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list projects",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*entity.Project
	for rows.Next() {
		project, err := scanProjectWithClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}

// Update rewrites the mutable fields of a project
func (r *ProjectRepository) Update(ctx context.Context, p *entity.Project) error {
	query := `
		UPDATE projects
		SET client_id = ?, name = ?, description = ?, status = ?,
			hourly_rate_cents = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		p.ClientID,
		p.Name,
		p.Description,
		p.Status,
		p.HourlyRateCents,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update project",
			zap.String("project_id", p.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update project: %w", err)
	}

	return nil
}

func scanProjectWithClient(s scanner) (*entity.Project, error) {
	var project entity.Project
	var client entity.Client

	err := s.Scan(
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

	project.Client = &client
	return &project, nil
}

// getExecutor returns the context transaction or the database handle
func (r *ProjectRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// Verify interface compliance
var _ port.ProjectRepository = (*ProjectRepository)(nil)
