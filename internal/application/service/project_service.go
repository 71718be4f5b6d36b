package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
)

// ProjectInput is the payload for creating or updating a project. HourlyRate
// is display precision and converted to cents on entry.
type ProjectInput struct {
	ClientID    string
	Name        string
	Description string
	Status      string
	HourlyRate  float64
}

// ProjectService manages projects and their hourly rates. Rate changes apply
// from the moment of the change: past invoice totals are frozen in cents and
// are never recomputed.
type ProjectService interface {
	Create(ctx context.Context, userID string, in ProjectInput) (*entity.Project, error)
	Get(ctx context.Context, projectID, userID string) (*entity.Project, error)
	List(ctx context.Context, userID string) ([]*entity.Project, error)
	Update(ctx context.Context, projectID, userID string, in ProjectInput) (*entity.Project, error)
}

type projectServiceImpl struct {
	projectRepo port.ProjectRepository
	clientRepo  port.ClientRepository
	clock       port.Clock
	logger      *zap.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(
	projectRepo port.ProjectRepository,
	clientRepo port.ClientRepository,
	clock port.Clock,
	logger *zap.Logger,
) ProjectService {
	return &projectServiceImpl{
		projectRepo: projectRepo,
		clientRepo:  clientRepo,
		clock:       clock,
		logger:      logger,
	}
}

func validProjectStatus(s string) bool {
	switch s {
	case entity.ProjectStatusActive, entity.ProjectStatusCompleted, entity.ProjectStatusArchived:
		return true
	}
	return false
}

func validateProjectInput(in ProjectInput) error {
	var v billing.Validator
	if in.ClientID == "" {
		v.Fail("client_id", "client is required")
	}
	if in.Name == "" {
		v.Fail("name", "name is required")
	}
	if !validProjectStatus(in.Status) {
		v.Fail("status", "unknown project status")
	}
	if in.HourlyRate < 0 {
		v.Fail("hourly_rate", "hourly rate must be non-negative")
	}
	return v.Err()
}

func (s *projectServiceImpl) Create(ctx context.Context, userID string, in ProjectInput) (*entity.Project, error) {
	if err := validateProjectInput(in); err != nil {
		return nil, err
	}

	client, err := s.clientRepo.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil || client.UserID != userID {
		return nil, billing.ErrNotFound
	}

	now := s.clock.Now()
	project := &entity.Project{
		ID:              uuid.NewString(),
		UserID:          userID,
		ClientID:        in.ClientID,
		Name:            in.Name,
		Description:     in.Description,
		Status:          in.Status,
		HourlyRateCents: billing.ToCents(in.HourlyRate),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID),
		zap.String("client_id", in.ClientID),
		zap.String("user_id", userID))
	return project, nil
}

func (s *projectServiceImpl) Get(ctx context.Context, projectID, userID string) (*entity.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil || project.UserID != userID {
		return nil, billing.ErrNotFound
	}
	return project, nil
}

func (s *projectServiceImpl) List(ctx context.Context, userID string) ([]*entity.Project, error) {
	projects, err := s.projectRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *projectServiceImpl) Update(ctx context.Context, projectID, userID string, in ProjectInput) (*entity.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil || project.UserID != userID {
		return nil, billing.ErrNotFound
	}

	if err := validateProjectInput(in); err != nil {
		return nil, err
	}

	if in.ClientID != project.ClientID {
		client, err := s.clientRepo.GetByID(ctx, in.ClientID)
		if err != nil {
			return nil, fmt.Errorf("get client: %w", err)
		}
		if client == nil || client.UserID != userID {
			return nil, billing.ErrNotFound
		}
		project.ClientID = in.ClientID
	}

	project.Name = in.Name
	project.Description = in.Description
	project.Status = in.Status
	project.HourlyRateCents = billing.ToCents(in.HourlyRate)
	project.UpdatedAt = s.clock.Now()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}
