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

// TimerService enforces the single-active-timer rule: at most one open time
// entry per user, with the check and insert executed as one atomic unit.
type TimerService interface {
	// Start begins a new timer. Fails with billing.ErrOpenTimerExists if
	// the user already has a running entry.
	Start(ctx context.Context, userID, projectID, description string, billable bool) (*entity.TimeEntry, error)

	// Stop closes a running entry. Fails with billing.ErrNotFound if the
	// entry is absent, not owned by userID, or already closed.
	Stop(ctx context.Context, entryID, userID string) (*entity.TimeEntry, error)

	// Resume clones description, project and billable flag from a previous
	// entry into a new timer starting now.
	Resume(ctx context.Context, sourceEntryID, userID string) (*entity.TimeEntry, error)

	// Current returns the user's running entry, or billing.ErrNotFound.
	Current(ctx context.Context, userID string) (*entity.TimeEntry, error)
}

type timerServiceImpl struct {
	entryRepo   port.TimeEntryRepository
	projectRepo port.ProjectRepository
	txManager   port.TransactionManager
	clock       port.Clock
	logger      *zap.Logger
}

// NewTimerService creates a new TimerService.
func NewTimerService(
	entryRepo port.TimeEntryRepository,
	projectRepo port.ProjectRepository,
	txManager port.TransactionManager,
	clock port.Clock,
	logger *zap.Logger,
) TimerService {
	return &timerServiceImpl{
		entryRepo:   entryRepo,
		projectRepo: projectRepo,
		txManager:   txManager,
		clock:       clock,
		logger:      logger,
	}
}

func (s *timerServiceImpl) Start(ctx context.Context, userID, projectID, description string, billable bool) (*entity.TimeEntry, error) {
	var v billing.Validator
	if projectID == "" {
		v.Fail("project_id", "project is required")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil || project.UserID != userID {
		return nil, billing.ErrNotFound
	}

	now := s.clock.Now()
	entry := &entity.TimeEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProjectID:   projectID,
		Description: description,
		StartTime:   now,
		Billable:    billable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// The open-entry check and insert run inside one transaction. The
	// partial unique index on open entries turns any lost race into a
	// constraint error, which the repository maps to ErrOpenTimerExists.
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		open, err := s.entryRepo.GetOpenByUserID(txCtx, userID)
		if err != nil {
			return fmt.Errorf("check open entry: %w", err)
		}
		if open != nil {
			return billing.ErrOpenTimerExists
		}
		return s.entryRepo.Create(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Timer started",
		zap.String("entry_id", entry.ID),
		zap.String("user_id", userID),
		zap.String("project_id", projectID))

	return entry, nil
}

func (s *timerServiceImpl) Stop(ctx context.Context, entryID, userID string) (*entity.TimeEntry, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	if entry == nil || entry.UserID != userID || entry.EndTime != nil {
		return nil, billing.ErrNotFound
	}

	now := s.clock.Now()
	if err := s.entryRepo.SetEndTime(ctx, entry.ID, now); err != nil {
		return nil, fmt.Errorf("set end time: %w", err)
	}
	entry.EndTime = &now
	entry.UpdatedAt = now

	s.logger.Info("Timer stopped",
		zap.String("entry_id", entry.ID),
		zap.String("user_id", userID),
		zap.Duration("elapsed", now.Sub(entry.StartTime)))

	return entry, nil
}

func (s *timerServiceImpl) Resume(ctx context.Context, sourceEntryID, userID string) (*entity.TimeEntry, error) {
	source, err := s.entryRepo.GetByID(ctx, sourceEntryID)
	if err != nil {
		return nil, fmt.Errorf("get source entry: %w", err)
	}
	if source == nil || source.UserID != userID {
		return nil, billing.ErrNotFound
	}

	now := s.clock.Now()
	entry := &entity.TimeEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProjectID:   source.ProjectID,
		Description: source.Description,
		StartTime:   now,
		Billable:    source.Billable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		open, err := s.entryRepo.GetOpenByUserID(txCtx, userID)
		if err != nil {
			return fmt.Errorf("check open entry: %w", err)
		}
		if open != nil {
			return billing.ErrOpenTimerExists
		}
		return s.entryRepo.Create(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Timer resumed",
		zap.String("entry_id", entry.ID),
		zap.String("source_entry_id", sourceEntryID),
		zap.String("user_id", userID))

	return entry, nil
}

func (s *timerServiceImpl) Current(ctx context.Context, userID string) (*entity.TimeEntry, error) {
	entry, err := s.entryRepo.GetOpenByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get open entry: %w", err)
	}
	if entry == nil {
		return nil, billing.ErrNotFound
	}
	return entry, nil
}
