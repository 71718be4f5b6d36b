package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
)

// TimeEntryInput is the payload for creating or updating a time entry.
type TimeEntryInput struct {
	ProjectID   string
	Description string
	StartTime   time.Time
	EndTime     *time.Time
	Billable    bool
}

// QuickFilter names for ListFilters.Quick, matching the original UI filters.
const (
	QuickToday     = "today"
	QuickYesterday = "yesterday"
	QuickThisWeek  = "thisWeek"
	QuickLastWeek  = "lastWeek"
	QuickThisMonth = "thisMonth"
	QuickLastMonth = "lastMonth"
)

// ListFilters narrows a time entry listing.
type ListFilters struct {
	ProjectID string
	ClientID  string
	Start     *time.Time
	End       *time.Time
	Billable  *bool
	Quick     string
}

// TimeEntryService covers manual entry management: pre-closed entries,
// edits, filtered listings, and deletion with the invoiced guard.
type TimeEntryService interface {
	Create(ctx context.Context, userID string, in TimeEntryInput) (*entity.TimeEntry, error)
	Get(ctx context.Context, entryID, userID string) (*entity.TimeEntry, error)
	List(ctx context.Context, userID string, filters ListFilters) ([]*entity.TimeEntry, error)
	Update(ctx context.Context, entryID, userID string, in TimeEntryInput) (*entity.TimeEntry, error)
	// Delete removes an entry. Entries linked to an invoice fail with
	// billing.ErrEntryInvoiced and stay unchanged.
	Delete(ctx context.Context, entryID, userID string) error
}

type timeEntryServiceImpl struct {
	entryRepo   port.TimeEntryRepository
	projectRepo port.ProjectRepository
	txManager   port.TransactionManager
	clock       port.Clock
	logger      *zap.Logger
}

// NewTimeEntryService creates a new TimeEntryService.
func NewTimeEntryService(
	entryRepo port.TimeEntryRepository,
	projectRepo port.ProjectRepository,
	txManager port.TransactionManager,
	clock port.Clock,
	logger *zap.Logger,
) TimeEntryService {
	return &timeEntryServiceImpl{
		entryRepo:   entryRepo,
		projectRepo: projectRepo,
		txManager:   txManager,
		clock:       clock,
		logger:      logger,
	}
}

func validateEntryInput(in TimeEntryInput) error {
	var v billing.Validator
	if in.ProjectID == "" {
		v.Fail("project_id", "project is required")
	}
	if in.StartTime.IsZero() {
		v.Fail("start_time", "start time is required")
	}
	if in.EndTime != nil && in.EndTime.Before(in.StartTime) {
		v.Fail("end_time", "end time must not be before start time")
	}
	return v.Err()
}

func (s *timeEntryServiceImpl) Create(ctx context.Context, userID string, in TimeEntryInput) (*entity.TimeEntry, error) {
	if err := validateEntryInput(in); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, in.ProjectID)
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
		ProjectID:   in.ProjectID,
		Description: in.Description,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Billable:    in.Billable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if in.EndTime == nil {
		// A manual entry without an end time is an open timer and falls
		// under the same single-open-entry rule as Start.
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
	} else {
		err = s.entryRepo.Create(ctx, entry)
	}
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *timeEntryServiceImpl) Get(ctx context.Context, entryID, userID string) (*entity.TimeEntry, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	if entry == nil || entry.UserID != userID {
		return nil, billing.ErrNotFound
	}
	return entry, nil
}

func (s *timeEntryServiceImpl) List(ctx context.Context, userID string, filters ListFilters) ([]*entity.TimeEntry, error) {
	f := port.TimeEntryFilter{
		UserID:        userID,
		ProjectID:     filters.ProjectID,
		ClientID:      filters.ClientID,
		Start:         filters.Start,
		End:           filters.End,
		Billable:      filters.Billable,
		WithRelations: true,
	}

	if filters.Quick != "" {
		start, end := quickFilterRange(filters.Quick, s.clock.Now())
		f.Start, f.End = start, end
	}

	entries, err := s.entryRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// quickFilterRange resolves a named filter to a concrete inclusive range. The
// end bound is the last instant before the next period, so an entry starting
// exactly at the next midnight is not picked up. A nil bound means unbounded
// on that side.
func quickFilterRange(quick string, now time.Time) (*time.Time, *time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	before := func(t time.Time) *time.Time {
		end := t.Add(-time.Nanosecond)
		return &end
	}

	switch quick {
	case QuickToday:
		return &midnight, nil
	case QuickYesterday:
		start := midnight.AddDate(0, 0, -1)
		return &start, before(midnight)
	case QuickThisWeek:
		start := midnight.AddDate(0, 0, -int(now.Weekday()))
		return &start, nil
	case QuickLastWeek:
		weekStart := midnight.AddDate(0, 0, -int(now.Weekday()))
		start := weekStart.AddDate(0, 0, -7)
		return &start, before(weekStart)
	case QuickThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return &start, nil
	case QuickLastMonth:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		start := monthStart.AddDate(0, -1, 0)
		return &start, before(monthStart)
	default:
		return nil, nil
	}
}

func (s *timeEntryServiceImpl) Update(ctx context.Context, entryID, userID string, in TimeEntryInput) (*entity.TimeEntry, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	if entry == nil || entry.UserID != userID {
		return nil, billing.ErrNotFound
	}

	if err := validateEntryInput(in); err != nil {
		return nil, err
	}

	if in.ProjectID != entry.ProjectID {
		project, err := s.projectRepo.GetByID(ctx, in.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("get project: %w", err)
		}
		if project == nil || project.UserID != userID {
			return nil, billing.ErrNotFound
		}
		entry.ProjectID = in.ProjectID
	}

	entry.Description = in.Description
	entry.StartTime = in.StartTime
	entry.EndTime = in.EndTime
	entry.Billable = in.Billable
	entry.UpdatedAt = s.clock.Now()

	if err := s.entryRepo.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *timeEntryServiceImpl) Delete(ctx context.Context, entryID, userID string) error {
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get entry: %w", err)
	}
	if entry == nil || entry.UserID != userID {
		return billing.ErrNotFound
	}
	if entry.Invoiced() {
		return billing.ErrEntryInvoiced
	}

	if err := s.entryRepo.Delete(ctx, entryID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	s.logger.Info("Time entry deleted",
		zap.String("entry_id", entryID),
		zap.String("user_id", userID))
	return nil
}
