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

// ExpenseInput is the payload for creating or updating an expense. Amount is
// display precision and converted to cents on entry.
type ExpenseInput struct {
	ProjectID   string
	Description string
	Amount      float64
	Date        time.Time
	Receipt     string
	Billable    bool
}

// ExpenseService manages project expenses with the same invoiced-record
// delete guard as time entries.
type ExpenseService interface {
	Create(ctx context.Context, userID string, in ExpenseInput) (*entity.Expense, error)
	Get(ctx context.Context, expenseID, userID string) (*entity.Expense, error)
	List(ctx context.Context, userID string, filter port.ExpenseFilter) ([]*entity.Expense, error)
	Update(ctx context.Context, expenseID, userID string, in ExpenseInput) (*entity.Expense, error)
	Delete(ctx context.Context, expenseID, userID string) error
}

type expenseServiceImpl struct {
	expenseRepo port.ExpenseRepository
	projectRepo port.ProjectRepository
	clock       port.Clock
	logger      *zap.Logger
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(
	expenseRepo port.ExpenseRepository,
	projectRepo port.ProjectRepository,
	clock port.Clock,
	logger *zap.Logger,
) ExpenseService {
	return &expenseServiceImpl{
		expenseRepo: expenseRepo,
		projectRepo: projectRepo,
		clock:       clock,
		logger:      logger,
	}
}

func validateExpenseInput(in ExpenseInput) error {
	var v billing.Validator
	if in.ProjectID == "" {
		v.Fail("project_id", "project is required")
	}
	if in.Description == "" {
		v.Fail("description", "description is required")
	}
	if in.Amount <= 0 {
		v.Fail("amount", "amount must be positive")
	}
	if in.Date.IsZero() {
		v.Fail("date", "date is required")
	}
	return v.Err()
}

func (s *expenseServiceImpl) Create(ctx context.Context, userID string, in ExpenseInput) (*entity.Expense, error) {
	if err := validateExpenseInput(in); err != nil {
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
	expense := &entity.Expense{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProjectID:   in.ProjectID,
		Description: in.Description,
		AmountCents: billing.ToCents(in.Amount),
		Date:        in.Date,
		Receipt:     in.Receipt,
		Billable:    in.Billable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *expenseServiceImpl) Get(ctx context.Context, expenseID, userID string) (*entity.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if expense == nil || expense.UserID != userID {
		return nil, billing.ErrNotFound
	}
	return expense, nil
}

func (s *expenseServiceImpl) List(ctx context.Context, userID string, filter port.ExpenseFilter) ([]*entity.Expense, error) {
	filter.UserID = userID
	expenses, err := s.expenseRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (s *expenseServiceImpl) Update(ctx context.Context, expenseID, userID string, in ExpenseInput) (*entity.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if expense == nil || expense.UserID != userID {
		return nil, billing.ErrNotFound
	}

	if err := validateExpenseInput(in); err != nil {
		return nil, err
	}

	if in.ProjectID != expense.ProjectID {
		project, err := s.projectRepo.GetByID(ctx, in.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("get project: %w", err)
		}
		if project == nil || project.UserID != userID {
			return nil, billing.ErrNotFound
		}
		expense.ProjectID = in.ProjectID
	}

	expense.Description = in.Description
	expense.AmountCents = billing.ToCents(in.Amount)
	expense.Date = in.Date
	expense.Receipt = in.Receipt
	expense.Billable = in.Billable
	expense.UpdatedAt = s.clock.Now()

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *expenseServiceImpl) Delete(ctx context.Context, expenseID, userID string) error {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}
	if expense == nil || expense.UserID != userID {
		return billing.ErrNotFound
	}
	if expense.Invoiced() {
		return billing.ErrEntryInvoiced
	}

	if err := s.expenseRepo.Delete(ctx, expenseID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.logger.Info("Expense deleted",
		zap.String("expense_id", expenseID),
		zap.String("user_id", userID))
	return nil
}
