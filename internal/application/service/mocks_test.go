package service

import (
	"context"
	"time"

	"timebill/internal/application/port"
	"timebill/internal/domain/entity"
)

// fixedClock pins "now" for deterministic tests.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// immediateTx runs the function without a real transaction.
type immediateTx struct{}

func (immediateTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockEntryRepo struct {
	createFunc          func(ctx context.Context, e *entity.TimeEntry) error
	getByIDFunc         func(ctx context.Context, id string) (*entity.TimeEntry, error)
	getOpenByUserIDFunc func(ctx context.Context, userID string) (*entity.TimeEntry, error)
	listFunc            func(ctx context.Context, filter port.TimeEntryFilter) ([]*entity.TimeEntry, error)
	updateFunc          func(ctx context.Context, e *entity.TimeEntry) error
	setEndTimeFunc      func(ctx context.Context, id string, end time.Time) error
	deleteFunc          func(ctx context.Context, id string) error
}

func (m *mockEntryRepo) Create(ctx context.Context, e *entity.TimeEntry) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, e)
	}
	return nil
}

func (m *mockEntryRepo) GetByID(ctx context.Context, id string) (*entity.TimeEntry, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockEntryRepo) GetOpenByUserID(ctx context.Context, userID string) (*entity.TimeEntry, error) {
	if m.getOpenByUserIDFunc != nil {
		return m.getOpenByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockEntryRepo) List(ctx context.Context, filter port.TimeEntryFilter) ([]*entity.TimeEntry, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockEntryRepo) Update(ctx context.Context, e *entity.TimeEntry) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, e)
	}
	return nil
}

func (m *mockEntryRepo) SetEndTime(ctx context.Context, id string, end time.Time) error {
	if m.setEndTimeFunc != nil {
		return m.setEndTimeFunc(ctx, id, end)
	}
	return nil
}

func (m *mockEntryRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockExpenseRepo struct {
	createFunc  func(ctx context.Context, x *entity.Expense) error
	getByIDFunc func(ctx context.Context, id string) (*entity.Expense, error)
	listFunc    func(ctx context.Context, filter port.ExpenseFilter) ([]*entity.Expense, error)
	updateFunc  func(ctx context.Context, x *entity.Expense) error
	deleteFunc  func(ctx context.Context, id string) error
}

func (m *mockExpenseRepo) Create(ctx context.Context, x *entity.Expense) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, x)
	}
	return nil
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockExpenseRepo) List(ctx context.Context, filter port.ExpenseFilter) ([]*entity.Expense, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockExpenseRepo) Update(ctx context.Context, x *entity.Expense) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, x)
	}
	return nil
}

func (m *mockExpenseRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockProjectRepo struct {
	getByIDFunc     func(ctx context.Context, id string) (*entity.Project, error)
	getByUserIDFunc func(ctx context.Context, userID string) ([]*entity.Project, error)
}

func (m *mockProjectRepo) Create(ctx context.Context, p *entity.Project) error { return nil }

func (m *mockProjectRepo) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockProjectRepo) GetByUserID(ctx context.Context, userID string) ([]*entity.Project, error) {
	if m.getByUserIDFunc != nil {
		return m.getByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockProjectRepo) Update(ctx context.Context, p *entity.Project) error { return nil }

type mockClientRepo struct {
	getByIDFunc     func(ctx context.Context, id string) (*entity.Client, error)
	getByUserIDFunc func(ctx context.Context, userID string) ([]*entity.Client, error)
}

func (m *mockClientRepo) Create(ctx context.Context, c *entity.Client) error { return nil }

func (m *mockClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockClientRepo) GetByUserID(ctx context.Context, userID string) ([]*entity.Client, error) {
	if m.getByUserIDFunc != nil {
		return m.getByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockClientRepo) Update(ctx context.Context, c *entity.Client) error { return nil }

type mockInvoiceRepo struct {
	createFunc              func(ctx context.Context, inv *entity.Invoice) error
	createItemFunc          func(ctx context.Context, item *entity.InvoiceItem) error
	deleteItemsFunc         func(ctx context.Context, invoiceID string) error
	getByIDFunc             func(ctx context.Context, id string) (*entity.Invoice, error)
	listFunc                func(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error)
	updateFunc              func(ctx context.Context, inv *entity.Invoice) error
	deleteFunc              func(ctx context.Context, id string) error
	countByNumberPrefixFunc func(ctx context.Context, prefix string) (int, error)
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, inv)
	}
	return nil
}

func (m *mockInvoiceRepo) CreateItem(ctx context.Context, item *entity.InvoiceItem) error {
	if m.createItemFunc != nil {
		return m.createItemFunc(ctx, item)
	}
	return nil
}

func (m *mockInvoiceRepo) DeleteItems(ctx context.Context, invoiceID string) error {
	if m.deleteItemsFunc != nil {
		return m.deleteItemsFunc(ctx, invoiceID)
	}
	return nil
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, inv)
	}
	return nil
}

func (m *mockInvoiceRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockInvoiceRepo) CountByNumberPrefix(ctx context.Context, prefix string) (int, error) {
	if m.countByNumberPrefixFunc != nil {
		return m.countByNumberPrefixFunc(ctx, prefix)
	}
	return 0, nil
}

type mockPaymentRepo struct {
	createFunc         func(ctx context.Context, p *entity.Payment) error
	getByInvoiceIDFunc func(ctx context.Context, invoiceID string) ([]*entity.Payment, error)
	listRecentFunc     func(ctx context.Context, userID string, since time.Time) ([]*entity.Payment, error)
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	return nil
}

func (m *mockPaymentRepo) GetByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.Payment, error) {
	if m.getByInvoiceIDFunc != nil {
		return m.getByInvoiceIDFunc(ctx, invoiceID)
	}
	return nil, nil
}

func (m *mockPaymentRepo) ListRecent(ctx context.Context, userID string, since time.Time) ([]*entity.Payment, error) {
	if m.listRecentFunc != nil {
		return m.listRecentFunc(ctx, userID, since)
	}
	return nil, nil
}
