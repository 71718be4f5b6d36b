package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
)

func closedEntry(projectID string, start time.Time, minutes int, billable bool) *entity.TimeEntry {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return &entity.TimeEntry{
		ID:        projectID + "-" + start.Format("150405"),
		UserID:    "user-1",
		ProjectID: projectID,
		StartTime: start,
		EndTime:   &end,
		Billable:  billable,
	}
}

func TestReportService_Revenue(t *testing.T) {
	logger := zap.NewNop()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	base := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)

	projects := []*entity.Project{
		{ID: "proj-a", UserID: "user-1", ClientID: "client-1", HourlyRateCents: 9000},
		{ID: "proj-b", UserID: "user-1", ClientID: "client-2", HourlyRateCents: 12000},
	}
	clients := []*entity.Client{
		{ID: "client-1", UserID: "user-1", Name: "Acme"},
		{ID: "client-2", UserID: "user-1", Name: "Globex"},
	}

	entries := []*entity.TimeEntry{
		closedEntry("proj-a", base, 120, true),              // $180.00
		closedEntry("proj-a", base.Add(3*time.Hour), 30, true), // $45.00
		closedEntry("proj-b", base, 60, true),               // $120.00
	}
	expenses := []*entity.Expense{
		{ID: "exp-1", UserID: "user-1", ProjectID: "proj-a", AmountCents: 2500, Date: base, Billable: true},
	}
	invoices := []*entity.Invoice{
		{
			ID: "inv-1", UserID: "user-1", ClientID: "client-1", TotalCents: 20000,
			Payments: []*entity.Payment{{ID: "pay-1", InvoiceID: "inv-1", AmountCents: 15000}},
		},
		{ID: "inv-2", UserID: "user-1", ClientID: "client-2", TotalCents: 12000},
	}

	newService := func() ReportService {
		return NewReportService(
			&mockEntryRepo{listFunc: func(ctx context.Context, f port.TimeEntryFilter) ([]*entity.TimeEntry, error) {
				return entries, nil
			}},
			&mockExpenseRepo{listFunc: func(ctx context.Context, f port.ExpenseFilter) ([]*entity.Expense, error) {
				return expenses, nil
			}},
			&mockInvoiceRepo{listFunc: func(ctx context.Context, f port.InvoiceFilter) ([]*entity.Invoice, error) {
				return invoices, nil
			}},
			&mockProjectRepo{getByUserIDFunc: func(ctx context.Context, userID string) ([]*entity.Project, error) {
				return projects, nil
			}},
			&mockClientRepo{getByUserIDFunc: func(ctx context.Context, userID string) ([]*entity.Client, error) {
				return clients, nil
			}},
			logger,
		)
	}

	report, err := newService().Revenue(context.Background(), "user-1", start, end, "")
	require.NoError(t, err)

	assert.Equal(t, "2025-03-01", report.StartDate)
	assert.Equal(t, "2025-03-31", report.EndDate)
	assert.Equal(t, 345.0, report.BillableAmount)
	assert.Equal(t, 25.0, report.BillableExpenses)
	assert.Equal(t, 320.0, report.InvoicedTotal)
	assert.Equal(t, 150.0, report.PaidTotal)
	assert.Equal(t, 170.0, report.OutstandingTotal)

	require.Len(t, report.ClientStats, 2)

	var sumBillable, sumInvoiced, sumPaid, sumOutstanding float64
	byID := make(map[string]ClientStats)
	for _, cs := range report.ClientStats {
		byID[cs.ID] = cs
		sumBillable += cs.BillableAmount
		sumInvoiced += cs.InvoicedAmount
		sumPaid += cs.PaidAmount
		sumOutstanding += cs.OutstandingAmount
	}

	// Per-client stats sum to the report totals.
	assert.Equal(t, report.BillableAmount, sumBillable)
	assert.Equal(t, report.InvoicedTotal, sumInvoiced)
	assert.Equal(t, report.PaidTotal, sumPaid)
	assert.Equal(t, report.OutstandingTotal, sumOutstanding)

	acme := byID["client-1"]
	assert.Equal(t, "Acme", acme.Name)
	assert.Equal(t, 225.0, acme.BillableAmount)
	assert.Equal(t, 25.0, acme.Expenses)
	assert.Equal(t, 200.0, acme.InvoicedAmount)
	assert.Equal(t, 150.0, acme.PaidAmount)
	assert.Equal(t, 50.0, acme.OutstandingAmount)

	globex := byID["client-2"]
	assert.Equal(t, 120.0, globex.BillableAmount)
	assert.Equal(t, 120.0, globex.InvoicedAmount)
	assert.Equal(t, 0.0, globex.PaidAmount)
}

func TestReportService_Time(t *testing.T) {
	logger := zap.NewNop()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	base := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)

	projA := &entity.Project{ID: "proj-a", Name: "Website"}
	projB := &entity.Project{ID: "proj-b", Name: "Backend"}

	e1 := closedEntry("proj-a", base, 90, true)
	e1.Project = projA
	e2 := closedEntry("proj-a", base.Add(4*time.Hour), 30, false)
	e2.Project = projA
	e3 := closedEntry("proj-b", base, 60, true)
	e3.Project = projB

	entryRepo := &mockEntryRepo{
		listFunc: func(ctx context.Context, f port.TimeEntryFilter) ([]*entity.TimeEntry, error) {
			assert.True(t, f.OnlyClosed)
			assert.True(t, f.WithRelations)
			return []*entity.TimeEntry{e1, e2, e3}, nil
		},
	}

	svc := NewReportService(entryRepo, &mockExpenseRepo{}, &mockInvoiceRepo{}, &mockProjectRepo{}, &mockClientRepo{}, logger)
	report, err := svc.Time(context.Background(), "user-1", TimeReportOptions{
		Start:    start,
		End:      end,
		Grouping: billing.GroupByProject,
	})
	require.NoError(t, err)

	assert.Equal(t, "project", report.GroupBy)
	assert.InDelta(t, 3.0, report.TotalHours, 1e-9)
	assert.InDelta(t, 2.5, report.BillableHours, 1e-9)
	assert.InDelta(t, 0.5, report.NonBillableHours, 1e-9)

	require.Len(t, report.Groups, 2)
	byID := make(map[string]TimeReportGroup)
	for _, g := range report.Groups {
		byID[g.ID] = g
	}

	website := byID["proj-a"]
	assert.Equal(t, "Website", website.Name)
	assert.InDelta(t, 2.0, website.TotalHours, 1e-9)
	assert.InDelta(t, 1.5, website.BillableHours, 1e-9)
	assert.Equal(t, 2, website.EntryCount)
	assert.Empty(t, website.Entries)

	backend := byID["proj-b"]
	assert.InDelta(t, 1.0, backend.TotalHours, 1e-9)
	assert.Equal(t, 1, backend.EntryCount)
}
