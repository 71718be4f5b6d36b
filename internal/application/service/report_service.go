package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
)

// RevenueReport aggregates billing and ledger data over a date range. All
// monetary fields are display precision, rounded exactly once from the cents
// accumulators when the report is assembled.
type RevenueReport struct {
	StartDate        string        `json:"start_date"`
	EndDate          string        `json:"end_date"`
	BillableAmount   float64       `json:"billable_amount"`
	BillableExpenses float64       `json:"billable_expenses"`
	InvoicedTotal    float64       `json:"invoiced_total"`
	PaidTotal        float64       `json:"paid_total"`
	OutstandingTotal float64       `json:"outstanding_total"`
	ClientStats      []ClientStats `json:"client_stats"`
}

// ClientStats holds the same metrics computed independently for one client.
type ClientStats struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	BillableAmount    float64 `json:"billable_amount"`
	Expenses          float64 `json:"expenses"`
	InvoicedAmount    float64 `json:"invoiced_amount"`
	PaidAmount        float64 `json:"paid_amount"`
	OutstandingAmount float64 `json:"outstanding_amount"`
}

// TimeReport summarizes tracked hours over a range, bucketed by a grouping
// strategy.
type TimeReport struct {
	StartDate        string            `json:"start_date"`
	EndDate          string            `json:"end_date"`
	GroupBy          string            `json:"group_by"`
	TotalHours       float64           `json:"total_hours"`
	BillableHours    float64           `json:"billable_hours"`
	NonBillableHours float64           `json:"non_billable_hours"`
	Groups           []TimeReportGroup `json:"groups"`
}

// TimeReportGroup is one bucket of a time report.
type TimeReportGroup struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	TotalHours    float64            `json:"total_hours"`
	BillableHours float64            `json:"billable_hours"`
	EntryCount    int                `json:"entry_count"`
	Entries       []*entity.TimeEntry `json:"entries,omitempty"`
}

// TimeReportOptions controls the time report.
type TimeReportOptions struct {
	Start          time.Time
	End            time.Time
	Grouping       billing.Grouping
	ProjectID      string
	ClientID       string
	IncludeDetails bool
}

// ReportService combines the billing aggregates with the invoice/payment
// ledger into financial reports. Reads are independent queries aggregated in
// memory; read-committed consistency is acceptable for informational output.
type ReportService interface {
	Revenue(ctx context.Context, userID string, start, end time.Time, clientID string) (*RevenueReport, error)
	Time(ctx context.Context, userID string, opts TimeReportOptions) (*TimeReport, error)
}

type reportServiceImpl struct {
	entryRepo   port.TimeEntryRepository
	expenseRepo port.ExpenseRepository
	invoiceRepo port.InvoiceRepository
	projectRepo port.ProjectRepository
	clientRepo  port.ClientRepository
	logger      *zap.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(
	entryRepo port.TimeEntryRepository,
	expenseRepo port.ExpenseRepository,
	invoiceRepo port.InvoiceRepository,
	projectRepo port.ProjectRepository,
	clientRepo port.ClientRepository,
	logger *zap.Logger,
) ReportService {
	return &reportServiceImpl{
		entryRepo:   entryRepo,
		expenseRepo: expenseRepo,
		invoiceRepo: invoiceRepo,
		projectRepo: projectRepo,
		clientRepo:  clientRepo,
		logger:      logger,
	}
}

func (s *reportServiceImpl) Revenue(ctx context.Context, userID string, start, end time.Time, clientID string) (*RevenueReport, error) {
	billableTrue := true

	entries, err := s.entryRepo.List(ctx, port.TimeEntryFilter{
		UserID:     userID,
		ClientID:   clientID,
		Start:      &start,
		End:        &end,
		Billable:   &billableTrue,
		OnlyClosed: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	expenses, err := s.expenseRepo.List(ctx, port.ExpenseFilter{
		UserID:   userID,
		ClientID: clientID,
		Start:    &start,
		End:      &end,
		Billable: &billableTrue,
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	invoices, err := s.invoiceRepo.List(ctx, port.InvoiceFilter{
		UserID:     userID,
		ClientID:   clientID,
		IssueStart: &start,
		IssueEnd:   &end,
	})
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	projects, err := s.projectRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	rates := make(map[string]int64, len(projects))
	clientOf := make(map[string]string, len(projects))
	for _, p := range projects {
		rates[p.ID] = p.HourlyRateCents
		clientOf[p.ID] = p.ClientID
	}
	rateOf := func(projectID string) int64 { return rates[projectID] }
	clientFor := func(projectID string) string { return clientOf[projectID] }

	clients, err := s.clientRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	// Per-client partitions of the same inputs. Overall figures are the
	// partition sums, so the report is internally consistent by
	// construction and rounded only once below.
	perClient := billing.AmountByClient(entries, expenses, start, end, rateOf, clientFor)

	invoicedByClient := make(map[string]int64)
	paidByClient := make(map[string]int64)
	for _, inv := range invoices {
		invoicedByClient[inv.ClientID] += inv.TotalCents
		paidByClient[inv.ClientID] += inv.PaidCents()
	}

	var billableCents, expenseCents, invoicedCents, paidCents int64
	stats := make([]ClientStats, 0, len(clients))
	for _, c := range clients {
		if clientID != "" && c.ID != clientID {
			continue
		}
		totals := perClient[c.ID]
		invoiced := invoicedByClient[c.ID]
		paid := paidByClient[c.ID]

		billableCents += totals.TimeCents
		expenseCents += totals.ExpenseCents
		invoicedCents += invoiced
		paidCents += paid

		stats = append(stats, ClientStats{
			ID:                c.ID,
			Name:              c.Name,
			BillableAmount:    billing.FromCents(totals.TimeCents),
			Expenses:          billing.FromCents(totals.ExpenseCents),
			InvoicedAmount:    billing.FromCents(invoiced),
			PaidAmount:        billing.FromCents(paid),
			OutstandingAmount: billing.FromCents(invoiced - paid),
		})
	}

	report := &RevenueReport{
		StartDate:        start.Format("2006-01-02"),
		EndDate:          end.Format("2006-01-02"),
		BillableAmount:   billing.FromCents(billableCents),
		BillableExpenses: billing.FromCents(expenseCents),
		InvoicedTotal:    billing.FromCents(invoicedCents),
		PaidTotal:        billing.FromCents(paidCents),
		OutstandingTotal: billing.FromCents(invoicedCents - paidCents),
		ClientStats:      stats,
	}

	s.logger.Debug("Revenue report generated",
		zap.String("user_id", userID),
		zap.String("start", report.StartDate),
		zap.String("end", report.EndDate),
		zap.Int("clients", len(stats)))

	return report, nil
}

func (s *reportServiceImpl) Time(ctx context.Context, userID string, opts TimeReportOptions) (*TimeReport, error) {
	entries, err := s.entryRepo.List(ctx, port.TimeEntryFilter{
		UserID:        userID,
		ProjectID:     opts.ProjectID,
		ClientID:      opts.ClientID,
		Start:         &opts.Start,
		End:           &opts.End,
		OnlyClosed:    true,
		WithRelations: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	total, billable, nonBillable := billing.TotalHours(entries)

	buckets := make(map[string]*TimeReportGroup)
	var order []string
	for _, e := range entries {
		key := opts.Grouping.Key(e)
		g, ok := buckets[key.ID]
		if !ok {
			g = &TimeReportGroup{ID: key.ID, Name: key.Label}
			buckets[key.ID] = g
			order = append(order, key.ID)
		}

		d := billing.Duration(e, *e.EndTime)
		g.TotalHours += d.Hours
		if e.Billable {
			g.BillableHours += d.Hours
		}
		g.EntryCount++
		if opts.IncludeDetails {
			g.Entries = append(g.Entries, e)
		}
	}

	sort.Strings(order)
	groups := make([]TimeReportGroup, 0, len(order))
	for _, id := range order {
		groups = append(groups, *buckets[id])
	}

	return &TimeReport{
		StartDate:        opts.Start.Format("2006-01-02"),
		EndDate:          opts.End.Format("2006-01-02"),
		GroupBy:          opts.Grouping.String(),
		TotalHours:       total,
		BillableHours:    billable,
		NonBillableHours: nonBillable,
		Groups:           groups,
	}, nil
}
