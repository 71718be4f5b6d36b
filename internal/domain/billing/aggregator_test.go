package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"timebill/internal/domain/entity"
)

func closedEntry(projectID string, start time.Time, d time.Duration, billable bool) *entity.TimeEntry {
	end := start.Add(d)
	return &entity.TimeEntry{
		ProjectID: projectID,
		StartTime: start,
		EndTime:   &end,
		Billable:  billable,
	}
}

func TestBillableAmountCents(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rate := func(string) int64 { return 10000 } // 100.00/h

	t.Run("two hour entry at 100 per hour", func(t *testing.T) {
		entries := []*entity.TimeEntry{closedEntry("p1", start, 2*time.Hour, true)}
		assert.Equal(t, int64(20000), BillableAmountCents(entries, rate))
	})

	t.Run("open and non-billable entries excluded", func(t *testing.T) {
		open := &entity.TimeEntry{ProjectID: "p1", StartTime: start, Billable: true}
		entries := []*entity.TimeEntry{
			closedEntry("p1", start, time.Hour, true),
			closedEntry("p1", start, time.Hour, false),
			open,
		}
		assert.Equal(t, int64(10000), BillableAmountCents(entries, rate))
	})

	t.Run("fractional durations round once at the end", func(t *testing.T) {
		// Three 20-minute entries at 100.00/h: each is 33.333... but the
		// total must be exactly 100.00, not 3 × 33.33.
		entries := []*entity.TimeEntry{
			closedEntry("p1", start, 20*time.Minute, true),
			closedEntry("p1", start, 20*time.Minute, true),
			closedEntry("p1", start, 20*time.Minute, true),
		}
		assert.Equal(t, int64(10000), BillableAmountCents(entries, rate))
	})
}

func TestBillableExpenseCents(t *testing.T) {
	rangeStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)

	expenses := []*entity.Expense{
		{ProjectID: "p1", AmountCents: 5000, Date: rangeStart, Billable: true},
		{ProjectID: "p1", AmountCents: 2500, Date: rangeEnd, Billable: true},
		{ProjectID: "p1", AmountCents: 9999, Date: rangeEnd.Add(time.Second), Billable: true},
		{ProjectID: "p1", AmountCents: 1000, Date: rangeStart, Billable: false},
	}

	assert.Equal(t, int64(7500), BillableExpenseCents(expenses, rangeStart, rangeEnd))
}

func TestAmountByClientSumsToAggregate(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	rangeStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	// Whole-minute durations at per-minute-exact rates keep every partition
	// free of rounding, so partition sums match the aggregate exactly.
	rates := map[string]int64{"p1": 9000, "p2": 6000, "p3": 12000}
	clients := map[string]string{"p1": "c1", "p2": "c1", "p3": "c2"}
	rate := func(id string) int64 { return rates[id] }
	client := func(id string) string { return clients[id] }

	entries := []*entity.TimeEntry{
		closedEntry("p1", start, 95*time.Minute, true),
		closedEntry("p2", start, 2*time.Hour+17*time.Minute, true),
		closedEntry("p3", start, 40*time.Minute, true),
		closedEntry("p3", start, time.Hour, false),
	}
	expenses := []*entity.Expense{
		{ProjectID: "p1", AmountCents: 1234, Date: start, Billable: true},
		{ProjectID: "p3", AmountCents: 4321, Date: start, Billable: true},
	}

	perClient := AmountByClient(entries, expenses, rangeStart, rangeEnd, rate, client)

	var timeSum, expenseSum int64
	for _, totals := range perClient {
		timeSum += totals.TimeCents
		expenseSum += totals.ExpenseCents
	}

	// Per-client rollups must add up to the unfiltered aggregates.
	assert.Equal(t, BillableAmountCents(entries, rate), timeSum)
	assert.Equal(t, BillableExpenseCents(expenses, rangeStart, rangeEnd), expenseSum)
}

func TestTotalHours(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	entries := []*entity.TimeEntry{
		closedEntry("p1", start, 90*time.Minute, true),
		closedEntry("p1", start, 30*time.Minute, false),
		{ProjectID: "p1", StartTime: start, Billable: true}, // open, excluded
	}

	total, billable, nonBillable := TotalHours(entries)
	assert.InDelta(t, 2.0, total, 1e-9)
	assert.InDelta(t, 1.5, billable, 1e-9)
	assert.InDelta(t, 0.5, nonBillable, 1e-9)
}
