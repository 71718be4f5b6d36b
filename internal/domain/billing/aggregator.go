package billing

import (
	"math"
	"time"

	"timebill/internal/domain/entity"
)

// RateOf resolves a project id to its current hourly rate in cents.
type RateOf func(projectID string) int64

// ClientOf resolves a project id to its owning client id.
type ClientOf func(projectID string) string

// ClientTotals holds per-client billable rollups in cents.
type ClientTotals struct {
	TimeCents    int64
	ExpenseCents int64
}

// BillableAmountCents sums duration × hourly rate over billable, closed
// entries. Open entries are excluded until stopped. The weighted sum is
// accumulated as exact integer milliseconds × cents and divided once at the
// end, so no per-entry rounding accumulates.
func BillableAmountCents(entries []*entity.TimeEntry, rate RateOf) int64 {
	return weightedToCents(weightedMsCents(entries, rate))
}

// BillableExpenseCents sums billable expense amounts with dates inside the
// inclusive [start, end] range.
func BillableExpenseCents(expenses []*entity.Expense, start, end time.Time) int64 {
	var total int64
	for _, x := range expenses {
		if !x.Billable {
			continue
		}
		if x.Date.Before(start) || x.Date.After(end) {
			continue
		}
		total += x.AmountCents
	}
	return total
}

// AmountByClient partitions entries and expenses by their project's client
// and computes the same two aggregates per partition. The sum of the
// partitions equals the unfiltered aggregate over the same inputs.
func AmountByClient(entries []*entity.TimeEntry, expenses []*entity.Expense, start, end time.Time, rate RateOf, client ClientOf) map[string]ClientTotals {
	weighted := make(map[string]int64)
	expenseCents := make(map[string]int64)

	for _, e := range entries {
		if !e.Billable || e.EndTime == nil {
			continue
		}
		weighted[client(e.ProjectID)] += entryWeight(e, rate)
	}
	for _, x := range expenses {
		if !x.Billable || x.Date.Before(start) || x.Date.After(end) {
			continue
		}
		expenseCents[client(x.ProjectID)] += x.AmountCents
	}

	totals := make(map[string]ClientTotals)
	for id, w := range weighted {
		t := totals[id]
		t.TimeCents = weightedToCents(w)
		totals[id] = t
	}
	for id, c := range expenseCents {
		t := totals[id]
		t.ExpenseCents = c
		totals[id] = t
	}
	return totals
}

// TotalHours sums the durations of closed entries in fractional hours.
func TotalHours(entries []*entity.TimeEntry) (total, billable, nonBillable float64) {
	for _, e := range entries {
		if e.EndTime == nil {
			continue
		}
		h := Duration(e, *e.EndTime).Hours
		total += h
		if e.Billable {
			billable += h
		} else {
			nonBillable += h
		}
	}
	return total, billable, nonBillable
}

func weightedMsCents(entries []*entity.TimeEntry, rate RateOf) int64 {
	var weighted int64
	for _, e := range entries {
		if !e.Billable || e.EndTime == nil {
			continue
		}
		weighted += entryWeight(e, rate)
	}
	return weighted
}

func entryWeight(e *entity.TimeEntry, rate RateOf) int64 {
	ms := e.EndTime.Sub(e.StartTime).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return ms * rate(e.ProjectID)
}

func weightedToCents(weighted int64) int64 {
	return int64(math.Round(float64(weighted) / msPerHour))
}
