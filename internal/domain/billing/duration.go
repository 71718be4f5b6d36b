package billing

import (
	"fmt"
	"time"

	"timebill/internal/domain/entity"
)

// DurationResult is the computed duration of a time entry.
type DurationResult struct {
	// Hours is the elapsed time in fractional hours.
	Hours float64 `json:"hours"`
	// Formatted is a display string such as "1h 30m", or "Running" for an
	// open entry.
	Formatted string `json:"formatted"`
	// Clamped is set when the raw elapsed time was negative (end before
	// start, typically clock skew) and the result was clamped to zero.
	Clamped bool `json:"clamped,omitempty"`
}

// Duration computes the elapsed time of an entry. Open entries are measured
// against now; closed entries against their end time. Negative elapsed time
// clamps to zero rather than producing a negative duration.
func Duration(e *entity.TimeEntry, now time.Time) DurationResult {
	end := now
	if e.EndTime != nil {
		end = *e.EndTime
	}

	elapsed := end.Sub(e.StartTime)
	clamped := false
	if elapsed < 0 {
		elapsed = 0
		clamped = true
	}

	res := DurationResult{
		Hours:   float64(elapsed.Milliseconds()) / msPerHour,
		Clamped: clamped,
	}

	if e.EndTime == nil {
		res.Formatted = "Running"
		return res
	}

	h := int64(res.Hours)
	m := (elapsed.Milliseconds() % msPerHour) / 60000
	res.Formatted = fmt.Sprintf("%dh %dm", h, m)
	return res
}
