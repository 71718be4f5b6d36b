package billing

import "timebill/internal/domain/entity"

// GroupKey identifies a time-report bucket.
type GroupKey struct {
	ID    string
	Label string
}

// Grouping is an enumerated time-report grouping strategy. Each strategy is
// a pure function of the entry (with its project and client loaded), so the
// report engine never dispatches on a string tag.
type Grouping int

const (
	GroupByProject Grouping = iota
	GroupByClient
	GroupByDate
	GroupByMonth
)

// ParseGrouping maps a query-string value to a Grouping. Unknown values fall
// back to project grouping, matching the report's default.
func ParseGrouping(s string) Grouping {
	switch s {
	case "client":
		return GroupByClient
	case "date":
		return GroupByDate
	case "month":
		return GroupByMonth
	default:
		return GroupByProject
	}
}

// String returns the query-string form of the grouping.
func (g Grouping) String() string {
	switch g {
	case GroupByClient:
		return "client"
	case GroupByDate:
		return "date"
	case GroupByMonth:
		return "month"
	default:
		return "project"
	}
}

// Key computes the bucket for an entry. Entries must carry their Project
// relation (and Project.Client for client grouping).
func (g Grouping) Key(e *entity.TimeEntry) GroupKey {
	switch g {
	case GroupByClient:
		if e.Project != nil && e.Project.Client != nil {
			return GroupKey{ID: e.Project.Client.ID, Label: e.Project.Client.Name}
		}
		return GroupKey{ID: "unknown", Label: "Unknown client"}
	case GroupByDate:
		d := e.StartTime.Format("2006-01-02")
		return GroupKey{ID: d, Label: d}
	case GroupByMonth:
		m := e.StartTime.Format("2006-01")
		return GroupKey{ID: m, Label: e.StartTime.Format("January 2006")}
	default:
		if e.Project != nil {
			return GroupKey{ID: e.Project.ID, Label: e.Project.Name}
		}
		return GroupKey{ID: e.ProjectID, Label: e.ProjectID}
	}
}
