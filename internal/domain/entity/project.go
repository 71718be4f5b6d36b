package entity

import "time"

// Project groups time entries and expenses under a client. HourlyRateCents is
// a point-in-time value: billable amounts are computed from the current rate
// at aggregation time, so rate changes do not rewrite past invoice totals.
type Project struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ClientID        string    `json:"client_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Status          string    `json:"status"`
	HourlyRateCents int64     `json:"hourly_rate_cents"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Client *Client `json:"client,omitempty"`
}
