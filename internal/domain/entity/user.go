package entity

import "time"

// User is the authenticated owner of clients, projects and ledger rows.
// Authentication itself happens upstream; the service only consumes the id
// and role handed to it per request.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
