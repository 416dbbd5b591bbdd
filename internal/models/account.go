package models

import "time"

// PersonStatus tracks the lifecycle of a natural person in the directory.
type PersonStatus string

const (
	PersonActive     PersonStatus = "ACTIVE"
	PersonSuspended  PersonStatus = "SUSPENDED"
	PersonTerminated PersonStatus = "TERMINATED"
)

// Person is a natural person who may own several application accounts.
type Person struct {
	ID          string       `db:"id" json:"id"`
	DisplayName string       `db:"display_name" json:"display_name"`
	Status      PersonStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// Account is one application user owned by a person. Sessions hang off
// accounts; person-level revocation cascades through every account.
type Account struct {
	ID        string    `db:"id" json:"id"`
	PersonID  string    `db:"person_id" json:"person_id"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
