package models

import (
	"time"

	"github.com/lib/pq"
)

// Role is a named permission set. A session is pinned to exactly one role
// for its lifetime; claims issued under that session carry only this role's
// permissions.
type Role struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Permissions pq.StringArray `db:"permissions" json:"permissions"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
