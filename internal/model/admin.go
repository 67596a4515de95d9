package model

import "time"

// Admin represents a platform operator account. Admins live in their own
// table, disjoint from buyers and sellers, and are created through the setup
// endpoint or the CLI rather than public registration.
type Admin struct {
	ID        int64      `json:"id" db:"id"`
	Email     string     `json:"email" db:"email"`
	Password  string     `json:"-" db:"password"` // bcrypt hash or legacy plaintext, never expose
	Name      string     `json:"name" db:"name"`
	Status    string     `json:"status" db:"status"`
	CreatedBy string     `json:"created_by" db:"created_by"`
	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
