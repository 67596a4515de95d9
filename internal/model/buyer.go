package model

import "time"

// Buyer account statuses.
const (
	BuyerActive   = "active"
	BuyerDisabled = "disabled"
)

// Buyer represents a shopper account in the users table. The Password column
// holds either a bcrypt hash or, for accounts imported from the legacy system,
// the original plaintext; plaintext entries are upgraded in place on the first
// successful login.
type Buyer struct {
	ID            int64       `json:"id" db:"id"`
	PublicID      string      `json:"public_id" db:"public_id"`
	FirstName     string      `json:"first_name" db:"first_name"`
	LastName      string      `json:"last_name" db:"last_name"`
	Email         string      `json:"email" db:"email"`
	Phone         string      `json:"phone" db:"phone"`
	Password      string      `json:"-" db:"password"` // bcrypt hash or legacy plaintext, never expose
	StreetAddress string      `json:"street_address" db:"street_address"`
	City          string      `json:"city" db:"city"`
	State         string      `json:"state" db:"state"`
	PostalCode    string      `json:"postal_code" db:"postal_code"`
	Country       string      `json:"country" db:"country"`
	Preferences   Preferences `json:"preferences"`
	Status        string      `json:"status" db:"status"`
	RoleMarker    string      `json:"role" db:"role_marker"` // normally "buyer"; legacy rows may say "seller"
	LastLogin     *time.Time  `json:"last_login,omitempty" db:"last_login"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// Name returns the buyer's display name.
func (b *Buyer) Name() string {
	if b.LastName == "" {
		return b.FirstName
	}
	return b.FirstName + " " + b.LastName
}

// Preferences holds a buyer's shopping preferences. Stored as a JSON column.
type Preferences struct {
	Categories    []string `json:"categories"`
	PriceRange    string   `json:"price_range,omitempty"`
	Brands        []string `json:"brands"`
	Notifications bool     `json:"notifications"`
}

// DefaultPreferences returns the preferences assigned at registration when
// the client sends none.
func DefaultPreferences() Preferences {
	return Preferences{
		Categories:    []string{},
		Brands:        []string{},
		Notifications: true,
	}
}
