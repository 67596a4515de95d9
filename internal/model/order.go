package model

import "time"

// Order statuses.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
)

// ValidOrderStatus reports whether s is a recognized order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Order is a purchase placed by a buyer against a single seller. Line items
// are stored as a JSON column; the unit price is captured at purchase time so
// later product edits do not rewrite history.
type Order struct {
	ID          int64       `json:"id" db:"id"`
	PublicID    string      `json:"public_id" db:"public_id"`
	BuyerEmail  string      `json:"buyer_email" db:"buyer_email"`
	SellerEmail string      `json:"seller_email" db:"seller_email"`
	Items       []OrderItem `json:"items"`
	Total       float64     `json:"total" db:"total"`
	Status      string      `json:"status" db:"status"`
	UpdatedBy   string      `json:"updated_by,omitempty" db:"updated_by"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}
