package model

import "time"

// Product moderation statuses.
const (
	ProductPending  = "pending"
	ProductApproved = "approved"
	ProductRejected = "rejected"
)

// Product is a marketplace listing. New listings start pending and become
// publicly visible only after admin approval.
type Product struct {
	ID          int64    `json:"id" db:"id"`
	PublicID    string   `json:"public_id" db:"public_id"`
	SellerEmail string   `json:"seller_email" db:"seller_email"`
	StoreName   string   `json:"store_name" db:"store_name"`
	Name        string   `json:"name" db:"name"`
	Description string   `json:"description" db:"description"`
	Price       float64  `json:"price" db:"price"`
	Category    string   `json:"category" db:"category"`
	Stock       int      `json:"stock" db:"stock"`
	Images      []string `json:"images"`

	Status          string     `json:"status" db:"status"`
	ApprovedBy      string     `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	RejectedBy      string     `json:"rejected_by,omitempty" db:"rejected_by"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty" db:"rejected_at"`
	RejectionReason string     `json:"rejection_reason,omitempty" db:"rejection_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
