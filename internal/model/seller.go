package model

import "time"

// Seller represents a merchant account in the sellers table. New applications
// start with both approval columns set to pending; only the admin
// approve/reject actions are allowed to change them, and those always write
// both columns together.
type Seller struct {
	ID        int64  `json:"id" db:"id"`
	PublicID  string `json:"public_id" db:"public_id"`
	Name      string `json:"name" db:"name"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Email     string `json:"email" db:"email"`
	Phone     string `json:"phone" db:"phone"`
	Password  string `json:"-" db:"password"` // bcrypt hash or legacy plaintext, never expose

	// Business profile
	BusinessName        string `json:"business_name" db:"business_name"`
	BusinessType        string `json:"business_type" db:"business_type"`
	BusinessDescription string `json:"business_description" db:"business_description"`
	BusinessAddress     string `json:"business_address" db:"business_address"`
	BusinessCity        string `json:"business_city" db:"business_city"`
	BusinessCountry     string `json:"business_country" db:"business_country"`

	// Storefront profile
	StoreName        string `json:"store_name" db:"store_name"`
	StoreDescription string `json:"store_description" db:"store_description"`
	StoreCategory    string `json:"store_category" db:"store_category"`

	// Legal and banking
	BusinessLicense string `json:"business_license,omitempty" db:"business_license"`
	TaxID           string `json:"tax_id,omitempty" db:"tax_id"`
	BankName        string `json:"-" db:"bank_name"`
	AccountNumber   string `json:"-" db:"account_number"`
	AccountName     string `json:"-" db:"account_name"`
	Website         string `json:"website,omitempty" db:"website"`

	// The legacy approval pair. Status predates ApprovalStatus; both are kept
	// until every record has been migrated to the canonical column.
	Status         ApprovalState `json:"status" db:"status"`
	ApprovalStatus ApprovalState `json:"approval_status" db:"approval_status"`

	// Approval audit trail
	ApprovedBy      string     `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	RejectedBy      string     `json:"rejected_by,omitempty" db:"rejected_by"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty" db:"rejected_at"`
	RejectionReason string     `json:"rejection_reason,omitempty" db:"rejection_reason"`

	// Running statistics, maintained by the order pipeline.
	TotalProducts int64   `json:"total_products" db:"total_products"`
	TotalSales    int64   `json:"total_sales" db:"total_sales"`
	TotalRevenue  float64 `json:"total_revenue" db:"total_revenue"`

	EmailVerified    bool `json:"email_verified" db:"email_verified"`
	PhoneVerified    bool `json:"phone_verified" db:"phone_verified"`
	BusinessVerified bool `json:"business_verified" db:"business_verified"`

	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
