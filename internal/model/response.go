package model

import "time"

// Pagination describes the page window returned by list endpoints.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes the page count for a result window.
func NewPagination(page, limit int, total int64) Pagination {
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// ActivityEntry is one row of the admin activity log.
type ActivityEntry struct {
	ID        int64     `json:"id" db:"id"`
	Actor     string    `json:"actor" db:"actor"`
	Action    string    `json:"action" db:"action"`
	Detail    string    `json:"detail,omitempty" db:"detail"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DashboardStats is the admin dashboard summary.
type DashboardStats struct {
	TotalUsers      int64   `json:"totalUsers"`
	TotalSellers    int64   `json:"totalSellers"`
	PendingSellers  int64   `json:"pendingSellers"`
	TotalProducts   int64   `json:"totalProducts"`
	PendingProducts int64   `json:"pendingProducts"`
	TotalOrders     int64   `json:"totalOrders"`
	TotalRevenue    float64 `json:"totalRevenue"`
}
