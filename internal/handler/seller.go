package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ecoloopkenya/ecoloop/internal/model"
	"github.com/ecoloopkenya/ecoloop/internal/server/middleware"
	"github.com/ecoloopkenya/ecoloop/internal/service"
	"github.com/ecoloopkenya/ecoloop/internal/store"
)

// SellerHandler serves the seller portal: profile, statistics,
// notifications, password reset and the seller's own product catalog.
type SellerHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSellerHandler creates a new SellerHandler.
func NewSellerHandler(st *store.Store, logger *slog.Logger) *SellerHandler {
	return &SellerHandler{store: st, logger: logger}
}

// currentSeller resolves the authenticated principal to its seller record.
func (h *SellerHandler) currentSeller(w http.ResponseWriter, r *http.Request) *model.Seller {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil || principal.Role != model.RoleSeller {
		writeFail(w, http.StatusForbidden, "seller account required")
		return nil
	}
	seller, err := h.store.GetSellerByEmail(r.Context(), principal.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFail(w, http.StatusNotFound, "seller not found")
			return nil
		}
		h.logger.Error("seller lookup failed", "email", principal.Email, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to fetch seller")
		return nil
	}
	return seller
}

// Profile returns the authenticated seller's profile.
// GET /api/seller/profile
func (h *SellerHandler) Profile(w http.ResponseWriter, r *http.Request) {
	seller := h.currentSeller(w, r)
	if seller == nil {
		return
	}
	writeOK(w, http.StatusOK, envelope{"seller": seller})
}

// Statistics returns the seller's running sales statistics.
// GET /api/seller/statistics
func (h *SellerHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	seller := h.currentSeller(w, r)
	if seller == nil {
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"statistics": envelope{
			"totalProducts": seller.TotalProducts,
			"totalOrders":   seller.TotalSales,
			"totalRevenue":  seller.TotalRevenue,
			"approvedDate":  seller.ApprovedAt,
			"lastLogin":     seller.LastLogin,
		},
	})
}

// notification is a portal notice derived from the seller's account state.
type notification struct {
	ID        int       `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
}

// Notifications returns portal notices for the seller. There is no
// notifications table; notices are derived from the account state.
// GET /api/seller/notifications
func (h *SellerHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	seller := h.currentSeller(w, r)
	if seller == nil {
		return
	}

	notices := []notification{{
		ID:        1,
		Type:      "info",
		Title:     "Welcome to the EcoLoop Seller Portal",
		Message:   "Your seller account has been set up. Start by adding your first product.",
		CreatedAt: seller.CreatedAt,
	}}

	switch {
	case seller.Status == model.ApprovalApproved && seller.ApprovalStatus == model.ApprovalApproved:
		created := seller.CreatedAt
		if seller.ApprovedAt != nil {
			created = *seller.ApprovedAt
		}
		notices = append(notices, notification{
			ID:        2,
			Type:      "success",
			Title:     "Account Approved",
			Message:   "Congratulations! Your seller account has been approved. You can now start selling.",
			CreatedAt: created,
		})
	case seller.Status == model.ApprovalRejected || seller.ApprovalStatus == model.ApprovalRejected:
		created := seller.CreatedAt
		if seller.RejectedAt != nil {
			created = *seller.RejectedAt
		}
		reason := seller.RejectionReason
		if reason == "" {
			reason = "Please contact support for details."
		}
		notices = append(notices, notification{
			ID:        2,
			Type:      "error",
			Title:     "Application Rejected",
			Message:   "Your seller application has been rejected. " + reason,
			CreatedAt: created,
		})
	default:
		notices = append(notices, notification{
			ID:        2,
			Type:      "info",
			Title:     "Application Under Review",
			Message:   "Your seller application is awaiting admin approval.",
			CreatedAt: seller.CreatedAt,
		})
	}

	writeOK(w, http.StatusOK, envelope{"notifications": notices})
}

// resetPasswordRequest is the expected payload for a password reset.
type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword replaces the seller's credential with a fresh hash. The
// authenticated seller can only reset its own password.
// POST /api/seller/reset-password
func (h *SellerHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil || principal.Role != model.RoleSeller {
		writeFail(w, http.StatusForbidden, "seller account required")
		return
	}

	var req resetPasswordRequest
	if err := readJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NewPassword == "" {
		writeFail(w, http.StatusBadRequest, "newPassword is required")
		return
	}
	if len(req.NewPassword) < 6 {
		writeFail(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	if req.Email != "" && normalizeEmail(req.Email) != principal.Email {
		writeFail(w, http.StatusForbidden, "cannot reset another account's password")
		return
	}

	hash, err := service.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.Error("password hash failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "password reset failed")
		return
	}
	if err := h.store.UpdateSellerPassword(r.Context(), principal.Email, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFail(w, http.StatusNotFound, "seller not found")
			return
		}
		h.logger.Error("password update failed", "email", principal.Email, "error", err)
		writeFail(w, http.StatusInternalServerError, "password reset failed")
		return
	}

	h.logger.Info("seller password reset", "email", principal.Email)
	writeOK(w, http.StatusOK, envelope{
		"message": "Password reset successfully. You can now login with your new password.",
	})
}

// ---------------------------------------------------------------------------
// Seller products
// ---------------------------------------------------------------------------

// createProductRequest is the expected payload for listing a product.
type createProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images"`
}

// CreateProduct submits a product for moderation. New products start in
// the pending state and are invisible to buyers until approved.
// POST /api/seller/products
func (h *SellerHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	seller := h.currentSeller(w, r)
	if seller == nil {
		return
	}
	if seller.Status != model.ApprovalApproved || seller.ApprovalStatus != model.ApprovalApproved {
		writeFail(w, http.StatusForbidden, "seller account must be approved before listing products")
		return
	}

	var req createProductRequest
	if err := readJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Category == "" {
		writeFail(w, http.StatusBadRequest, "name and category are required")
		return
	}
	if req.Price <= 0 {
		writeFail(w, http.StatusBadRequest, "price must be greater than zero")
		return
	}
	if req.Stock < 0 {
		writeFail(w, http.StatusBadRequest, "stock cannot be negative")
		return
	}

	product := &model.Product{
		PublicID:    uuid.Must(uuid.NewV7()).String(),
		SellerEmail: seller.Email,
		StoreName:   seller.StoreName,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Price:       req.Price,
		Stock:       req.Stock,
		Images:      req.Images,
		Status:      model.ProductPending,
	}
	if err := h.store.CreateProduct(r.Context(), product); err != nil {
		h.logger.Error("product create failed", "seller", seller.Email, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	if err := h.store.AdjustSellerProductCount(r.Context(), seller.Email, 1); err != nil {
		h.logger.Warn("product count update failed", "seller", seller.Email, "error", err)
	}

	h.logger.Info("product submitted", "seller", seller.Email, "product", product.PublicID)
	writeOK(w, http.StatusCreated, envelope{
		"message": "Product submitted for review.",
		"product": product,
	})
}

// ListProducts returns the seller's own products in every state.
// GET /api/seller/products
func (h *SellerHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	seller := h.currentSeller(w, r)
	if seller == nil {
		return
	}

	page, limit := pageWindow(r)
	filter := store.ProductFilter{
		SellerEmail: seller.Email,
		Status:      queryString(r, "status"),
	}
	products, total, err := h.store.ListProducts(r.Context(), filter, page, limit)
	if err != nil {
		h.logger.Error("product list failed", "seller", seller.Email, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	writeOK(w, http.StatusOK, envelope{
		"products":   products,
		"pagination": model.NewPagination(page, limit, total),
	})
}
