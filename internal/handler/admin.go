package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ecoloopkenya/ecoloop/internal/model"
	"github.com/ecoloopkenya/ecoloop/internal/server/middleware"
	"github.com/ecoloopkenya/ecoloop/internal/service"
	"github.com/ecoloopkenya/ecoloop/internal/store"
)

// AdminHandler serves the admin console: first-run setup, seller and
// product moderation, user and order oversight, settings and the
// activity log.
type AdminHandler struct {
	store  *store.Store
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(st *store.Store, auth *service.AuthService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{store: st, auth: auth, logger: logger}
}

func (h *AdminHandler) adminEmail(r *http.Request) string {
	if p := middleware.GetPrincipal(r.Context()); p != nil {
		return p.Email
	}
	return ""
}

// logActivity records an admin action in the audit log. Failures are
// logged, never surfaced; the action itself already succeeded.
func (h *AdminHandler) logActivity(r *http.Request, action, detail string) {
	if err := h.store.AddActivity(r.Context(), h.adminEmail(r), action, detail); err != nil {
		h.logger.Warn("activity log write failed", "action", action, "error", err)
	}
}

// ---------------------------------------------------------------------------
// First-run setup
// ---------------------------------------------------------------------------

// setupRequest is the expected payload for creating the initial admin.
type setupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Setup creates the first admin account. Once any admin exists the
// endpoint refuses, so it cannot be used to mint extra admins.
// POST /api/admin/setup
func (h *AdminHandler) Setup(w http.ResponseWriter, r *http.Request) {
	exists, err := h.store.HasAnyAdmin(r.Context())
	if err != nil {
		h.logger.Error("admin lookup failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "setup failed")
		return
	}
	if exists {
		writeFail(w, http.StatusForbidden, "setup has already been completed")
		return
	}

	var req setupRequest
	if err := readJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		writeFail(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if !validEmail(req.Email) {
		writeFail(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		writeFail(w, http.StatusBadRequest, "admin password must be at least 8 characters")
		return
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hash failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "setup failed")
		return
	}

	admin := &model.Admin{
		Email:     req.Email,
		Password:  hash,
		Name:      strings.TrimSpace(req.Name),
		Status:    "active",
		CreatedBy: "setup",
	}
	if err := h.store.CreateAdmin(r.Context(), admin); err != nil {
		h.logger.Error("admin create failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "setup failed")
		return
	}

	h.logger.Info("initial admin created", "email", admin.Email)
	writeOK(w, http.StatusCreated, envelope{
		"message": "Admin account created. You can now log in.",
		"email":   admin.Email,
	})
}

// ---------------------------------------------------------------------------
// Seller moderation
// ---------------------------------------------------------------------------

// Sellers lists seller applications, filtered by approval status.
// GET /api/admin/sellers
func (h *AdminHandler) Sellers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageWindow(r)
	status := queryString(r, "status")

	sellers, total, err := h.store.ListSellers(r.Context(), status, page, limit)
	if err != nil {
		h.logger.Error("seller list failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to list sellers")
		return
	}

	writeOK(w, http.StatusOK, envelope{
		"sellers":    sellers,
		"pagination": model.NewPagination(page, limit, total),
	})
}

// moderationRequest carries the optional reason for approve/reject actions.
type moderationRequest struct {
	Reason string `json:"reason"`
}

// ApproveSeller marks a seller approved. Both approval columns are
// written together with the audit trail; approving an already-approved
// seller is a no-op that succeeds.
// POST /api/admin/sellers/{sellerId}/approve
func (h *AdminHandler) ApproveSeller(w http.ResponseWriter, r *http.Request) {
	sellerID := chi.URLParam(r, "sellerId")

	if err := h.store.ApproveSeller(r.Context(), sellerID, h.adminEmail(r)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFail(w, http.StatusNotFound, "seller not found")
			return
		}
		h.logger.Error("seller approve failed", "seller", sellerID, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to approve seller")
		return
	}

	h.logger.Info("seller approved", "seller", sellerID, "admin", h.adminEmail(r))
	h.logActivity(r, "seller.approve", sellerID)
	writeOK(w, http.StatusOK, envelope{"message": "Seller approved."})
}

// RejectSeller marks a seller rejected, writing both approval columns
// and the rejection audit trail together.
// POST /api/admin/sellers/{sellerId}/reject
func (h *AdminHandler) RejectSeller(w http.ResponseWriter, r *http.Request) {
	sellerID := chi.URLParam(r, "sellerId")

	var req moderationRequest
	_ = readJSON(r, &req) // body is optional

	if err := h.store.RejectSeller(r.Context(), sellerID, h.adminEmail(r), req.Reason); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFail(w, http.StatusNotFound, "seller not found")
			return
		}
		h.logger.Error("seller reject failed", "seller", sellerID, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to reject seller")
		return
	}

	h.logger.Info("seller rejected", "seller", sellerID, "admin", h.adminEmail(r))
	h.logActivity(r, "seller.reject", sellerID)
	writeOK(w, http.StatusOK, envelope{"message": "Seller rejected."})
}

// ---------------------------------------------------------------------------
// Product moderation
// ---------------------------------------------------------------------------

// Products lists products in every moderation state.
// GET /api/admin/products
func (h *AdminHandler) Products(w http.ResponseWriter, r *http.Request) {
	page, limit := pageWindow(r)
	filter := store.ProductFilter{
		Status:      queryString(r, "status"),
		Category:    queryString(r, "category"),
		SellerEmail: normalizeEmail(queryString(r, "seller")),
	}

	products, total, err := h.store.ListProducts(r.Context(), filter, page, limit)
	if err != nil {
		h.logger.Error("product list failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	writeOK(w, http.StatusOK, envelope{
		"products":   products,
		"pagination": model.NewPagination(page, limit, total),
	})
}

// ApproveProduct publishes a pending product.
// POST /api/admin/products/{productId}/approve
func (h *AdminHandler) ApproveProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	if err := h.store.ApproveProduct(r.Context(), productID, h.adminEmail(r)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFail(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("product approve failed", "product", productID, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to approve product")
		return
	}

	h.logActivity(r, "product.approve", productID)
	writeOK(w, http.StatusOK, envelope{"message": "Product approved."})
}

// RejectProduct rejects a product listing.
// POST /api/admin/products/{productId}/reject
func (h *AdminHandler) RejectProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var req moderationRequest
	_ = readJSON(r, &req)

	if err := h.store.RejectProduct(r.Context(), productID, h.adminEmail(r), req.Reason); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFail(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("product reject failed", "product", productID, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to reject product")
		return
	}

	h.logActivity(r, "product.reject", productID)
	writeOK(w, http.StatusOK, envelope{"message": "Product rejected."})
}

// ---------------------------------------------------------------------------
// Users, orders, stats
// ---------------------------------------------------------------------------

// Users lists buyer accounts.
// GET /api/admin/users
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	page, limit := pageWindow(r)

	buyers, total, err := h.store.ListBuyers(r.Context(), queryString(r, "status"), page, limit)
	if err != nil {
		h.logger.Error("buyer list failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeOK(w, http.StatusOK, envelope{
		"users":      buyers,
		"pagination": model.NewPagination(page, limit, total),
	})
}

// Orders lists every order in the marketplace.
// GET /api/admin/orders
func (h *AdminHandler) Orders(w http.ResponseWriter, r *http.Request) {
	page, limit := pageWindow(r)
	filter := store.OrderFilter{
		Status:      queryString(r, "status"),
		BuyerEmail:  normalizeEmail(queryString(r, "buyer")),
		SellerEmail: normalizeEmail(queryString(r, "seller")),
	}

	orders, total, err := h.store.ListOrders(r.Context(), filter, page, limit)
	if err != nil {
		h.logger.Error("order list failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	writeOK(w, http.StatusOK, envelope{
		"orders":     orders,
		"pagination": model.NewPagination(page, limit, total),
	})
}

// orderStatusRequest is the expected payload for an order status change.
type orderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order through its lifecycle. Completing an
// order folds its total into the seller's running statistics.
// POST /api/admin/orders/{orderId}/status
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req orderStatusRequest
	if err := readJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidOrderStatus(req.Status) {
		writeFail(w, http.StatusBadRequest, "invalid order status")
		return
	}

	order, err := h.store.GetOrderByPublicID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFail(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("order fetch failed", "order", orderID, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to update order")
		return
	}

	if err := h.store.UpdateOrderStatus(r.Context(), orderID, req.Status, h.adminEmail(r)); err != nil {
		h.logger.Error("order status update failed", "order", orderID, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to update order")
		return
	}

	if req.Status == model.OrderCompleted && order.Status != model.OrderCompleted {
		if err := h.store.AddSellerSale(r.Context(), order.SellerEmail, order.Total); err != nil {
			h.logger.Warn("seller stats update failed", "seller", order.SellerEmail, "error", err)
		}
	}

	h.logActivity(r, "order.status", orderID+" -> "+req.Status)
	writeOK(w, http.StatusOK, envelope{"message": "Order status updated."})
}

// Stats returns the admin dashboard summary.
// GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var stats model.DashboardStats

	counts := []struct {
		dst  *int64
		load func() (int64, error)
	}{
		{&stats.TotalUsers, func() (int64, error) { return h.store.CountBuyers(ctx) }},
		{&stats.TotalSellers, func() (int64, error) { return h.store.CountSellers(ctx, "") }},
		{&stats.PendingSellers, func() (int64, error) { return h.store.CountSellers(ctx, string(model.ApprovalPending)) }},
		{&stats.TotalProducts, func() (int64, error) { return h.store.CountProducts(ctx, "") }},
		{&stats.PendingProducts, func() (int64, error) { return h.store.CountProducts(ctx, model.ProductPending) }},
		{&stats.TotalOrders, func() (int64, error) { return h.store.CountOrders(ctx) }},
	}
	var err error
	for _, c := range counts {
		if *c.dst, err = c.load(); err != nil {
			break
		}
	}
	if err == nil {
		stats.TotalRevenue, err = h.store.CompletedRevenue(ctx)
	}
	if err != nil {
		h.logger.Error("stats query failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	writeOK(w, http.StatusOK, envelope{"stats": stats})
}

// ---------------------------------------------------------------------------
// Settings and activity
// ---------------------------------------------------------------------------

// Settings returns every marketplace setting.
// GET /api/admin/settings
func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.AllSettings(r.Context())
	if err != nil {
		h.logger.Error("settings fetch failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to fetch settings")
		return
	}
	writeOK(w, http.StatusOK, envelope{"settings": settings})
}

// UpdateSettings upserts marketplace settings from a flat key/value map.
// POST /api/admin/settings
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if err := readJSON(r, &updates); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(updates) == 0 {
		writeFail(w, http.StatusBadRequest, "no settings provided")
		return
	}

	for key, value := range updates {
		if err := h.store.SetSetting(r.Context(), key, value); err != nil {
			h.logger.Error("setting update failed", "key", key, "error", err)
			writeFail(w, http.StatusInternalServerError, "failed to update settings")
			return
		}
	}

	h.logActivity(r, "settings.update", strings.Join(mapKeys(updates), ","))
	writeOK(w, http.StatusOK, envelope{"message": "Settings updated."})
}

// Activity returns the most recent admin actions.
// GET /api/admin/activity
func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	entries, err := h.store.ListActivity(r.Context(), limit)
	if err != nil {
		h.logger.Error("activity fetch failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to fetch activity")
		return
	}
	writeOK(w, http.StatusOK, envelope{"activity": entries})
}

// MigratePasswords hashes every remaining legacy plaintext credential.
// POST /api/admin/migrate-passwords
func (h *AdminHandler) MigratePasswords(w http.ResponseWriter, r *http.Request) {
	report, err := h.auth.MigratePasswords(r.Context())
	if err != nil {
		h.logger.Error("password migration failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "password migration failed")
		return
	}

	h.logActivity(r, "passwords.migrate", "")
	writeOK(w, http.StatusOK, envelope{
		"message":  "Password migration complete.",
		"migrated": report,
		"total":    report.Total(),
	})
}

func mapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
