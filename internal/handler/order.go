package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ecoloopkenya/ecoloop/internal/model"
	"github.com/ecoloopkenya/ecoloop/internal/server/middleware"
	"github.com/ecoloopkenya/ecoloop/internal/store"
)

// OrderHandler serves order placement and role-scoped order history.
type OrderHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(st *store.Store, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{store: st, logger: logger}
}

// createOrderRequest is the expected payload for placing an order.
type createOrderRequest struct {
	Items []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

// Create places an order for the authenticated buyer. All items must
// belong to the same seller; prices are read from the approved product
// records, never from the client.
// POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil || principal.Role != model.RoleBuyer {
		writeFail(w, http.StatusForbidden, "buyer account required")
		return
	}

	var req createOrderRequest
	if err := readJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeFail(w, http.StatusBadRequest, "order must contain at least one item")
		return
	}

	var (
		items       []model.OrderItem
		total       float64
		sellerEmail string
	)
	for _, item := range req.Items {
		if item.Quantity < 1 {
			writeFail(w, http.StatusBadRequest, "item quantity must be at least 1")
			return
		}
		product, err := h.store.GetProductByPublicID(r.Context(), item.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeFail(w, http.StatusBadRequest, "product not found: "+item.ProductID)
				return
			}
			h.logger.Error("product fetch failed", "product", item.ProductID, "error", err)
			writeFail(w, http.StatusInternalServerError, "failed to place order")
			return
		}
		if product.Status != model.ProductApproved {
			writeFail(w, http.StatusBadRequest, "product not available: "+item.ProductID)
			return
		}
		if product.Stock < item.Quantity {
			writeFail(w, http.StatusBadRequest, "insufficient stock for "+product.Name)
			return
		}
		if sellerEmail == "" {
			sellerEmail = product.SellerEmail
		} else if sellerEmail != product.SellerEmail {
			writeFail(w, http.StatusBadRequest, "all items in an order must belong to the same seller")
			return
		}

		subtotal := product.Price * float64(item.Quantity)
		items = append(items, model.OrderItem{
			ProductID: product.PublicID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			Subtotal:  subtotal,
		})
		total += subtotal
	}

	order := &model.Order{
		PublicID:    uuid.Must(uuid.NewV7()).String(),
		BuyerEmail:  principal.Email,
		SellerEmail: sellerEmail,
		Items:       items,
		Total:       total,
		Status:      model.OrderPending,
	}
	if err := h.store.CreateOrder(r.Context(), order); err != nil {
		h.logger.Error("order create failed", "buyer", principal.Email, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to place order")
		return
	}

	h.logger.Info("order placed", "order", order.PublicID, "buyer", principal.Email, "total", total)
	writeOK(w, http.StatusCreated, envelope{
		"message": "Order placed successfully.",
		"order":   order,
	})
}

// List returns the caller's orders: buyers see orders they placed,
// sellers see orders against their store.
// GET /api/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeFail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	page, limit := pageWindow(r)
	filter := store.OrderFilter{Status: queryString(r, "status")}
	switch principal.Role {
	case model.RoleBuyer:
		filter.BuyerEmail = principal.Email
	case model.RoleSeller:
		filter.SellerEmail = principal.Email
	default:
		writeFail(w, http.StatusForbidden, "use the admin orders endpoint")
		return
	}

	orders, total, err := h.store.ListOrders(r.Context(), filter, page, limit)
	if err != nil {
		h.logger.Error("order list failed", "email", principal.Email, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	writeOK(w, http.StatusOK, envelope{
		"orders":     orders,
		"pagination": model.NewPagination(page, limit, total),
	})
}
