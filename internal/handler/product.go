package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecoloopkenya/ecoloop/internal/model"
	"github.com/ecoloopkenya/ecoloop/internal/store"
)

// ProductHandler serves the public product catalog. Only approved
// listings are visible here.
type ProductHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(st *store.Store, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{store: st, logger: logger}
}

// List returns approved products, optionally filtered by category or seller.
// GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageWindow(r)
	filter := store.ProductFilter{
		Status:      model.ProductApproved,
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

// Get returns a single approved product by its public ID.
// GET /api/products/{productId}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	product, err := h.store.GetProductByPublicID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFail(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("product fetch failed", "product", productID, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}
	if product.Status != model.ProductApproved {
		// Unapproved listings are indistinguishable from missing ones.
		writeFail(w, http.StatusNotFound, "product not found")
		return
	}

	writeOK(w, http.StatusOK, envelope{"product": product})
}
