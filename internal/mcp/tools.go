package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ecoloopkenya/ecoloop/internal/model"
	"github.com/ecoloopkenya/ecoloop/internal/service"
	"github.com/ecoloopkenya/ecoloop/internal/store"
)

// registerTools registers all marketplace MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Catalog tools -----

	srv.AddTool(
		mcp.NewTool("ecoloop_list_products",
			mcp.WithDescription(
				"List products in the marketplace catalog, optionally filtered by "+
					"moderation status, category or seller email. Defaults to approved "+
					"listings only.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("status",
				mcp.Description("Moderation status filter: pending, approved or rejected (default approved)"),
			),
			mcp.WithString("category",
				mcp.Description("Category filter"),
			),
			mcp.WithString("seller",
				mcp.Description("Seller email filter"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of products to return (default 25, max 100)"),
			),
			mcp.WithNumber("page",
				mcp.Description("Page number, starting at 1"),
			),
		),
		s.handleListProducts,
	)

	srv.AddTool(
		mcp.NewTool("ecoloop_get_product",
			mcp.WithDescription(
				"Fetch a single product by its public ID, in any moderation state.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("product_id",
				mcp.Required(),
				mcp.Description("Public ID of the product"),
			),
		),
		s.handleGetProduct,
	)

	// ----- Seller tools -----

	srv.AddTool(
		mcp.NewTool("ecoloop_list_sellers",
			mcp.WithDescription(
				"List seller applications, optionally filtered by approval status "+
					"(pending, approved, rejected). Returns both approval columns so "+
					"inconsistent records are visible.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("status",
				mcp.Description("Approval status filter"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of sellers to return (default 25, max 100)"),
			),
			mcp.WithNumber("page",
				mcp.Description("Page number, starting at 1"),
			),
		),
		s.handleListSellers,
	)

	srv.AddTool(
		mcp.NewTool("ecoloop_seller_status",
			mcp.WithDescription(
				"Inspect one seller's approval state: both status columns, the "+
					"reconciled login decision, and the approval audit trail. Use this "+
					"to diagnose sellers who cannot log in.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("email",
				mcp.Required(),
				mcp.Description("Seller email address"),
			),
		),
		s.handleSellerStatus,
	)

	srv.AddTool(
		mcp.NewTool("ecoloop_approve_seller",
			mcp.WithDescription(
				"Approve a seller application. Writes both approval columns together "+
					"with the audit trail; safe to repeat on an already-approved seller.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("seller_id",
				mcp.Required(),
				mcp.Description("Public ID of the seller"),
			),
			mcp.WithString("admin_email",
				mcp.Required(),
				mcp.Description("Email of the admin performing the action, recorded in the audit trail"),
			),
		),
		s.handleApproveSeller,
	)

	srv.AddTool(
		mcp.NewTool("ecoloop_reject_seller",
			mcp.WithDescription(
				"Reject a seller application. Writes both approval columns together "+
					"with the audit trail and an optional reason.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("seller_id",
				mcp.Required(),
				mcp.Description("Public ID of the seller"),
			),
			mcp.WithString("admin_email",
				mcp.Required(),
				mcp.Description("Email of the admin performing the action, recorded in the audit trail"),
			),
			mcp.WithString("reason",
				mcp.Description("Rejection reason shown to the seller"),
			),
		),
		s.handleRejectSeller,
	)

	// ----- Dashboard tool -----

	srv.AddTool(
		mcp.NewTool("ecoloop_marketplace_stats",
			mcp.WithDescription(
				"Marketplace dashboard counters: users, sellers (total and pending), "+
					"products (total and pending), orders and completed revenue.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleMarketplaceStats,
	)
}

func (s *MCPServer) handleListProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := optionalString(request, "status")
	if status == "" {
		status = model.ProductApproved
	}
	page := clamp(optionalInt(request, "page", 1), 1, 1<<20)
	limit := clamp(optionalInt(request, "limit", 25), 1, 100)

	filter := store.ProductFilter{
		Status:      status,
		Category:    optionalString(request, "category"),
		SellerEmail: optionalString(request, "seller"),
	}
	products, total, err := s.store.ListProducts(ctx, filter, page, limit)
	if err != nil {
		return toolError("list products: %v", err)
	}
	return successJSON(map[string]interface{}{
		"products": products,
		"total":    total,
	})
}

func (s *MCPServer) handleGetProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	productID, err := requireString(request, "product_id")
	if err != nil {
		return toolError("%v", err)
	}

	product, err := s.store.GetProductByPublicID(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return toolError("product %q not found", productID)
		}
		return toolError("get product: %v", err)
	}
	return successJSON(product)
}

func (s *MCPServer) handleListSellers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := clamp(optionalInt(request, "page", 1), 1, 1<<20)
	limit := clamp(optionalInt(request, "limit", 25), 1, 100)

	sellers, total, err := s.store.ListSellers(ctx, optionalString(request, "status"), page, limit)
	if err != nil {
		return toolError("list sellers: %v", err)
	}

	out := make([]map[string]interface{}, 0, len(sellers))
	for i := range sellers {
		out = append(out, sellerSummary(&sellers[i]))
	}
	return successJSON(map[string]interface{}{
		"sellers": out,
		"total":   total,
	})
}

func (s *MCPServer) handleSellerStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	email, err := requireString(request, "email")
	if err != nil {
		return toolError("%v", err)
	}

	seller, err := s.store.GetSellerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return toolError("seller %q not found", email)
		}
		return toolError("get seller: %v", err)
	}

	decision := "allow"
	if gateErr := service.EvaluateApproval(seller.Status, seller.ApprovalStatus); gateErr != nil {
		decision = gateErr.Error()
	}

	summary := sellerSummary(seller)
	summary["loginDecision"] = decision
	summary["approvedBy"] = seller.ApprovedBy
	summary["approvedAt"] = seller.ApprovedAt
	summary["rejectedBy"] = seller.RejectedBy
	summary["rejectedAt"] = seller.RejectedAt
	summary["rejectionReason"] = seller.RejectionReason
	return successJSON(summary)
}

func (s *MCPServer) handleApproveSeller(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sellerID, err := requireString(request, "seller_id")
	if err != nil {
		return toolError("%v", err)
	}
	adminEmail, err := requireString(request, "admin_email")
	if err != nil {
		return toolError("%v", err)
	}

	if err := s.store.ApproveSeller(ctx, sellerID, adminEmail); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return toolError("seller %q not found", sellerID)
		}
		return toolError("approve seller: %v", err)
	}
	s.logger.Info("seller approved via mcp", "seller", sellerID, "admin", adminEmail)
	return successJSON(map[string]interface{}{"approved": sellerID})
}

func (s *MCPServer) handleRejectSeller(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sellerID, err := requireString(request, "seller_id")
	if err != nil {
		return toolError("%v", err)
	}
	adminEmail, err := requireString(request, "admin_email")
	if err != nil {
		return toolError("%v", err)
	}

	if err := s.store.RejectSeller(ctx, sellerID, adminEmail, optionalString(request, "reason")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return toolError("seller %q not found", sellerID)
		}
		return toolError("reject seller: %v", err)
	}
	s.logger.Info("seller rejected via mcp", "seller", sellerID, "admin", adminEmail)
	return successJSON(map[string]interface{}{"rejected": sellerID})
}

func (s *MCPServer) handleMarketplaceStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats model.DashboardStats
	var err error

	if stats.TotalUsers, err = s.store.CountBuyers(ctx); err != nil {
		return toolError("stats: %v", err)
	}
	if stats.TotalSellers, err = s.store.CountSellers(ctx, ""); err != nil {
		return toolError("stats: %v", err)
	}
	if stats.PendingSellers, err = s.store.CountSellers(ctx, string(model.ApprovalPending)); err != nil {
		return toolError("stats: %v", err)
	}
	if stats.TotalProducts, err = s.store.CountProducts(ctx, ""); err != nil {
		return toolError("stats: %v", err)
	}
	if stats.PendingProducts, err = s.store.CountProducts(ctx, model.ProductPending); err != nil {
		return toolError("stats: %v", err)
	}
	if stats.TotalOrders, err = s.store.CountOrders(ctx); err != nil {
		return toolError("stats: %v", err)
	}
	if stats.TotalRevenue, err = s.store.CompletedRevenue(ctx); err != nil {
		return toolError("stats: %v", err)
	}
	return successJSON(stats)
}

// sellerSummary shapes a seller record for tool output, keeping banking
// details out of agent-visible responses.
func sellerSummary(seller *model.Seller) map[string]interface{} {
	return map[string]interface{}{
		"id":             seller.PublicID,
		"email":          seller.Email,
		"storeName":      seller.StoreName,
		"businessName":   seller.BusinessName,
		"status":         seller.Status,
		"approvalStatus": seller.ApprovalStatus,
		"totalProducts":  seller.TotalProducts,
		"totalSales":     seller.TotalSales,
		"totalRevenue":   seller.TotalRevenue,
		"createdAt":      seller.CreatedAt,
	}
}
