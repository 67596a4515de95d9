package openapi

import (
	"encoding/json"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// GenerateSpec builds the OpenAPI 3.1 document for the marketplace API.
func GenerateSpec(baseURL string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "EcoLoop Marketplace API",
			Description: "REST API for the EcoLoop Kenya marketplace: buyer, seller and admin accounts, product catalog, orders and messaging.",
			Version:     "1.0.0",
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}

	doc.Components.Schemas["Envelope"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"success": schemaOf("boolean"),
				"message": schemaOf("string"),
			},
		},
	}
	doc.Components.Schemas["LoginRequest"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"email", "password"},
			Properties: openapi3.Schemas{
				"email":    schemaOf("string"),
				"password": schemaOf("string"),
				"role": {Value: &openapi3.Schema{
					Type: &openapi3.Types{"string"},
					Enum: []interface{}{"user", "seller", "admin"},
				}},
			},
		},
	}
	doc.Components.Schemas["Pagination"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"page":  schemaOf("integer"),
				"limit": schemaOf("integer"),
				"total": schemaOf("integer"),
				"pages": schemaOf("integer"),
			},
		},
	}

	doc.Paths = openapi3.NewPaths()

	addOp(doc, "/healthz", "get", "Liveness probe", false)
	addOp(doc, "/readyz", "get", "Readiness probe (store ping)", false)

	addOp(doc, "/api/user/register", "post", "Register a buyer account", false)
	addOp(doc, "/api/seller/register", "post", "Submit a seller application", false)
	addOp(doc, "/api/user/login", "post", "Log in with email, password and role", false)
	addOp(doc, "/api/admin/setup", "post", "Create the initial admin account (first run only)", false)
	addOp(doc, "/api/products", "get", "List approved products", false)
	addOp(doc, "/api/products/{productId}", "get", "Fetch one approved product", false)

	addOp(doc, "/api/user/session", "get", "Return the authenticated principal", true)
	addOp(doc, "/api/user/logout", "post", "Log out", true)

	addOp(doc, "/api/seller/profile", "get", "Authenticated seller's profile", true)
	addOp(doc, "/api/seller/statistics", "get", "Seller sales statistics", true)
	addOp(doc, "/api/seller/notifications", "get", "Seller portal notifications", true)
	addOp(doc, "/api/seller/reset-password", "post", "Reset the seller's own password", true)
	addOp(doc, "/api/seller/products", "get", "List the seller's own products", true)
	addOp(doc, "/api/seller/products", "post", "Submit a product for moderation", true)

	addOp(doc, "/api/orders", "post", "Place an order (buyer)", true)
	addOp(doc, "/api/orders", "get", "List own orders (role scoped)", true)

	addOp(doc, "/api/messages/conversations", "get", "List message threads", true)
	addOp(doc, "/api/messages/conversation/{otherEmail}", "get", "Fetch the thread with another account", true)
	addOp(doc, "/api/messages/send", "post", "Send a message", true)
	addOp(doc, "/api/messages/read/{conversationId}", "post", "Mark a thread read", true)
	addOp(doc, "/api/messages/unread", "get", "Total unread message count", true)

	addOp(doc, "/api/admin/sellers", "get", "List seller applications", true)
	addOp(doc, "/api/admin/sellers/{sellerId}/approve", "post", "Approve a seller (writes both approval columns)", true)
	addOp(doc, "/api/admin/sellers/{sellerId}/reject", "post", "Reject a seller (writes both approval columns)", true)
	addOp(doc, "/api/admin/products", "get", "List products in every moderation state", true)
	addOp(doc, "/api/admin/products/{productId}/approve", "post", "Approve a product", true)
	addOp(doc, "/api/admin/products/{productId}/reject", "post", "Reject a product", true)
	addOp(doc, "/api/admin/users", "get", "List buyer accounts", true)
	addOp(doc, "/api/admin/orders", "get", "List all orders", true)
	addOp(doc, "/api/admin/orders/{orderId}/status", "post", "Change an order's status", true)
	addOp(doc, "/api/admin/stats", "get", "Dashboard counters and revenue", true)
	addOp(doc, "/api/admin/settings", "get", "Read marketplace settings", true)
	addOp(doc, "/api/admin/settings", "post", "Update marketplace settings", true)
	addOp(doc, "/api/admin/activity", "get", "Recent admin activity", true)
	addOp(doc, "/api/admin/migrate-passwords", "post", "Hash remaining legacy plaintext credentials", true)

	return doc
}

func schemaOf(t string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{t}}}
}

func addOp(doc *openapi3.T, path, method, summary string, authed bool) {
	item := doc.Paths.Value(path)
	if item == nil {
		item = &openapi3.PathItem{}
		doc.Paths.Set(path, item)
	}

	op := openapi3.NewOperation()
	op.Summary = summary
	op.Responses = openapi3.NewResponses()
	desc := "Envelope response"
	op.Responses.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content: openapi3.Content{
				"application/json": &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{Ref: "#/components/schemas/Envelope"},
				},
			},
		},
	})
	if authed {
		op.Security = &openapi3.SecurityRequirements{{"bearerAuth": {}}}
	}

	switch method {
	case "get":
		item.Get = op
	case "post":
		item.Post = op
	case "put":
		item.Put = op
	case "delete":
		item.Delete = op
	}
}

// Handler serves the generated document as JSON.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := GenerateSpec("/")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(doc)
	}
}
