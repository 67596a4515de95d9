package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ecoloopkenya/ecoloop/internal/model"
	"github.com/ecoloopkenya/ecoloop/internal/service"
	"github.com/ecoloopkenya/ecoloop/internal/store"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

const (
	testJWTSecret = "test-secret-for-server-integration-tests"
	testPassword  = "supersecretpassword"
)

// testEnv holds the shared state for integration tests.
type testEnv struct {
	server  *Server
	store   *store.Store
	authSvc *service.AuthService
}

// newTestEnv creates a fresh environment with an in-memory store and a fully
// wired Server.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.Open("sqlite", "")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := service.NewAuthService(st, testJWTSecret, time.Hour, logger)

	cfg := DefaultConfig()
	srv := New(cfg, st, authSvc, logger)

	return &testEnv{server: srv, store: st, authSvc: authSvc}
}

// do executes a request against the test server and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(b)
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}

// envResponse is the generic response envelope.
type envResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	Role    string          `json:"role"`
	User    json.RawMessage `json:"user"`
}

// seedAdmin creates an admin directly in the store and returns a token.
func (e *testEnv) seedAdmin(t *testing.T) string {
	t.Helper()
	hash, err := service.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &model.Admin{Email: "admin@example.com", Password: hash, Name: "Ops"}
	if err := e.store.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	token, err := e.authSvc.IssueToken(model.RoleAdmin, admin.Email, admin.Name)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token
}

// registerBuyer registers a buyer through the API and returns its token.
func (e *testEnv) registerBuyer(t *testing.T, email, phone string) string {
	t.Helper()
	rr := e.do(t, "POST", "/api/user/register", jsonBody(t, map[string]string{
		"firstName": "Wanjiru",
		"lastName":  "Kamau",
		"email":     email,
		"phone":     phone,
		"password":  testPassword,
	}), "")
	assertStatus(t, rr, http.StatusCreated)

	var resp envResponse
	decodeJSON(t, rr, &resp)
	if resp.Token == "" {
		t.Fatal("registration returned no token")
	}
	return resp.Token
}

// registerSeller registers a seller application and returns its public ID.
func (e *testEnv) registerSeller(t *testing.T, email, phone string) string {
	t.Helper()
	rr := e.do(t, "POST", "/api/seller/register", jsonBody(t, map[string]string{
		"firstName":    "Otieno",
		"email":        email,
		"phone":        phone,
		"password":     testPassword,
		"businessName": "Green Basket Ltd",
		"storeName":    "Green Basket",
	}), "")
	assertStatus(t, rr, http.StatusCreated)

	var resp struct {
		SellerID string `json:"sellerId"`
	}
	decodeJSON(t, rr, &resp)
	if resp.SellerID == "" {
		t.Fatal("registration returned no seller ID")
	}
	return resp.SellerID
}

// ---------------------------------------------------------------------------
// Health and spec endpoints
// ---------------------------------------------------------------------------

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "GET", "/healthz", nil, "")
	assertStatus(t, rr, http.StatusOK)

	rr = e.do(t, "GET", "/readyz", nil, "")
	assertStatus(t, rr, http.StatusOK)

	rr = e.do(t, "GET", "/openapi.json", nil, "")
	assertStatus(t, rr, http.StatusOK)
	var doc map[string]any
	decodeJSON(t, rr, &doc)
	if doc["openapi"] == "" {
		t.Error("openapi.json missing version field")
	}
}

// ---------------------------------------------------------------------------
// Registration and login
// ---------------------------------------------------------------------------

func TestBuyerRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)

	e.registerBuyer(t, "wanjiru@example.com", "+254712345678")

	// Duplicate registration conflicts.
	rr := e.do(t, "POST", "/api/user/register", jsonBody(t, map[string]string{
		"firstName": "Wanjiru",
		"email":     "wanjiru@example.com",
		"phone":     "+254712345678",
		"password":  testPassword,
	}), "")
	assertStatus(t, rr, http.StatusConflict)

	// Login with the default role.
	rr = e.do(t, "POST", "/api/user/login", jsonBody(t, map[string]string{
		"email":    "wanjiru@example.com",
		"password": testPassword,
	}), "")
	assertStatus(t, rr, http.StatusOK)

	var resp envResponse
	decodeJSON(t, rr, &resp)
	if !resp.Success || resp.Token == "" || resp.Role != "buyer" {
		t.Errorf("login response = %+v", resp)
	}

	// The token works against the session endpoint.
	rr = e.do(t, "GET", "/api/user/session", nil, resp.Token)
	assertStatus(t, rr, http.StatusOK)
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEnv(t)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing fields", map[string]string{"email": "x@example.com"}},
		{"bad email", map[string]string{
			"firstName": "A", "email": "not-an-email", "phone": "+254712345678", "password": testPassword,
		}},
		{"short phone", map[string]string{
			"firstName": "A", "email": "a@example.com", "phone": "12345", "password": testPassword,
		}},
		{"short password", map[string]string{
			"firstName": "A", "email": "a@example.com", "phone": "+254712345678", "password": "abc",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := e.do(t, "POST", "/api/user/register", jsonBody(t, tc.body), "")
			assertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestLoginFailureMessages(t *testing.T) {
	e := newTestEnv(t)
	e.registerBuyer(t, "buyer@example.com", "+254712345678")

	// Unknown account and wrong password produce the identical message,
	// so responses cannot be used to enumerate emails.
	rr := e.do(t, "POST", "/api/user/login", jsonBody(t, map[string]string{
		"email": "ghost@example.com", "password": testPassword,
	}), "")
	assertStatus(t, rr, http.StatusUnauthorized)
	var missing envResponse
	decodeJSON(t, rr, &missing)

	rr = e.do(t, "POST", "/api/user/login", jsonBody(t, map[string]string{
		"email": "buyer@example.com", "password": "wrong-password",
	}), "")
	assertStatus(t, rr, http.StatusUnauthorized)
	var wrongpw envResponse
	decodeJSON(t, rr, &wrongpw)

	if missing.Message != wrongpw.Message {
		t.Errorf("messages differ: %q vs %q", missing.Message, wrongpw.Message)
	}

	// Unknown role is a 400 with its own message.
	rr = e.do(t, "POST", "/api/user/login", jsonBody(t, map[string]string{
		"email": "buyer@example.com", "password": testPassword, "role": "superadmin",
	}), "")
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestSellerApprovalFlow(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.seedAdmin(t)

	sellerID := e.registerSeller(t, "basket@example.com", "+254733444555")

	login := func() *httptest.ResponseRecorder {
		return e.do(t, "POST", "/api/user/login", jsonBody(t, map[string]string{
			"email": "basket@example.com", "password": testPassword, "role": "seller",
		}), "")
	}

	// Pending application cannot log in.
	rr := login()
	assertStatus(t, rr, http.StatusUnauthorized)
	var resp envResponse
	decodeJSON(t, rr, &resp)
	if resp.Message != "Your seller account is awaiting admin approval." {
		t.Errorf("pending message = %q", resp.Message)
	}

	// A half-written approval still cannot log in, with the
	// inconsistent-state message.
	if err := e.store.SetSellerApprovalPair(context.Background(), sellerID,
		model.ApprovalApproved, model.ApprovalPending); err != nil {
		t.Fatalf("SetSellerApprovalPair: %v", err)
	}
	rr = login()
	assertStatus(t, rr, http.StatusUnauthorized)
	decodeJSON(t, rr, &resp)
	if resp.Message != "Your seller account is not active. Please contact support." {
		t.Errorf("inconsistent message = %q", resp.Message)
	}

	// Admin approval repairs both columns.
	rr = e.do(t, "POST", "/api/admin/sellers/"+sellerID+"/approve", nil, adminToken)
	assertStatus(t, rr, http.StatusOK)

	rr = login()
	assertStatus(t, rr, http.StatusOK)
	decodeJSON(t, rr, &resp)
	if resp.Role != "seller" || resp.Token == "" {
		t.Errorf("seller login response = %+v", resp)
	}

	// Rejection locks the account out again.
	rr = e.do(t, "POST", "/api/admin/sellers/"+sellerID+"/reject",
		jsonBody(t, map[string]string{"reason": "incomplete papers"}), adminToken)
	assertStatus(t, rr, http.StatusOK)

	rr = login()
	assertStatus(t, rr, http.StatusUnauthorized)
	decodeJSON(t, rr, &resp)
	if resp.Message != "Your seller application has been rejected. Please contact support." {
		t.Errorf("rejected message = %q", resp.Message)
	}
}

func TestBuyerLoginRejectsSellerMarkedRow(t *testing.T) {
	e := newTestEnv(t)

	b := &model.Buyer{
		PublicID:   uuid.Must(uuid.NewV7()).String(),
		FirstName:  "Legacy",
		Email:      "legacy-seller@example.com",
		Phone:      "+254700111222",
		Password:   testPassword,
		Status:     model.BuyerActive,
		RoleMarker: string(model.RoleSeller),
	}
	if err := e.store.CreateBuyer(context.Background(), b); err != nil {
		t.Fatalf("CreateBuyer: %v", err)
	}

	rr := e.do(t, "POST", "/api/user/login", jsonBody(t, map[string]string{
		"email": "legacy-seller@example.com", "password": testPassword,
	}), "")
	assertStatus(t, rr, http.StatusUnauthorized)
	var resp envResponse
	decodeJSON(t, rr, &resp)
	if resp.Message != "This account is registered as a seller. Please use Seller Login instead." {
		t.Errorf("message = %q", resp.Message)
	}
}

// ---------------------------------------------------------------------------
// Admin setup
// ---------------------------------------------------------------------------

func TestAdminSetupOnce(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "POST", "/api/admin/setup", jsonBody(t, map[string]string{
		"email": "root@example.com", "password": "bootstrap-pass", "name": "Root",
	}), "")
	assertStatus(t, rr, http.StatusCreated)

	// Second call is refused outright.
	rr = e.do(t, "POST", "/api/admin/setup", jsonBody(t, map[string]string{
		"email": "second@example.com", "password": "another-pass-123",
	}), "")
	assertStatus(t, rr, http.StatusForbidden)

	// The created admin can log in.
	rr = e.do(t, "POST", "/api/user/login", jsonBody(t, map[string]string{
		"email": "root@example.com", "password": "bootstrap-pass", "role": "admin",
	}), "")
	assertStatus(t, rr, http.StatusOK)
}

func TestAdminSetupPasswordPolicy(t *testing.T) {
	e := newTestEnv(t)
	rr := e.do(t, "POST", "/api/admin/setup", jsonBody(t, map[string]string{
		"email": "root@example.com", "password": "short",
	}), "")
	assertStatus(t, rr, http.StatusBadRequest)
}

// ---------------------------------------------------------------------------
// Authorization boundaries
// ---------------------------------------------------------------------------

func TestAuthBoundaries(t *testing.T) {
	e := newTestEnv(t)
	buyerToken := e.registerBuyer(t, "buyer@example.com", "+254712345678")

	// No token.
	rr := e.do(t, "GET", "/api/user/session", nil, "")
	assertStatus(t, rr, http.StatusUnauthorized)

	// Garbage token.
	rr = e.do(t, "GET", "/api/user/session", nil, "not-a-token")
	assertStatus(t, rr, http.StatusUnauthorized)

	// A buyer cannot reach seller or admin surfaces.
	rr = e.do(t, "GET", "/api/seller/profile", nil, buyerToken)
	assertStatus(t, rr, http.StatusForbidden)
	rr = e.do(t, "GET", "/api/admin/sellers", nil, buyerToken)
	assertStatus(t, rr, http.StatusForbidden)

	// Public product listing needs no token.
	rr = e.do(t, "GET", "/api/products", nil, "")
	assertStatus(t, rr, http.StatusOK)
}

// ---------------------------------------------------------------------------
// Products and orders
// ---------------------------------------------------------------------------

// seedApprovedSeller registers and approves a seller, returning its token.
func (e *testEnv) seedApprovedSeller(t *testing.T, email, phone string) string {
	t.Helper()
	sellerID := e.registerSeller(t, email, phone)
	if err := e.store.ApproveSeller(context.Background(), sellerID, "admin@example.com"); err != nil {
		t.Fatalf("ApproveSeller: %v", err)
	}
	rr := e.do(t, "POST", "/api/user/login", jsonBody(t, map[string]string{
		"email": email, "password": testPassword, "role": "seller",
	}), "")
	assertStatus(t, rr, http.StatusOK)
	var resp envResponse
	decodeJSON(t, rr, &resp)
	return resp.Token
}

func TestProductModerationFlow(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.seedAdmin(t)
	sellerToken := e.seedApprovedSeller(t, "basket@example.com", "+254733444555")

	// Seller lists a product; it starts pending.
	rr := e.do(t, "POST", "/api/seller/products", jsonBody(t, map[string]any{
		"name":        "Recycled Glass Vase",
		"description": "Hand blown from reclaimed bottles",
		"price":       1500,
		"category":    "home",
		"stock":       10,
	}), sellerToken)
	assertStatus(t, rr, http.StatusCreated)

	var created struct {
		Product model.Product `json:"product"`
	}
	decodeJSON(t, rr, &created)
	productID := created.Product.PublicID
	if productID == "" {
		t.Fatal("no product ID returned")
	}
	if created.Product.Status != model.ProductPending {
		t.Errorf("new product status = %q", created.Product.Status)
	}

	// Not publicly visible yet.
	rr = e.do(t, "GET", "/api/products/"+productID, nil, "")
	assertStatus(t, rr, http.StatusNotFound)

	// Admin approves; now it is public.
	rr = e.do(t, "POST", "/api/admin/products/"+productID+"/approve", nil, adminToken)
	assertStatus(t, rr, http.StatusOK)

	rr = e.do(t, "GET", "/api/products/"+productID, nil, "")
	assertStatus(t, rr, http.StatusOK)

	rr = e.do(t, "GET", "/api/products", nil, "")
	assertStatus(t, rr, http.StatusOK)
	var listing struct {
		Products []model.Product `json:"products"`
	}
	decodeJSON(t, rr, &listing)
	if len(listing.Products) != 1 {
		t.Errorf("public listing has %d products, want 1", len(listing.Products))
	}
}

func TestOrderFlow(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.seedAdmin(t)
	sellerToken := e.seedApprovedSeller(t, "basket@example.com", "+254733444555")
	buyerToken := e.registerBuyer(t, "amina@example.com", "+254711222333")

	// List and approve a product.
	rr := e.do(t, "POST", "/api/seller/products", jsonBody(t, map[string]any{
		"name": "Vase", "price": 1500, "category": "home", "stock": 5,
	}), sellerToken)
	assertStatus(t, rr, http.StatusCreated)
	var created struct {
		Product model.Product `json:"product"`
	}
	decodeJSON(t, rr, &created)
	rr = e.do(t, "POST", "/api/admin/products/"+created.Product.PublicID+"/approve", nil, adminToken)
	assertStatus(t, rr, http.StatusOK)

	// Buyer places an order; pricing comes from the stored product.
	rr = e.do(t, "POST", "/api/orders", jsonBody(t, map[string]any{
		"items": []map[string]any{
			{"productId": created.Product.PublicID, "quantity": 2},
		},
	}), buyerToken)
	assertStatus(t, rr, http.StatusCreated)
	var placed struct {
		Order model.Order `json:"order"`
	}
	decodeJSON(t, rr, &placed)
	if placed.Order.Total != 3000 {
		t.Errorf("order total = %v, want 3000", placed.Order.Total)
	}

	// Each side sees its own orders.
	rr = e.do(t, "GET", "/api/orders", nil, buyerToken)
	assertStatus(t, rr, http.StatusOK)
	rr = e.do(t, "GET", "/api/orders", nil, sellerToken)
	assertStatus(t, rr, http.StatusOK)

	// Admin completes the order; the seller's stats absorb the sale.
	rr = e.do(t, "POST", "/api/admin/orders/"+placed.Order.PublicID+"/status",
		jsonBody(t, map[string]string{"status": "completed"}), adminToken)
	assertStatus(t, rr, http.StatusOK)

	seller, err := e.store.GetSellerByEmail(context.Background(), "basket@example.com")
	if err != nil {
		t.Fatalf("GetSellerByEmail: %v", err)
	}
	if seller.TotalSales != 1 || seller.TotalRevenue != 3000 {
		t.Errorf("seller stats = %d sales / %v revenue", seller.TotalSales, seller.TotalRevenue)
	}

	// Invalid transition value is rejected.
	rr = e.do(t, "POST", "/api/admin/orders/"+placed.Order.PublicID+"/status",
		jsonBody(t, map[string]string{"status": "teleported"}), adminToken)
	assertStatus(t, rr, http.StatusBadRequest)
}

// ---------------------------------------------------------------------------
// Messaging
// ---------------------------------------------------------------------------

func TestMessagingFlow(t *testing.T) {
	e := newTestEnv(t)
	buyerToken := e.registerBuyer(t, "amina@example.com", "+254711222333")
	sellerToken := e.seedApprovedSeller(t, "basket@example.com", "+254733444555")

	rr := e.do(t, "POST", "/api/messages/send", jsonBody(t, map[string]string{
		"receiver": "basket@example.com",
		"content":  "Is the vase still available?",
	}), buyerToken)
	assertStatus(t, rr, http.StatusCreated)

	// The seller sees one unread message.
	rr = e.do(t, "GET", "/api/messages/unread", nil, sellerToken)
	assertStatus(t, rr, http.StatusOK)
	var unread struct {
		UnreadCount int `json:"unreadCount"`
	}
	decodeJSON(t, rr, &unread)
	if unread.UnreadCount != 1 {
		t.Errorf("unread = %d, want 1", unread.UnreadCount)
	}

	// Conversation is visible from both sides.
	rr = e.do(t, "GET", "/api/messages/conversations", nil, sellerToken)
	assertStatus(t, rr, http.StatusOK)
	rr = e.do(t, "GET", "/api/messages/conversation/amina@example.com", nil, sellerToken)
	assertStatus(t, rr, http.StatusOK)

	// Marking read clears the counter.
	threadID := model.ThreadID("amina@example.com", "basket@example.com")
	rr = e.do(t, "POST", "/api/messages/read/"+threadID, nil, sellerToken)
	assertStatus(t, rr, http.StatusOK)

	rr = e.do(t, "GET", "/api/messages/unread", nil, sellerToken)
	assertStatus(t, rr, http.StatusOK)
	decodeJSON(t, rr, &unread)
	if unread.UnreadCount != 0 {
		t.Errorf("unread after read = %d, want 0", unread.UnreadCount)
	}
}

// ---------------------------------------------------------------------------
// Admin console
// ---------------------------------------------------------------------------

func TestAdminConsole(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.seedAdmin(t)
	e.registerBuyer(t, "amina@example.com", "+254711222333")
	e.registerSeller(t, "basket@example.com", "+254733444555")

	rr := e.do(t, "GET", "/api/admin/users", nil, adminToken)
	assertStatus(t, rr, http.StatusOK)

	rr = e.do(t, "GET", "/api/admin/sellers?status=pending", nil, adminToken)
	assertStatus(t, rr, http.StatusOK)
	var sellers struct {
		Sellers []model.Seller `json:"sellers"`
	}
	decodeJSON(t, rr, &sellers)
	if len(sellers.Sellers) != 1 {
		t.Errorf("pending sellers = %d, want 1", len(sellers.Sellers))
	}

	rr = e.do(t, "GET", "/api/admin/stats", nil, adminToken)
	assertStatus(t, rr, http.StatusOK)
	var stats struct {
		Stats model.DashboardStats `json:"stats"`
	}
	decodeJSON(t, rr, &stats)
	if stats.Stats.TotalUsers != 1 || stats.Stats.TotalSellers != 1 || stats.Stats.PendingSellers != 1 {
		t.Errorf("stats = %+v", stats.Stats)
	}

	// Settings round-trip.
	rr = e.do(t, "POST", "/api/admin/settings",
		jsonBody(t, map[string]string{"site_name": "EcoLoop Kenya"}), adminToken)
	assertStatus(t, rr, http.StatusOK)

	rr = e.do(t, "GET", "/api/admin/settings", nil, adminToken)
	assertStatus(t, rr, http.StatusOK)
	var settings struct {
		Settings map[string]string `json:"settings"`
	}
	decodeJSON(t, rr, &settings)
	if settings.Settings["site_name"] != "EcoLoop Kenya" {
		t.Errorf("settings = %v", settings.Settings)
	}

	// Moderation actions land in the activity log.
	rr = e.do(t, "GET", "/api/admin/activity", nil, adminToken)
	assertStatus(t, rr, http.StatusOK)
	var activity struct {
		Activity []model.ActivityEntry `json:"activity"`
	}
	decodeJSON(t, rr, &activity)
	if len(activity.Activity) == 0 {
		t.Error("activity log empty after settings update")
	}
}

func TestAdminMigratePasswords(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.seedAdmin(t)

	// Seed a legacy plaintext buyer directly.
	b := &model.Buyer{
		PublicID:  uuid.Must(uuid.NewV7()).String(),
		FirstName: "Legacy",
		Email:     "legacy@example.com",
		Phone:     "+254700999888",
		Password:  "oldplain",
		Status:    model.BuyerActive,
	}
	if err := e.store.CreateBuyer(context.Background(), b); err != nil {
		t.Fatalf("CreateBuyer: %v", err)
	}

	rr := e.do(t, "POST", "/api/admin/migrate-passwords", nil, adminToken)
	assertStatus(t, rr, http.StatusOK)
	var resp struct {
		Total int `json:"total"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Total != 1 {
		t.Errorf("migrated = %d, want 1", resp.Total)
	}

	got, err := e.store.GetBuyerByEmail(context.Background(), "legacy@example.com")
	if err != nil {
		t.Fatalf("GetBuyerByEmail: %v", err)
	}
	if !service.IsHashed(got.Password) {
		t.Error("legacy password not upgraded")
	}
}
