package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ecoloopkenya/ecoloop/internal/model"
	"github.com/ecoloopkenya/ecoloop/internal/service"
	"github.com/ecoloopkenya/ecoloop/internal/store"
)

// ---------------------------------------------------------------------------
// RequestID middleware tests
// ---------------------------------------------------------------------------

func TestRequestIDGeneratesUUID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetRequestID(r.Context())
		if id == "" {
			t.Error("expected non-empty request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	respID := rr.Header().Get("X-Request-ID")
	if respID == "" {
		t.Error("expected X-Request-ID in response header")
	}
	// UUID v7 format check: 36 chars with dashes
	if len(respID) != 36 {
		t.Errorf("expected UUID-length request ID, got %q (len=%d)", respID, len(respID))
	}
}

func TestRequestIDPreservesClientID(t *testing.T) {
	clientID := "my-custom-trace-id-123"

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetRequestID(r.Context())
		if id != clientID {
			t.Errorf("expected context ID %q, got %q", clientID, id)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", clientID)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if respID := rr.Header().Get("X-Request-ID"); respID != clientID {
		t.Errorf("expected response X-Request-ID %q, got %q", clientID, respID)
	}
}

func TestGetRequestIDEmptyContext(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("expected empty ID from bare context, got %q", id)
	}
}

func TestRequestIDReplacesOversizedClientID(t *testing.T) {
	oversized := strings.Repeat("x", maxClientRequestID+1)

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", oversized)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	respID := rr.Header().Get("X-Request-ID")
	if respID == oversized {
		t.Error("oversized client request ID was not replaced")
	}
	if len(respID) != 36 {
		t.Errorf("replacement ID = %q (len=%d), want generated UUID", respID, len(respID))
	}
}

// ---------------------------------------------------------------------------
// Logger middleware tests
// ---------------------------------------------------------------------------

func TestLoggerRecordsActor(t *testing.T) {
	auth := newTestAuth(t)
	token, err := auth.IssueToken(model.RoleSeller, "shop@example.com", "Green Basket")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := Logger(logger)(Authenticate(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest("GET", "/api/seller/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	line := buf.String()
	if !strings.Contains(line, "actor=shop@example.com") {
		t.Errorf("log line missing actor: %s", line)
	}
	if !strings.Contains(line, "role=seller") {
		t.Errorf("log line missing role: %s", line)
	}
}

func TestLoggerOmitsActorForAnonymousRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/products", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	line := buf.String()
	if strings.Contains(line, "actor=") {
		t.Errorf("anonymous request logged an actor: %s", line)
	}
	if !strings.Contains(line, "path=/api/products") {
		t.Errorf("log line missing path: %s", line)
	}
}

// ---------------------------------------------------------------------------
// Authenticate / RequireRole middleware tests
// ---------------------------------------------------------------------------

func newTestAuth(t *testing.T) *service.AuthService {
	t.Helper()
	st, err := store.Open("sqlite", "")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.NewAuthService(st, "middleware-test-secret", time.Hour, logger)
}

// okHandler records the principal it sees and writes 200.
func okHandler(got **service.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = GetPrincipal(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateValidToken(t *testing.T) {
	auth := newTestAuth(t)
	token, err := auth.IssueToken(model.RoleSeller, "shop@example.com", "Green Basket")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	var principal *service.Principal
	handler := Authenticate(auth)(okHandler(&principal))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	if principal == nil || principal.Email != "shop@example.com" || principal.Role != model.RoleSeller {
		t.Errorf("principal = %+v", principal)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	auth := newTestAuth(t)
	handler := Authenticate(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without valid token")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rr.Code)
			}
			var resp struct {
				Success bool `json:"success"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Success {
				t.Error("success=true on a denial")
			}
		})
	}
}

func TestAuthenticateExpiredTokenMessage(t *testing.T) {
	st, err := store.Open("sqlite", "")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := service.NewAuthService(st, "middleware-test-secret", -time.Minute, logger)

	token, err := auth.IssueToken(model.RoleBuyer, "old@example.com", "Old")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	handler := Authenticate(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "session expired, please log in again" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestRequireRole(t *testing.T) {
	auth := newTestAuth(t)
	sellerToken, err := auth.IssueToken(model.RoleSeller, "shop@example.com", "Shop")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	var principal *service.Principal
	adminOnly := Authenticate(auth)(RequireRole(model.RoleAdmin)(okHandler(&principal)))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+sellerToken)
	rr := httptest.NewRecorder()
	adminOnly.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("seller against admin route: status = %d, want 403", rr.Code)
	}

	sellerOnly := Authenticate(auth)(RequireRole(model.RoleSeller)(okHandler(&principal)))
	rr = httptest.NewRecorder()
	sellerOnly.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("seller against seller route: status = %d, want 200", rr.Code)
	}
}

func TestRequireRoleWithoutAuthenticate(t *testing.T) {
	// Mounted without Authenticate there is no principal; the request
	// must be refused, not passed through.
	handler := RequireRole(model.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without principal")
	}))
	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// Rate limit middleware tests
// ---------------------------------------------------------------------------

func TestRateLimitCapsRequests(t *testing.T) {
	handler := RateLimit(3, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var lastCode int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "203.0.113.9:4567"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		lastCode = rr.Code
	}
	if lastCode != http.StatusTooManyRequests {
		t.Errorf("status after burst = %d, want 429", lastCode)
	}
}

func TestLoginRateLimitKeysByEndpoint(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := LoginRateLimit(2, time.Minute)(ok)

	hit := func(path string) int {
		req := httptest.NewRequest("POST", path, nil)
		req.RemoteAddr = "203.0.113.9:4567"
		rr := httptest.NewRecorder()
		limited.ServeHTTP(rr, req)
		return rr.Code
	}

	hit("/api/user/login")
	hit("/api/user/login")
	if code := hit("/api/user/login"); code != http.StatusTooManyRequests {
		t.Errorf("third login = %d, want 429", code)
	}
	// A different endpoint has its own budget.
	if code := hit("/api/user/register"); code != http.StatusOK {
		t.Errorf("register after login burst = %d, want 200", code)
	}
}
