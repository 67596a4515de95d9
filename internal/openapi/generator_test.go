package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateSpec(t *testing.T) {
	doc := GenerateSpec("http://localhost:8080")

	if doc.OpenAPI != "3.1.0" {
		t.Errorf("openapi version = %q", doc.OpenAPI)
	}
	if doc.Info == nil || doc.Info.Title == "" {
		t.Fatal("spec missing info")
	}

	mustHave := []string{
		"/api/user/register",
		"/api/seller/register",
		"/api/user/login",
		"/api/admin/setup",
		"/api/products",
		"/api/user/session",
		"/api/seller/profile",
		"/api/seller/products",
		"/api/orders",
		"/api/messages/send",
		"/api/admin/sellers/{sellerId}/approve",
		"/api/admin/sellers/{sellerId}/reject",
		"/api/admin/stats",
		"/api/admin/migrate-passwords",
	}
	for _, path := range mustHave {
		if doc.Paths.Value(path) == nil {
			t.Errorf("spec missing path %s", path)
		}
	}

	// Login carries no security requirement; session does.
	login := doc.Paths.Value("/api/user/login")
	if login.Post == nil {
		t.Fatal("login has no POST operation")
	}
	if login.Post.Security != nil {
		t.Error("login should not require auth")
	}
	session := doc.Paths.Value("/api/user/session")
	if session.Get == nil || session.Get.Security == nil {
		t.Error("session should require auth")
	}

	if doc.Components.SecuritySchemes["bearerAuth"] == nil {
		t.Error("bearerAuth scheme missing")
	}
}

func TestHandlerServesJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	Handler()(rr, httptest.NewRequest("GET", "/openapi.json", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var doc map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatalf("spec is not valid JSON: %v", err)
	}
	if doc["openapi"] != "3.1.0" {
		t.Errorf("openapi field = %v", doc["openapi"])
	}
}

func TestSpecMarshalsDeterministically(t *testing.T) {
	a, err := json.Marshal(GenerateSpec("/"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(GenerateSpec("/"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Error("two generations produced different documents")
	}
}
