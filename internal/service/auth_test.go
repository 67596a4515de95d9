package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ecoloopkenya/ecoloop/internal/model"
	"github.com/ecoloopkenya/ecoloop/internal/store"
)

const testSecret = "test-secret-for-auth-service-tests"

func newTestAuth(t *testing.T) (*AuthService, *store.Store) {
	t.Helper()
	st, err := store.Open("sqlite", "") // in-memory
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(st, testSecret, time.Hour, logger), st
}

// seedPhone satisfies the users.phone UNIQUE constraint across seeded buyers.
var seedPhone atomic.Int64

func seedBuyer(t *testing.T, st *store.Store, email, password string) *model.Buyer {
	t.Helper()
	b := &model.Buyer{
		PublicID:  uuid.Must(uuid.NewV7()).String(),
		FirstName: "Wanjiru",
		LastName:  "Kamau",
		Email:     email,
		Phone:     fmt.Sprintf("+2547123%05d", seedPhone.Add(1)),
		Password:  password,
		Status:    model.BuyerActive,
	}
	if err := st.CreateBuyer(context.Background(), b); err != nil {
		t.Fatalf("CreateBuyer: %v", err)
	}
	return b
}

func seedSeller(t *testing.T, st *store.Store, email, password string) *model.Seller {
	t.Helper()
	s := &model.Seller{
		PublicID:     uuid.Must(uuid.NewV7()).String(),
		Name:         "Kibera Crafts",
		Email:        email,
		Phone:        "+254722000111",
		Password:     password,
		BusinessName: "Kibera Crafts Ltd",
		StoreName:    "Kibera Crafts",
	}
	if err := st.CreateSeller(context.Background(), s); err != nil {
		t.Fatalf("CreateSeller: %v", err)
	}
	return s
}

func seedAdmin(t *testing.T, st *store.Store, email, password string) *model.Admin {
	t.Helper()
	a := &model.Admin{Email: email, Password: password, Name: "Ops"}
	if err := st.CreateAdmin(context.Background(), a); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	return a
}

func TestParseRole(t *testing.T) {
	cases := []struct {
		raw  string
		want model.Role
		err  error
	}{
		{"user", model.RoleBuyer, nil},
		{"seller", model.RoleSeller, nil},
		{"admin", model.RoleAdmin, nil},
		{"superadmin", "", ErrInvalidRole},
		{"", "", ErrInvalidRole},
		{"User", "", ErrInvalidRole},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.raw)
		if !errors.Is(err, tc.err) {
			t.Errorf("ParseRole(%q) error = %v, want %v", tc.raw, err, tc.err)
		}
		if got != tc.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestLoginBuyer(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()

	hash, err := HashPassword("buyerpass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	seedBuyer(t, st, "buyer@example.com", hash)

	result, err := auth.Login(ctx, "user", "buyer@example.com", "buyerpass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Role != model.RoleBuyer {
		t.Errorf("role = %q, want buyer", result.Role)
	}
	if result.Buyer == nil || result.Buyer.Email != "buyer@example.com" {
		t.Error("buyer record missing from login result")
	}
	if result.Token == "" {
		t.Error("no token issued")
	}

	if _, err := auth.Login(ctx, "user", "buyer@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredential", err)
	}
	if _, err := auth.Login(ctx, "user", "nobody@example.com", "buyerpass"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown email: got %v, want ErrNotFound", err)
	}
	if _, err := auth.Login(ctx, "customer", "buyer@example.com", "buyerpass"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("unknown role: got %v, want ErrInvalidRole", err)
	}
}

func TestLoginBuyerWrongRoleStore(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()

	// Legacy imports left seller-tagged rows in the users table. They
	// must be turned away from the buyer login path even with the
	// correct password.
	b := &model.Buyer{
		PublicID:   uuid.Must(uuid.NewV7()).String(),
		FirstName:  "Otieno",
		Email:      "crossover@example.com",
		Phone:      "+254733999888",
		Password:   "plainpass",
		Status:     model.BuyerActive,
		RoleMarker: string(model.RoleSeller),
	}
	if err := st.CreateBuyer(ctx, b); err != nil {
		t.Fatalf("CreateBuyer: %v", err)
	}

	_, err := auth.Login(ctx, "user", "crossover@example.com", "plainpass")
	if !errors.Is(err, ErrWrongRoleStore) {
		t.Fatalf("got %v, want ErrWrongRoleStore", err)
	}
}

func TestLoginBuyerDisabled(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()

	seedBuyer(t, st, "gone@example.com", "plainpass")
	if _, err := auth.Login(ctx, "user", "gone@example.com", "plainpass"); err != nil {
		t.Fatalf("active login: %v", err)
	}

	disabled := &model.Buyer{
		PublicID:  uuid.Must(uuid.NewV7()).String(),
		FirstName: "Atieno",
		Email:     "disabled@example.com",
		Phone:     "+254700111222",
		Password:  "plainpass",
		Status:    model.BuyerDisabled,
	}
	if err := st.CreateBuyer(ctx, disabled); err != nil {
		t.Fatalf("CreateBuyer: %v", err)
	}
	if _, err := auth.Login(ctx, "user", "disabled@example.com", "plainpass"); !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("got %v, want ErrAccountDisabled", err)
	}
	// Wrong password on a disabled account reports the credential
	// failure, not the account state.
	if _, err := auth.Login(ctx, "user", "disabled@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("got %v, want ErrInvalidCredential", err)
	}
}

func TestLoginSellerApprovalGate(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()

	seller := seedSeller(t, st, "shop@example.com", "sellerpass")

	// Fresh application: both columns pending.
	if _, err := auth.Login(ctx, "seller", "shop@example.com", "sellerpass"); !errors.Is(err, ErrPendingApproval) {
		t.Fatalf("pending seller: got %v, want ErrPendingApproval", err)
	}

	// Partial write: one column approved, the other still pending.
	// This must read as inconsistent, never as a pass.
	if err := st.SetSellerApprovalPair(ctx, seller.PublicID, model.ApprovalApproved, model.ApprovalPending); err != nil {
		t.Fatalf("SetSellerApprovalPair: %v", err)
	}
	if _, err := auth.Login(ctx, "seller", "shop@example.com", "sellerpass"); !errors.Is(err, ErrInconsistentApproval) {
		t.Fatalf("half-approved seller: got %v, want ErrInconsistentApproval", err)
	}

	// Admin approval repairs the pair; login goes through.
	if err := st.ApproveSeller(ctx, seller.PublicID, "admin@example.com"); err != nil {
		t.Fatalf("ApproveSeller: %v", err)
	}
	result, err := auth.Login(ctx, "seller", "shop@example.com", "sellerpass")
	if err != nil {
		t.Fatalf("approved seller login: %v", err)
	}
	if result.Seller == nil || result.Seller.ApprovalStatus != model.ApprovalApproved {
		t.Error("login result does not carry the approved seller record")
	}

	// Approving again is idempotent.
	if err := st.ApproveSeller(ctx, seller.PublicID, "admin@example.com"); err != nil {
		t.Fatalf("second ApproveSeller: %v", err)
	}
	if _, err := auth.Login(ctx, "seller", "shop@example.com", "sellerpass"); err != nil {
		t.Fatalf("login after repeated approval: %v", err)
	}

	// Rejection wins over a stale approved column.
	if err := st.SetSellerApprovalPair(ctx, seller.PublicID, model.ApprovalApproved, model.ApprovalRejected); err != nil {
		t.Fatalf("SetSellerApprovalPair: %v", err)
	}
	if _, err := auth.Login(ctx, "seller", "shop@example.com", "sellerpass"); !errors.Is(err, ErrRejected) {
		t.Fatalf("rejected seller: got %v, want ErrRejected", err)
	}
}

func TestLoginSellerCredentialBeforeState(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()

	seedSeller(t, st, "pending@example.com", "sellerpass")

	// A wrong password on a pending account must report the credential
	// failure so responses cannot be used to probe approval state.
	if _, err := auth.Login(ctx, "seller", "pending@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("got %v, want ErrInvalidCredential", err)
	}
}

func TestLoginAdmin(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()

	seedAdmin(t, st, "root@example.com", "adminpass")

	result, err := auth.Login(ctx, "admin", "root@example.com", "adminpass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Role != model.RoleAdmin || result.Admin == nil {
		t.Error("admin login result malformed")
	}
}

func TestPlaintextUpgradeOnLogin(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()

	seedBuyer(t, st, "legacy@example.com", "oldplain")

	if _, err := auth.Login(ctx, "user", "legacy@example.com", "oldplain"); err != nil {
		t.Fatalf("plaintext login: %v", err)
	}

	// The rehash runs in the background; wait for the stored credential
	// to flip to a bcrypt hash.
	deadline := time.Now().Add(5 * time.Second)
	for {
		b, err := st.GetBuyerByEmail(ctx, "legacy@example.com")
		if err != nil {
			t.Fatalf("GetBuyerByEmail: %v", err)
		}
		if IsHashed(b.Password) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stored password never upgraded to a hash")
		}
		time.Sleep(20 * time.Millisecond)
	}

	// Second login goes through the bcrypt path with the same password.
	if _, err := auth.Login(ctx, "user", "legacy@example.com", "oldplain"); err != nil {
		t.Fatalf("post-upgrade login: %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	token, err := auth.IssueToken(model.RoleSeller, "shop@example.com", "Kibera Crafts")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	p, err := auth.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if p.Role != model.RoleSeller || p.Email != "shop@example.com" || p.Name != "Kibera Crafts" {
		t.Errorf("principal = %+v", p)
	}

	if _, err := auth.ValidateToken(ctx, token+"tampered"); err == nil {
		t.Error("tampered token accepted")
	}

	other := NewAuthService(auth.Store(), "different-secret", time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := other.ValidateToken(ctx, token); err == nil {
		t.Error("token signed with another secret accepted")
	}
}

func TestTokenExpiry(t *testing.T) {
	st, err := store.Open("sqlite", "")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := NewAuthService(st, testSecret, -time.Minute, logger)

	token, err := auth.IssueToken(model.RoleBuyer, "old@example.com", "Old")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := auth.ValidateToken(context.Background(), token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("got %v, want ErrTokenExpired", err)
	}
}

func TestMigratePasswords(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()

	hash, err := HashPassword("alreadyhashed")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	seedBuyer(t, st, "plain1@example.com", "plainone")
	seedBuyer(t, st, "hashed@example.com", hash)
	seedSeller(t, st, "plainshop@example.com", "plaintwo")
	seedAdmin(t, st, "plainadmin@example.com", "plainthree")

	report, err := auth.MigratePasswords(ctx)
	if err != nil {
		t.Fatalf("MigratePasswords: %v", err)
	}
	if report.Buyers != 1 || report.Sellers != 1 || report.Admins != 1 {
		t.Errorf("report = %+v, want 1/1/1", report)
	}
	if report.Total() != 3 {
		t.Errorf("Total() = %d, want 3", report.Total())
	}

	b, err := st.GetBuyerByEmail(ctx, "plain1@example.com")
	if err != nil {
		t.Fatalf("GetBuyerByEmail: %v", err)
	}
	if !IsHashed(b.Password) {
		t.Error("buyer password not upgraded")
	}

	// The migration is idempotent.
	report2, err := auth.MigratePasswords(ctx)
	if err != nil {
		t.Fatalf("second MigratePasswords: %v", err)
	}
	if report2.Total() != 0 {
		t.Errorf("second run migrated %d accounts, want 0", report2.Total())
	}

	// Accounts still log in with their original passwords.
	if _, err := auth.Login(ctx, "user", "plain1@example.com", "plainone"); err != nil {
		t.Errorf("buyer login after migration: %v", err)
	}
	if _, err := auth.Login(ctx, "admin", "plainadmin@example.com", "plainthree"); err != nil {
		t.Errorf("admin login after migration: %v", err)
	}
}
