package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ecoloopkenya/ecoloop/internal/model"
	"github.com/ecoloopkenya/ecoloop/internal/store"
)

// Principal is the identity carried by a validated session token.
type Principal struct {
	Role  model.Role
	Email string
	Name  string
}

// LoginResult is returned on a successful login. Exactly one of the
// account pointers is set, matching Role.
type LoginResult struct {
	Token  string
	Role   model.Role
	Buyer  *model.Buyer
	Seller *model.Seller
	Admin  *model.Admin
}

type AuthService struct {
	store     *store.Store
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger
}

func NewAuthService(st *store.Store, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:     st,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// ParseRole maps a wire role to an account store. Unknown values are
// rejected rather than defaulted.
func ParseRole(raw string) (model.Role, error) {
	switch raw {
	case "user":
		return model.RoleBuyer, nil
	case "seller":
		return model.RoleSeller, nil
	case "admin":
		return model.RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// Login authenticates an account in the store selected by role. The
// credential check runs before any account-state checks so that a
// wrong password is reported identically for every account state.
func (s *AuthService) Login(ctx context.Context, role, email, password string) (*LoginResult, error) {
	parsed, err := ParseRole(role)
	if err != nil {
		return nil, err
	}

	switch parsed {
	case model.RoleBuyer:
		return s.loginBuyer(ctx, email, password)
	case model.RoleSeller:
		return s.loginSeller(ctx, email, password)
	default:
		return s.loginAdmin(ctx, email, password)
	}
}

func (s *AuthService) loginBuyer(ctx context.Context, email, password string) (*LoginResult, error) {
	buyer, err := s.store.GetBuyerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// A seller-marked row in the buyer store means the account was
	// registered through the seller flow and must log in there.
	if buyer.RoleMarker == string(model.RoleSeller) {
		return nil, ErrWrongRoleStore
	}

	ok, rehash := VerifyCredential(buyer.Password, password)
	if !ok {
		return nil, ErrInvalidCredential
	}
	if buyer.Status != model.BuyerActive {
		return nil, ErrAccountDisabled
	}
	if rehash {
		go s.rehashPassword(model.RoleBuyer, email, password)
	}
	go s.touchLastLogin(model.RoleBuyer, email)

	token, err := s.IssueToken(model.RoleBuyer, buyer.Email, buyer.Name())
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Role: model.RoleBuyer, Buyer: buyer}, nil
}

func (s *AuthService) loginSeller(ctx context.Context, email, password string) (*LoginResult, error) {
	seller, err := s.store.GetSellerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ok, rehash := VerifyCredential(seller.Password, password)
	if !ok {
		return nil, ErrInvalidCredential
	}
	if err := EvaluateApproval(seller.Status, seller.ApprovalStatus); err != nil {
		return nil, err
	}
	if rehash {
		go s.rehashPassword(model.RoleSeller, email, password)
	}
	go s.touchLastLogin(model.RoleSeller, email)

	token, err := s.IssueToken(model.RoleSeller, seller.Email, seller.StoreName)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Role: model.RoleSeller, Seller: seller}, nil
}

func (s *AuthService) loginAdmin(ctx context.Context, email, password string) (*LoginResult, error) {
	admin, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ok, rehash := VerifyCredential(admin.Password, password)
	if !ok {
		return nil, ErrInvalidCredential
	}
	if admin.Status != "active" {
		return nil, ErrAccountDisabled
	}
	if rehash {
		go s.rehashPassword(model.RoleAdmin, email, password)
	}
	go s.touchLastLogin(model.RoleAdmin, email)

	token, err := s.IssueToken(model.RoleAdmin, admin.Email, admin.Name)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Role: model.RoleAdmin, Admin: admin}, nil
}

// rehashPassword upgrades a legacy plaintext credential to a bcrypt
// hash after a successful login. Failures are logged and never affect
// the login that triggered the upgrade.
func (s *AuthService) rehashPassword(role model.Role, email, plain string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hash, err := HashPassword(plain)
	if err != nil {
		s.logger.Warn("password rehash failed", "role", role, "email", email, "error", err)
		return
	}

	switch role {
	case model.RoleBuyer:
		err = s.store.UpdateBuyerPassword(ctx, email, hash)
	case model.RoleSeller:
		err = s.store.UpdateSellerPassword(ctx, email, hash)
	default:
		err = s.store.UpdateAdminPassword(ctx, email, hash)
	}
	if err != nil {
		s.logger.Warn("password rehash failed", "role", role, "email", email, "error", err)
		return
	}
	s.logger.Info("legacy password upgraded", "role", role, "email", email)
}

func (s *AuthService) touchLastLogin(role model.Role, email string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	switch role {
	case model.RoleBuyer:
		err = s.store.UpdateBuyerLastLogin(ctx, email)
	case model.RoleSeller:
		err = s.store.UpdateSellerLastLogin(ctx, email)
	default:
		err = s.store.UpdateAdminLastLogin(ctx, email)
	}
	if err != nil {
		s.logger.Warn("last login update failed", "role", role, "email", email, "error", err)
	}
}

// IssueToken creates a signed session token for the given account.
func (s *AuthService) IssueToken(role model.Role, email, name string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: string(role),
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			Issuer:    "ecoloop",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken verifies a session token and returns its principal.
func (s *AuthService) ValidateToken(ctx context.Context, tokenStr string) (*Principal, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidCredential
	}
	if !token.Valid {
		return nil, ErrInvalidCredential
	}

	role, err := ParseRoleClaim(claims.Role)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	return &Principal{Role: role, Email: claims.Subject, Name: claims.Name}, nil
}

// ParseRoleClaim validates a role value stored in a token claim.
func ParseRoleClaim(raw string) (model.Role, error) {
	switch model.Role(raw) {
	case model.RoleBuyer, model.RoleSeller, model.RoleAdmin:
		return model.Role(raw), nil
	default:
		return "", fmt.Errorf("unknown role claim %q", raw)
	}
}

type sessionClaims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}
