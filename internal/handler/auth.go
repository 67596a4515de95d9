package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ecoloopkenya/ecoloop/internal/model"
	"github.com/ecoloopkenya/ecoloop/internal/server/middleware"
	"github.com/ecoloopkenya/ecoloop/internal/service"
	"github.com/ecoloopkenya/ecoloop/internal/store"
)

// AuthHandler serves registration, login and session endpoints for all
// three account roles.
type AuthHandler struct {
	store  *store.Store
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(st *store.Store, auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{store: st, auth: auth, logger: logger}
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

// registerBuyerRequest is the expected payload for buyer registration.
type registerBuyerRequest struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Password      string `json:"password"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
}

// RegisterBuyer creates a buyer account, active immediately.
// POST /api/user/register
func (h *AuthHandler) RegisterBuyer(w http.ResponseWriter, r *http.Request) {
	var req registerBuyerRequest
	if err := readJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.FirstName == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		writeFail(w, http.StatusBadRequest, "firstName, email, phone and password are required")
		return
	}
	if !validEmail(req.Email) {
		writeFail(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if !validPhone(req.Phone) {
		writeFail(w, http.StatusBadRequest, "phone number must have at least 10 digits")
		return
	}
	if len(req.Password) < 6 {
		writeFail(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	exists, err := h.store.BuyerExists(r.Context(), req.Email, req.Phone)
	if err != nil {
		h.logger.Error("buyer lookup failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "registration failed, please try again")
		return
	}
	if exists {
		writeFail(w, http.StatusConflict, "an account with this email or phone already exists")
		return
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hash failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "registration failed, please try again")
		return
	}

	buyer := &model.Buyer{
		PublicID:      uuid.Must(uuid.NewV7()).String(),
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Email:         req.Email,
		Phone:         strings.TrimSpace(req.Phone),
		Password:      hash,
		StreetAddress: strings.TrimSpace(req.StreetAddress),
		City:          strings.TrimSpace(req.City),
		State:         strings.TrimSpace(req.State),
		PostalCode:    strings.TrimSpace(req.PostalCode),
		Country:       strings.TrimSpace(req.Country),
		Status:        model.BuyerActive,
		RoleMarker:    string(model.RoleBuyer),
		Preferences:   model.DefaultPreferences(),
	}
	if err := h.store.CreateBuyer(r.Context(), buyer); err != nil {
		if store.IsDuplicate(err) {
			writeFail(w, http.StatusConflict, "an account with this email or phone already exists")
			return
		}
		h.logger.Error("buyer create failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "registration failed, please try again")
		return
	}

	token, err := h.auth.IssueToken(model.RoleBuyer, buyer.Email, buyer.Name())
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "registration failed, please try again")
		return
	}

	h.logger.Info("buyer registered", "email", buyer.Email)
	writeOK(w, http.StatusCreated, envelope{
		"message": "Registration successful.",
		"token":   token,
		"user": envelope{
			"id":        buyer.PublicID,
			"firstName": buyer.FirstName,
			"lastName":  buyer.LastName,
			"email":     buyer.Email,
			"role":      model.RoleBuyer,
		},
	})
}

// registerSellerRequest is the expected payload for seller registration.
type registerSellerRequest struct {
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	Password            string `json:"password"`
	BusinessName        string `json:"businessName"`
	BusinessType        string `json:"businessType"`
	BusinessDescription string `json:"businessDescription"`
	BusinessAddress     string `json:"businessAddress"`
	BusinessCity        string `json:"businessCity"`
	BusinessCountry     string `json:"businessCountry"`
	StoreName           string `json:"storeName"`
	StoreDescription    string `json:"storeDescription"`
	StoreCategory       string `json:"storeCategory"`
	BusinessLicense     string `json:"businessLicense"`
	TaxID               string `json:"taxId"`
	BankName            string `json:"bankName"`
	AccountNumber       string `json:"accountNumber"`
	AccountName         string `json:"accountName"`
	Website             string `json:"website"`
}

// RegisterSeller creates a seller application in the pending state.
// POST /api/seller/register
func (h *AuthHandler) RegisterSeller(w http.ResponseWriter, r *http.Request) {
	var req registerSellerRequest
	if err := readJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Phone == "" || req.Password == "" ||
		req.BusinessName == "" || req.StoreName == "" {
		writeFail(w, http.StatusBadRequest, "email, phone, password, businessName and storeName are required")
		return
	}
	if !validEmail(req.Email) {
		writeFail(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if !validPhone(req.Phone) {
		writeFail(w, http.StatusBadRequest, "phone number must have at least 10 digits")
		return
	}
	if len(req.Password) < 6 {
		writeFail(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	exists, err := h.store.SellerExists(r.Context(), req.Email, req.Phone)
	if err != nil {
		h.logger.Error("seller lookup failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "registration failed, please try again")
		return
	}
	if exists {
		writeFail(w, http.StatusConflict, "a seller account with this email or phone already exists")
		return
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hash failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "registration failed, please try again")
		return
	}

	seller := &model.Seller{
		PublicID:            uuid.Must(uuid.NewV7()).String(),
		Name:                strings.TrimSpace(req.FirstName + " " + req.LastName),
		FirstName:           strings.TrimSpace(req.FirstName),
		LastName:            strings.TrimSpace(req.LastName),
		Email:               req.Email,
		Phone:               strings.TrimSpace(req.Phone),
		Password:            hash,
		BusinessName:        strings.TrimSpace(req.BusinessName),
		BusinessType:        strings.TrimSpace(req.BusinessType),
		BusinessDescription: strings.TrimSpace(req.BusinessDescription),
		BusinessAddress:     strings.TrimSpace(req.BusinessAddress),
		BusinessCity:        strings.TrimSpace(req.BusinessCity),
		BusinessCountry:     strings.TrimSpace(req.BusinessCountry),
		StoreName:           strings.TrimSpace(req.StoreName),
		StoreDescription:    strings.TrimSpace(req.StoreDescription),
		StoreCategory:       strings.TrimSpace(req.StoreCategory),
		BusinessLicense:     strings.TrimSpace(req.BusinessLicense),
		TaxID:               strings.TrimSpace(req.TaxID),
		BankName:            strings.TrimSpace(req.BankName),
		AccountNumber:       strings.TrimSpace(req.AccountNumber),
		AccountName:         strings.TrimSpace(req.AccountName),
		Website:             strings.TrimSpace(req.Website),
		Status:              model.ApprovalPending,
		ApprovalStatus:      model.ApprovalPending,
	}
	if err := h.store.CreateSeller(r.Context(), seller); err != nil {
		if store.IsDuplicate(err) {
			writeFail(w, http.StatusConflict, "a seller account with this email or phone already exists")
			return
		}
		h.logger.Error("seller create failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "registration failed, please try again")
		return
	}

	h.logger.Info("seller registered", "email", seller.Email, "store", seller.StoreName)
	writeOK(w, http.StatusCreated, envelope{
		"message":        "Seller registration submitted successfully. Awaiting admin approval.",
		"sellerId":       seller.PublicID,
		"approvalStatus": seller.ApprovalStatus,
	})
}

// ---------------------------------------------------------------------------
// Login and session
// ---------------------------------------------------------------------------

// loginRequest is the expected payload for the unified login endpoint.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Login authenticates an account against the store its role selects.
// POST /api/user/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		writeFail(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}

	result, err := h.auth.Login(r.Context(), req.Role, req.Email, req.Password)
	if err != nil {
		h.writeLoginFailure(w, r, req, err)
		return
	}

	h.logger.Info("login succeeded", "role", result.Role, "email", req.Email)
	writeOK(w, http.StatusOK, envelope{
		"message": "Login successful",
		"token":   result.Token,
		"role":    result.Role,
		"user":    loginAccount(result),
	})
}

// writeLoginFailure maps a login error to its response. Denials are audit
// events, not faults, so they log at info; only store failures reach the
// error log and a 5xx status.
func (h *AuthHandler) writeLoginFailure(w http.ResponseWriter, r *http.Request, req loginRequest, err error) {
	var status int
	var message string

	switch {
	case errors.Is(err, service.ErrInvalidRole):
		status = http.StatusBadRequest
		message = "Invalid role specified. Please select User, Seller, or Admin."
	case errors.Is(err, service.ErrWrongRoleStore):
		status = http.StatusUnauthorized
		message = "This account is registered as a seller. Please use Seller Login instead."
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrInvalidCredential):
		// One message for both, so responses do not reveal which
		// emails have accounts.
		status = http.StatusUnauthorized
		message = "Invalid email or password."
	case errors.Is(err, service.ErrPendingApproval):
		status = http.StatusUnauthorized
		message = "Your seller account is awaiting admin approval."
	case errors.Is(err, service.ErrRejected):
		status = http.StatusUnauthorized
		message = "Your seller application has been rejected. Please contact support."
	case errors.Is(err, service.ErrInconsistentApproval):
		status = http.StatusUnauthorized
		message = "Your seller account is not active. Please contact support."
	case errors.Is(err, service.ErrAccountDisabled):
		status = http.StatusUnauthorized
		message = "Your account is not active. Please contact support."
	default:
		h.logger.Error("login store failure", "role", req.Role, "email", req.Email, "error", err)
		writeFail(w, http.StatusInternalServerError, "Login failed, please try again later.")
		return
	}

	h.logger.Info("login denied", "role", req.Role, "email", req.Email, "reason", err)
	writeFail(w, status, message)
}

// loginAccount shapes the account object returned with a login response.
func loginAccount(result *service.LoginResult) envelope {
	switch result.Role {
	case model.RoleBuyer:
		return envelope{
			"id":        result.Buyer.PublicID,
			"firstName": result.Buyer.FirstName,
			"lastName":  result.Buyer.LastName,
			"email":     result.Buyer.Email,
			"role":      result.Role,
		}
	case model.RoleSeller:
		return envelope{
			"id":             result.Seller.PublicID,
			"email":          result.Seller.Email,
			"storeName":      result.Seller.StoreName,
			"businessName":   result.Seller.BusinessName,
			"approvalStatus": result.Seller.ApprovalStatus,
			"role":           result.Role,
		}
	default:
		return envelope{
			"email": result.Admin.Email,
			"name":  result.Admin.Name,
			"role":  result.Role,
		}
	}
}

// Session returns the principal for the presented token.
// GET /api/user/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeFail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"email": principal.Email,
		"name":  principal.Name,
		"role":  principal.Role,
	})
}

// Logout acknowledges a logout. Tokens are stateless, so the client
// simply discards its copy.
// POST /api/user/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, envelope{"message": "Logged out"})
}
