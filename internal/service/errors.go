package service

import "errors"

var (
	// ErrInvalidRole is returned when the login role is not one of
	// "user", "seller" or "admin".
	ErrInvalidRole = errors.New("invalid role")

	// ErrNotFound is returned when no account exists for the email in
	// the store that the role maps to.
	ErrNotFound = errors.New("account not found")

	// ErrWrongRoleStore is returned when a buyer login matches a row
	// carrying a seller marker in the users table.
	ErrWrongRoleStore = errors.New("account registered under a different role")

	// ErrInvalidCredential is returned when the password does not match.
	ErrInvalidCredential = errors.New("invalid credentials")

	// ErrPendingApproval is returned when a seller account has not yet
	// been approved by an admin.
	ErrPendingApproval = errors.New("account awaiting admin approval")

	// ErrRejected is returned when a seller application was rejected.
	ErrRejected = errors.New("application rejected")

	// ErrInconsistentApproval is returned when a seller's two approval
	// columns disagree in a way the reconciliation rules cannot allow.
	ErrInconsistentApproval = errors.New("inconsistent approval state")

	// ErrAccountDisabled is returned when a buyer or admin account has
	// been deactivated.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrTokenExpired is returned for expired session tokens.
	ErrTokenExpired = errors.New("token expired")
)
