package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ecoloopkenya/ecoloop/internal/model"
	"github.com/ecoloopkenya/ecoloop/internal/service"
)

// PrincipalKey is the context key under which the authenticated
// principal is stored.
const PrincipalKey contextKey = "principal"

// Authenticate returns an HTTP middleware that requires a valid Bearer
// session token and stores the resulting principal on the context.
func Authenticate(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				denied(w, http.StatusUnauthorized, "authentication required")
				return
			}

			principal, err := auth.ValidateToken(r.Context(), token)
			if err != nil {
				msg := "invalid or expired token"
				if err == service.ErrTokenExpired {
					msg = "session expired, please log in again"
				}
				denied(w, http.StatusUnauthorized, msg)
				return
			}

			setActor(r.Context(), principal.Email, string(principal.Role))
			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns a middleware that rejects authenticated requests
// whose principal does not carry the given role. It must be mounted
// inside Authenticate.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil || principal.Role != role {
				denied(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil when the request did not pass through Authenticate.
func GetPrincipal(ctx context.Context) *service.Principal {
	if p, ok := ctx.Value(PrincipalKey).(*service.Principal); ok {
		return p
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func denied(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
