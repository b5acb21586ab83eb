package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// ClaimsKey is the context key for the authenticated admin's claims
const ClaimsKey contextKey = "claims"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ClaimsFromContext extracts the JWT claims from the request context
func ClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*Claims); ok {
		return claims
	}
	return nil
}

// WriteError sends a standardized error response
func WriteError(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := ErrorResponse{
		Error: message,
		Code:  code,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// sendTokenExpirationWarning adds a warning header when token expires soon
func sendTokenExpirationWarning(w http.ResponseWriter, claims *Claims) {
	if !claims.IsExpiringSoon(time.Hour) {
		return
	}
	if left := time.Until(claims.ExpiresAt.Time); left > 0 {
		w.Header().Set("X-Token-Expires-At", claims.ExpiresAt.Time.Format(time.RFC3339))
		w.Header().Set("X-Token-Expires-In", left.Round(time.Second).String())
	}
}

// validateTokenFormat performs basic token format validation
func validateTokenFormat(tokenString string) error {
	if len(tokenString) == 0 {
		return errors.New("token cannot be empty")
	}
	if len(tokenString) > 8192 { // 8KB limit
		return errors.New("token size exceeds maximum allowed")
	}
	if len(strings.Split(tokenString, ".")) != 3 {
		return errors.New("invalid JWT token format")
	}
	return nil
}

// AdminOnly gates a route group to the admin. It accepts either a Bearer
// token with the admin role or HTTP Basic credentials matching creds.
func AdminOnly(jwtManager *JWTManager, creds *Credentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				WriteError(w, "Authorization header required", "MISSING_AUTH_HEADER", http.StatusUnauthorized)
				return
			}

			var claims *Claims
			switch {
			case strings.HasPrefix(authHeader, "Bearer "):
				tokenString := strings.TrimPrefix(authHeader, "Bearer ")
				if err := validateTokenFormat(tokenString); err != nil {
					WriteError(w, "Invalid token format: "+err.Error(), "INVALID_TOKEN_FORMAT", http.StatusUnauthorized)
					return
				}
				c, err := jwtManager.ValidateToken(tokenString)
				if err != nil {
					message, code := classifyTokenError(err)
					WriteError(w, message, code, http.StatusUnauthorized)
					return
				}
				if !c.HasRole(RoleAdmin) {
					WriteError(w, "Insufficient permissions", "INSUFFICIENT_PERMISSIONS", http.StatusForbidden)
					return
				}
				sendTokenExpirationWarning(w, c)
				claims = c

			case strings.HasPrefix(authHeader, "Basic "):
				username, password, ok := r.BasicAuth()
				if !ok || !creds.Verify(username, password) {
					WriteError(w, "Authentication failed", "AUTHENTICATION_FAILED", http.StatusUnauthorized)
					return
				}
				claims = &Claims{Username: username, Role: RoleAdmin}

			default:
				WriteError(w, "Invalid authorization header format. Expected: Bearer <token> or Basic <credentials>", "INVALID_AUTH_FORMAT", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func classifyTokenError(err error) (message, code string) {
	switch msg := err.Error(); {
	case strings.Contains(msg, "expired"):
		return "Token has expired", "TOKEN_EXPIRED"
	case strings.Contains(msg, "signing method"):
		return "Invalid token signing method", "INVALID_SIGNING_METHOD"
	case strings.Contains(msg, "malformed"):
		return "Token is malformed", "MALFORMED_TOKEN"
	default:
		return "Invalid or expired token", "INVALID_TOKEN"
	}
}
