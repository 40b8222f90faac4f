package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"streamify/internal/auth"
	"streamify/internal/config"
	"streamify/internal/models"
	"streamify/internal/storage"
)

// contextKey is a private type for context values, to avoid key collisions.
type contextKey string

// userKey stores the resolved *models.User for the request.
const userKey contextKey = "user"

// claimsKey stores the verified session claims for the request.
const claimsKey contextKey = "claims"

// RequireSession gates protected routes. It extracts the session credential
// from the jwt cookie, verifies it, resolves the user (without the password
// hash) and attaches both to the request context. The user lookup covers the
// case where the account disappeared after the token was issued.
func RequireSession(userRepo storage.UserRepository, authCfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				writeUnauthorized(w, "Unauthorized - No token provided")
				return
			}

			claims, err := auth.ValidateToken(cookie.Value, authCfg.JWTSecretKey)
			if err != nil {
				writeUnauthorized(w, "Unauthorized - Token failed or expired")
				return
			}

			user, err := userRepo.GetByIDSafe(r.Context(), claims.UserID)
			if err != nil {
				writeUnauthorized(w, "Unauthorized - User not found")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user attached by RequireSession.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

// ClaimsFromContext returns the verified session claims for the request.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
