package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"go.uber.org/zap"

	"streamify/internal/auth"
	"streamify/internal/config"
	"streamify/internal/logger"
	"streamify/internal/middleware"
	"streamify/internal/models"
	"streamify/internal/redis"
	"streamify/internal/services"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 6

// AuthHandler exposes the account lifecycle endpoints.
type AuthHandler struct {
	authService  services.AuthService
	loginLimiter redis.LoginLimiter // nil disables throttling
	cfg          config.Config
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(authService services.AuthService, loginLimiter redis.LoginLimiter, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
		cfg:          cfg,
	}
}

// SignupRequest is the body for POST /api/auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupHandler handles POST /api/auth/signup.
func (h *AuthHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Handler-local validation; storage is never touched on failure.
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeJSONError(w, "All fields are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < minPasswordLength {
		writeJSONError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}
	if !emailPattern.MatchString(req.Email) {
		writeJSONError(w, "Invalid email format", http.StatusBadRequest)
		return
	}

	user, token, err := h.authService.Signup(r.Context(), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			writeJSONError(w, "User already exists", http.StatusBadRequest)
			return
		}
		logger.Error("signup failed", zap.String("email", req.Email), zap.Error(err))
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, token)
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// LoginHandler handles POST /api/auth/login.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Email == "" || req.Password == "" {
		writeJSONError(w, "All fields are required", http.StatusBadRequest)
		return
	}

	if h.loginLimiter != nil {
		allowed, err := h.loginLimiter.Allow(r.Context(), req.Email)
		if err != nil {
			// Limiter outage must not lock anyone out.
			logger.Warn("login limiter unavailable, failing open", zap.Error(err))
		} else if !allowed {
			writeJSONError(w, "Too many login attempts, please try again later", http.StatusTooManyRequests)
			return
		}
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidLogin) {
			// Same response for unknown email and wrong password.
			writeJSONError(w, "Invalid email or password", http.StatusNotFound)
			return
		}
		logger.Error("login failed", zap.String("email", req.Email), zap.Error(err))
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, token)
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// LogoutHandler handles POST /api/auth/logout. Sessions are stateless, so
// logout is just clearing the cookie; it succeeds whether or not a valid
// session was present.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logout successful",
	})
}

// OnboardingHandler handles POST /api/auth/onboarding.
func (h *AuthHandler) OnboardingHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSONError(w, "Unauthorized - User not found", http.StatusUnauthorized)
		return
	}

	var update models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if missing := update.MissingFields(); missing != nil {
		writeJSONResponse(w, http.StatusBadRequest, map[string]interface{}{
			"success":       false,
			"message":       "Missing required fields",
			"missingFields": missing,
		})
		return
	}

	updated, err := h.authService.Onboard(r.Context(), user.ID, update)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSONError(w, "User not found", http.StatusNotFound)
			return
		}
		logger.Error("onboarding failed", zap.Uint("userId", user.ID), zap.Error(err))
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    updated,
	})
}

// MeHandler handles GET /api/auth/me.
func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSONError(w, "Unauthorized - User not found", http.StatusUnauthorized)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// setSessionCookie delivers the session credential the only way the client
// ever sees it: an http-only, same-site-strict cookie, secure in production.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cfg.Auth.JWTExpiry.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.cfg.Env == "production",
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.cfg.Env == "production",
	})
}
