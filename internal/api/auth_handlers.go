package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/example/eri-mobile-shop/internal/api/middleware"
	"github.com/example/eri-mobile-shop/internal/auth"
	"github.com/example/eri-mobile-shop/internal/command"
	"github.com/example/eri-mobile-shop/internal/domain/user"
	"github.com/example/eri-mobile-shop/internal/query"
	log "github.com/sirupsen/logrus"
)

// AuthHandlers handles admin sign-in and account requests
type AuthHandlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	userService  *user.Service
	jwtService   *auth.JWTService
	secure       bool
}

func NewAuthHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, userService *user.Service, jwtService *auth.JWTService, secureCookies bool) *AuthHandlers {
	return &AuthHandlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		userService:  userService,
		jwtService:   jwtService,
		secure:       secureCookies,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
	// Token is also set as an HttpOnly cookie; API clients use it as a Bearer token
	Token string `json:"token"`
}

func toUserResponse(u *query.UserReadModel) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt}
}

// Login handles admin login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.cmdHandler.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, user.ErrInvalidCredentials) {
		respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if u.Role != auth.RoleAdmin {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	h.setAuthCookie(w, token, expiresAt)

	if err := h.userService.RecordLogin(r.Context(), u.ID, r.RemoteAddr, r.UserAgent()); err != nil {
		log.Printf("[Auth] Failed to record login for %s: %v", u.ID, err)
	}

	respondJSON(w, http.StatusOK, AuthResponse{User: toUserResponse(u), ExpiresAt: expiresAt, Token: token})
}

// Logout clears the admin cookie; a valid token also records the logout
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		if err := h.userService.RecordLogout(r.Context(), claims.UserID); err != nil {
			log.Printf("[Auth] Failed to record logout for %s: %v", claims.UserID, err)
		}
	}

	h.clearAuthCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	u, ok, err := h.queryHandler.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if !ok {
		respondJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(u))
}

// ChangePassword handles password change requests
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var cmd command.ChangePassword
	if !decodeJSON(w, r, &cmd) {
		return
	}
	cmd.UserID = middleware.GetUserID(r.Context())

	err := h.cmdHandler.ChangePassword(r.Context(), cmd)
	if errors.Is(err, user.ErrInvalidCredentials) {
		respondJSONError(w, "Current password is incorrect", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (h *AuthHandlers) setAuthCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/api",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/api",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
