package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/eri-mobile-shop/internal/auth"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-characters"

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(testSecret, "eri-mobile-shop", 15*time.Minute)
}

func captureClaims(captured **auth.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := GetUserFromContext(r.Context()); ok {
			*captured = claims
		}
		w.WriteHeader(http.StatusOK)
	})
}

// ============================================
// AuthMiddleware Tests
// ============================================

func TestAuthMiddleware_ValidToken_Header(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("user-123", "admin@example.com", auth.RoleAdmin)
	require.NoError(t, err)

	var claims *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(captureClaims(&claims)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}

func TestAuthMiddleware_ValidToken_Cookie(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("user-456", "cookie@example.com", auth.RoleAdmin)
	require.NoError(t, err)

	var claims *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(captureClaims(&claims)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "user-456", claims.UserID)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	jwtService := newTestJWTService()
	expired, _, err := auth.NewJWTService(testSecret, "eri-mobile-shop", -time.Minute).GenerateAccessToken("u", "e@example.com", auth.RoleAdmin)
	require.NoError(t, err)
	foreign, _, err := auth.NewJWTService("another-secret-key-of-32-characters!!", "eri-mobile-shop", time.Minute).GenerateAccessToken("u", "e@example.com", auth.RoleAdmin)
	require.NoError(t, err)
	otherIssuer, _, err := auth.NewJWTService(testSecret, "someone-else", time.Minute).GenerateAccessToken("u", "e@example.com", auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"no token", ""},
		{"garbage", "Bearer not-a-jwt"},
		{"expired", "Bearer " + expired},
		{"wrong signature", "Bearer " + foreign},
		{"wrong issuer", "Bearer " + otherIssuer},
		{"not bearer", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(jwtService)(next).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestAuthMiddleware_CookieTakesPrecedence(t *testing.T) {
	jwtService := newTestJWTService()
	cookieToken, _, _ := jwtService.GenerateAccessToken("cookie-user", "c@example.com", auth.RoleAdmin)
	headerToken, _, _ := jwtService.GenerateAccessToken("header-user", "h@example.com", auth.RoleAdmin)

	var claims *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: cookieToken})
	req.Header.Set("Authorization", "Bearer "+headerToken)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(captureClaims(&claims)).ServeHTTP(rec, req)

	require.NotNil(t, claims)
	assert.Equal(t, "cookie-user", claims.UserID)
}

// ============================================
// OptionalAuthMiddleware Tests
// ============================================

func TestOptionalAuthMiddleware(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, _ := jwtService.GenerateAccessToken("user-1", "a@example.com", auth.RoleAdmin)

	tests := []struct {
		name       string
		header     string
		wantClaims bool
	}{
		{"valid token", "Bearer " + token, true},
		{"no token", "", false},
		{"invalid token", "Bearer broken", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var claims *auth.Claims
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			OptionalAuthMiddleware(jwtService)(captureClaims(&claims)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantClaims, claims != nil)
		})
	}
}

// ============================================
// RequireRole / RequireAdmin Tests
// ============================================

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		claims *auth.Claims
		roles  []string
		want   int
	}{
		{"has role", &auth.Claims{UserID: "u", Role: auth.RoleAdmin}, []string{auth.RoleAdmin}, http.StatusOK},
		{"alternate role", &auth.Claims{UserID: "u", Role: "staff"}, []string{auth.RoleAdmin, "staff"}, http.StatusOK},
		{"wrong role", &auth.Claims{UserID: "u", Role: "customer"}, []string{auth.RoleAdmin}, http.StatusForbidden},
		{"no claims", nil, []string{auth.RoleAdmin}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()

			RequireRole(tt.roles...)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	jwtService := newTestJWTService()
	adminToken, _, _ := jwtService.GenerateAccessToken("u1", "a@example.com", auth.RoleAdmin)
	otherToken, _, _ := jwtService.GenerateAccessToken("u2", "b@example.com", "customer")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	for token, want := range map[string]int{adminToken: http.StatusNoContent, otherToken: http.StatusForbidden, "": http.StatusUnauthorized} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()

		RequireAdmin(jwtService)(next).ServeHTTP(rec, req)

		assert.Equal(t, want, rec.Code)
	}
}

// ============================================
// Context helpers
// ============================================

func TestGetUserID(t *testing.T) {
	assert.Equal(t, "", GetUserID(context.Background()))

	ctx := WithClaims(context.Background(), &auth.Claims{UserID: "user-9"})
	assert.Equal(t, "user-9", GetUserID(ctx))
}

// ============================================
// RequestLogger
// ============================================

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.StandardLogger()
	origOut, origFormatter := logger.Out, logger.Formatter
	defer func() {
		log.SetOutput(origOut)
		log.SetFormatter(origFormatter)
	}()
	log.SetOutput(&buf)
	log.SetFormatter(&log.JSONFormatter{})

	handler := chimw.RequestID(RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), `"path":"/api/products"`)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"request_id"`)
}
