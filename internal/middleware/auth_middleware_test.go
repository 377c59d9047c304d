package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tup-vms/vms-backend/pkg/jwt"
)

func newTestRouter(jwtService *jwt.Service, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	chain := append([]gin.HandlerFunc{AuthMiddleware(jwtService)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		userCtx := MustGetUserContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userCtx.UserID, "role": userCtx.Role})
	})
	router.GET("/protected", chain...)

	return router
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := jwt.NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	router := newTestRouter(jwtService)

	t.Run("Valid Token", func(t *testing.T) {
		userID := uuid.New()
		token, err := jwtService.GenerateAccessToken(userID, "ana@example.com", "TUP", "")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("Missing Header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Malformed Header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Token abc123")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Expired Token", func(t *testing.T) {
		expiredService := jwt.NewService("access-secret", "refresh-secret", -time.Hour, 24*time.Hour)
		token, err := expiredService.GenerateAccessToken(uuid.New(), "ana@example.com", "TUP", "")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "expired")
	})
}

func TestRequireRole(t *testing.T) {
	jwtService := jwt.NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	router := newTestRouter(jwtService, RequireRole("TUP"))

	t.Run("Allowed Role", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(uuid.New(), "admin@example.com", "TUP", "")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Forbidden Role", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(uuid.New(), "visitor@example.com", "Visitor", "")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRequireRoleMultiple(t *testing.T) {
	jwtService := jwt.NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	router := newTestRouter(jwtService, RequireRole("Visitor", "Student"))

	token, err := jwtService.GenerateAccessToken(uuid.New(), "student@example.com", "Student", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetUserContextMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, exists := GetUserContext(c)
	assert.False(t, exists)

	assert.Panics(t, func() { MustGetUserContext(c) })
}
