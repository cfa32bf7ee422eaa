package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	router := newAuthRouter()

	var gotUserID uint
	var gotAdmin bool
	router.GET("/protected", JWTAuth(testSecret), func(c *gin.Context) {
		gotUserID = UserID(c)
		gotAdmin = IsAdmin(c)
		c.Status(http.StatusOK)
	})

	token := signToken(t, jwt.MapClaims{
		"user_id":  float64(42),
		"email":    "a@b.c",
		"is_admin": true,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(42), gotUserID)
	assert.True(t, gotAdmin)
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	router := newAuthRouter()
	router.GET("/protected", JWTAuth(testSecret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthRejectsBadSignature(t *testing.T) {
	router := newAuthRouter()
	router.GET("/protected", JWTAuth(testSecret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": float64(42),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthRejectsExpiredToken(t *testing.T) {
	router := newAuthRouter()
	router.GET("/protected", JWTAuth(testSecret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	token := signToken(t, jwt.MapClaims{
		"user_id": float64(42),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWSAuthReadsQueryToken(t *testing.T) {
	router := newAuthRouter()

	var gotUserID uint
	var gotAdmin bool
	router.GET("/ws", WSAuth(testSecret), func(c *gin.Context) {
		gotUserID = UserID(c)
		gotAdmin = IsAdmin(c)
		c.Status(http.StatusOK)
	})

	token := signToken(t, jwt.MapClaims{
		"user_id":  float64(7),
		"is_admin": false,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(7), gotUserID)
	assert.False(t, gotAdmin)
}

func TestWSAuthRejectsMissingToken(t *testing.T) {
	router := newAuthRouter()
	router.GET("/ws", WSAuth(testSecret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
