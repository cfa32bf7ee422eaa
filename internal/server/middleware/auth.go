package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"tutor-service/pkg/response"
)

// Context keys set by the auth middlewares.
const (
	CtxUserID  = "user_id"
	CtxEmail   = "email"
	CtxIsAdmin = "is_admin"
)

// JWTAuth validates the Authorization header and stores the caller's
// identity on the gin context.
func JWTAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortError(c, http.StatusUnauthorized, "authorization header is required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := parseClaims(tokenString, jwtSecret)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "invalid token")
			return
		}

		userID, ok := claims["user_id"].(float64)
		if !ok {
			response.AbortError(c, http.StatusUnauthorized, "invalid user ID in token")
			return
		}

		c.Set(CtxUserID, uint(userID))
		c.Set(CtxEmail, claims["email"])
		admin, _ := claims["is_admin"].(bool)
		c.Set(CtxIsAdmin, admin)
		c.Next()
	}
}

func parseClaims(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// UserID pulls the authenticated user id from the gin context.
func UserID(c *gin.Context) uint {
	id, _ := c.Get(CtxUserID)
	userID, _ := id.(uint)
	return userID
}

// IsAdmin reports whether the authenticated caller carries the admin claim.
func IsAdmin(c *gin.Context) bool {
	v, _ := c.Get(CtxIsAdmin)
	admin, _ := v.(bool)
	return admin
}
