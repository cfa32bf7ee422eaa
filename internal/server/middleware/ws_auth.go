package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tutor-service/internal/ws"
	"tutor-service/pkg/response"
)

// WSAuth authenticates WebSocket upgrade requests. Browsers cannot set
// headers on WebSocket handshakes, so the token travels as a query
// parameter: /ws?token=<jwt>. An actual handshake that fails auth is
// upgraded and closed with a policy code, because browser clients cannot
// read the body of a failed handshake response; plain HTTP requests get
// a 401.
func WSAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			rejectWS(c, "token is required")
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		claims, err := parseClaims(tokenString, jwtSecret)
		if err != nil {
			rejectWS(c, "invalid token")
			return
		}

		userID, ok := claims["user_id"].(float64)
		if !ok {
			rejectWS(c, "invalid user ID in token")
			return
		}

		c.Set(CtxUserID, uint(userID))
		admin, _ := claims["is_admin"].(bool)
		c.Set(CtxIsAdmin, admin)
		c.Next()
	}
}

func rejectWS(c *gin.Context, msg string) {
	if ws.IsUpgrade(c.Request) {
		ws.Reject(c.Writer, c.Request, ws.ClosePolicyAuth, msg)
		c.Abort()
		return
	}
	response.AbortError(c, http.StatusUnauthorized, msg)
}
