package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AccessToken rejects requests whose ?token= query parameter does not match
// token. An empty token disables the check.
func AccessToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := c.Query("token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.String(http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}
