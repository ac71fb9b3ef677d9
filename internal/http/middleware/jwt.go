package middleware

import (
	"net/http"
	"strings"

	"portfolio_economy/internal/service"

	"github.com/gin-gonic/gin"
)

// JWT validates the Authorization bearer token and stores user_id in
// the gin context.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		userID, err := service.ParseJWT(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// OptionalJWT stores user_id when a valid token is present but lets
// anonymous requests through. Used on public endpoints that personalize
// their response for signed-in users.
func OptionalJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			if userID, err := service.ParseJWT(strings.TrimPrefix(header, "Bearer ")); err == nil {
				c.Set("user_id", userID)
			}
		}
		c.Next()
	}
}
