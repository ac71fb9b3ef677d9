package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminOnly rejects requests from users outside the admin allowlist.
// Must run after JWT().
func AdminOnly(isAdmin func(int64) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		uidVal, ok := c.Get("user_id")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		uid, ok := uidVal.(int64)
		if !ok || !isAdmin(uid) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
