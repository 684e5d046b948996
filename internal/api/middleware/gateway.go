package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middlewares
const (
	ContextUserID    = "user_id_str"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

// GatewayAuth trusts identity headers (X-User-ID, X-User-Email, X-User-Role) set by an
// upstream gateway that has already authenticated the caller.
//
// Only use AUTH_MODE=gateway when the API is not reachable except through the gateway
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUserEmail, c.GetHeader("X-User-Email"))
		c.Set(ContextUserRole, c.GetHeader("X-User-Role"))
		c.Next()
	}
}

// GetUserID returns the caller's ID set by whichever auth middleware ran
func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserID)
	return id, id != ""
}

// GetUserRole returns the caller's role
func GetUserRole(c *gin.Context) (string, bool) {
	role := c.GetString(ContextUserRole)
	return role, role != ""
}
