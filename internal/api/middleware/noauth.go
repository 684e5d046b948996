package middleware

import (
	"github.com/Conceptual-Machines/talea-api/internal/models"
	"github.com/gin-gonic/gin"
)

// NoAuth is the pass-through middleware for AUTH_MODE=none. Self-hosted callers own
// every stream, so they get the admin role
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextUserID, "anonymous")
		c.Set(ContextUserRole, models.RoleAdmin)
		c.Next()
	}
}
