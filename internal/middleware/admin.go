package middleware

import (
	"net/http"

	apimiddleware "github.com/Conceptual-Machines/talea-api/internal/api/middleware"
	"github.com/Conceptual-Machines/talea-api/internal/models"
	"github.com/gin-gonic/gin"
)

// AdminRequired lets through callers whose role may manage stream state
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := apimiddleware.GetUserID(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		role, _ := apimiddleware.GetUserRole(c)
		if !models.CanManageStreams(role) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
