package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loancrm/internal/models"
)

// RequireAdmin lets only callers with admin rights through.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(ActingKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no acting user in context"})
			return
		}
		acting, _ := v.(models.ActingContext)
		if !acting.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
