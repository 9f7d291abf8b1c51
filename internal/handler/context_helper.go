package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/uni-iro/mou-registry-api/internal/middleware"
	"github.com/uni-iro/mou-registry-api/internal/models"
)

// claimsFromContext returns the authenticated caller, or nil when the route
// was reached without passing the JWT middleware.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	if value, exists := c.Get(middleware.ContextUserKey); exists {
		if claims, ok := value.(*models.JWTClaims); ok {
			return claims
		}
	}
	return nil
}
