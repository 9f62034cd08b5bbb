package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/studybuddy/study-buddy-api/internal/middleware"
	"github.com/studybuddy/study-buddy-api/internal/models"
)

// claimsFromContext extracts the authenticated user's claims set by the JWT
// middleware. The second return value is false on unauthenticated requests.
func claimsFromContext(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
