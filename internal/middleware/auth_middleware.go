package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "studytimer/backend/internal/errors"
	"studytimer/backend/internal/service"
)

const AdminIDContextKey = "adminID"

// Auth guards the admin routes with a bearer JWT issued by AuthService.
func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.Unauthorized("missing authorization header"))
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortWithError(c, apperrors.Unauthorized("invalid authorization format"))
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			abortWithError(c, apperrors.Unauthorized("invalid authorization format"))
			return
		}

		adminID, apiErr := authService.ParseToken(token)
		if apiErr != nil {
			abortWithError(c, apiErr)
			return
		}

		c.Set(AdminIDContextKey, adminID)
		c.Next()
	}
}

func AdminID(c *gin.Context) string {
	value, ok := c.Get(AdminIDContextKey)
	if !ok {
		return ""
	}
	adminID, ok := value.(string)
	if !ok {
		return ""
	}
	return adminID
}

func abortWithError(c *gin.Context, apiErr *apperrors.APIError) {
	c.AbortWithStatusJSON(apiErr.Status, gin.H{
		"error": gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
			"details": apiErr.Details,
		},
	})
}
