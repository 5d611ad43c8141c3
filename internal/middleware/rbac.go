package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/fitpulse/gym-api/internal/models"
	appErrors "github.com/fitpulse/gym-api/pkg/errors"
	"github.com/fitpulse/gym-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes. The retention
// sweep and provisioning endpoints are admin-only.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, permitted := allowed[claims.Role]; !permitted {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
