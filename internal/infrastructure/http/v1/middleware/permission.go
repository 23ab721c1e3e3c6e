package middleware

import (
	"github.com/gin-gonic/gin"

	"partsync/internal/core/apperror"
	appctx "partsync/internal/core/context"
	"partsync/internal/core/rbac"
)

// Require middleware checks the role matrix for (resource, action).
// Admins are allowed everything by the matrix itself.
func Require(resource rbac.Resource, action rbac.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		role, ok := rbac.ParseRole(user.Role)
		if !ok || !rbac.Allowed(role, resource, action) {
			_ = c.Error(
				apperror.NewForbidden("insufficient permissions").
					WithDetail("resource", string(resource)).
					WithDetail("action", string(action)),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAdmin restricts a route to the ADMIN role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if role, ok := rbac.ParseRole(user.Role); !ok || role != rbac.RoleAdmin {
			_ = c.Error(apperror.NewForbidden("admin role required"))
			c.Abort()
			return
		}

		c.Next()
	}
}
