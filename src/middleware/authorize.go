package middleware

import (
	"net/http"

	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/Attique-dash/cjs-backend/src/services"
	"github.com/gin-gonic/gin"
)

// Require gates a route on the given requirement: human principals by
// exact role membership, machine principals by permission conjunction.
// Must run after one of the auth middlewares.
func Require(req services.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": services.ErrCredentialMissing.Error(),
			})
			c.Abort()
			return
		}

		if err := services.Authorize(principal, req); err != nil {
			abortAuthError(c, err)
			return
		}
		c.Next()
	}
}

// RequireRoles gates a route on human roles only
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return Require(services.Requirement{Roles: roles})
}

// RequirePermissions gates a route on machine permission tokens only.
// Every listed token must be held.
func RequirePermissions(perms ...string) gin.HandlerFunc {
	return Require(services.Requirement{Permissions: perms})
}

// RequireCourierScope checks a machine principal's courier scope
// against the named route parameter. A key scoped to one courier can
// never read or mutate another courier's records, even when both keys
// share a permission token.
func RequireCourierScope(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": services.ErrCredentialMissing.Error(),
			})
			c.Abort()
			return
		}

		if err := services.CheckCourierScope(principal, c.Param(param)); err != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"error": err.Error(),
				"code":  "scope_mismatch",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
