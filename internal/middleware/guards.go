package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eduleads/authcore/internal/authz"
	"github.com/eduleads/authcore/pkg/errors"
	"github.com/eduleads/authcore/pkg/metrics"
	"github.com/eduleads/authcore/pkg/response"
)

// RequirePermission rejects requests whose authenticated user does not
// hold the named permission. Evaluation errors fail closed with a 503
// rather than letting the request through.
func RequirePermission(engine *authz.Engine, permissionName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		allowed, err := engine.HasPermission(c.Request.Context(), userID, permissionName)
		decide(c, "permission", permissionName, allowed, err)
	}
}

// RequireRole rejects requests whose authenticated user does not hold an
// active assignment of the named role.
func RequireRole(engine *authz.Engine, roleName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		allowed, err := engine.HasRole(c.Request.Context(), userID, roleName)
		decide(c, "role", roleName, allowed, err)
	}
}

// RequireAnyRole rejects requests unless the authenticated user holds at
// least one of the named roles.
func RequireAnyRole(engine *authz.Engine, roleNames ...string) gin.HandlerFunc {
	requirement := strings.Join(roleNames, ",")
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		allowed, err := engine.HasAnyRole(c.Request.Context(), userID, roleNames...)
		decide(c, "any_role", requirement, allowed, err)
	}
}

func decide(c *gin.Context, kind, requirement string, allowed bool, err error) {
	switch {
	case err != nil:
		metrics.AccessDecisions.WithLabelValues(kind, requirement, "error").Inc()
		response.Error(c, errors.ErrUnavailable)
		c.Abort()
	case !allowed:
		metrics.AccessDecisions.WithLabelValues(kind, requirement, "denied").Inc()
		response.Error(c, errors.ErrForbidden)
		c.Abort()
	default:
		metrics.AccessDecisions.WithLabelValues(kind, requirement, "allowed").Inc()
		c.Next()
	}
}
