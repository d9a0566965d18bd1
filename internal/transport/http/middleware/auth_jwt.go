package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"chatshop/internal/core/auth"
	resp "chatshop/internal/transport/http/response"
)

// Context keys set by AuthJWT.
const (
	KeyClaims   = "claims"
	KeyOperator = "operator"
	KeyRole     = "role"
)

// AuthJWT requires a bearer token issued by j, with requireRole when set.
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			resp.Abort(c, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyOperator, claims.Operator)
		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}
