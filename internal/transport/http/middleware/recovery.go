package middleware

import (

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "chatshop/internal/transport/http/response"
)

// Recovery turns a panicking handler into a 500 envelope and logs it.
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("handler panic", zap.Any("panic", rec), zap.String("path", c.FullPath()), zap.Stack("stack"))
				resp.Abort(c, resp.Error(resp.CodeServerError, "internal error"))
			}
		}()
		c.Next()
	}
}
