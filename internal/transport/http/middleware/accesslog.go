package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	resp "chatshop/internal/transport/http/response"
)

// AccessLog writes one line per ops request: who asked for what, and the
// envelope code they got. Refused logins and tokens log at warn, failures at
// error. The query string is not logged; the ops API takes no secrets there
// and page numbers are in the route label already.
func AccessLog(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("rid", c.GetString(KeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("operator", c.GetString(KeyOperator)),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
		}
		level := zapcore.InfoLevel
		if code, ok := resp.CodeOf(c); ok {
			fields = append(fields, zap.Int("code", code))
			switch {
			case code >= resp.CodeServerError:
				level = zapcore.ErrorLevel
			case code == resp.CodeUnauthorized, code == resp.CodeForbidden, code == resp.CodeTooMany:
				level = zapcore.WarnLevel
			}
		} else {
			fields = append(fields, zap.Int("status", c.Writer.Status()))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		l.Log(level, "ops request", fields...)
	}
}
