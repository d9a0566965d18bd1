package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "chatshop/internal/transport/http/response"
)

// Timeout bounds the request context that handlers hand to the ledger
// queries. A handler that ran out of time without writing gets a timeout
// envelope; a download already streaming is left as it is.
func Timeout(d time.Duration, l *zap.Logger) gin.HandlerFunc {
	msg := fmt.Sprintf("ledger query exceeded %s", d)
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		l.Warn("ops request timed out",
			zap.String("route", c.FullPath()),
			zap.String("operator", c.GetString(KeyOperator)),
			zap.Bool("written", c.Writer.Written()),
		)
		if !c.Writer.Written() {
			resp.Abort(c, resp.Error(resp.CodeTimeout, msg))
		}
	}
}
